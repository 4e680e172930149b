package service

import (
	"context"
	"errors"
	"time"

	"github.com/projectcamp/ms-go-projects/app/dto"
	"github.com/projectcamp/ms-go-projects/app/entity"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrMemberNotFound   = errors.New("project member not found")
	ErrForbidden        = errors.New("insufficient permissions")
	ErrLastProjectAdmin = errors.New("project must keep at least one admin")
)

type projectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*entity.Project, error)
	Update(ctx context.Context, project *entity.Project) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type projectMemberRepository interface {
	Upsert(ctx context.Context, projectID, userID primitive.ObjectID, role entity.Role) error
	FindByProjectAndUser(ctx context.Context, projectID, userID primitive.ObjectID) (*entity.ProjectMember, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]entity.ProjectListItem, error)
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]entity.MemberWithUser, error)
	Delete(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error)
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
	CountByProjectAndRole(ctx context.Context, projectID primitive.ObjectID, role entity.Role) (int64, error)
}

type memberUserFinder interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type txRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProjectService owns projects and their memberships. Role checks are
// explicit calls (RequireRole) composed ahead of the mutating operations by
// the route layer.
type ProjectService interface {
	ResolveRole(ctx context.Context, userID, projectID primitive.ObjectID) (entity.Role, error)
	RequireRole(ctx context.Context, userID, projectID primitive.ObjectID, allowed ...entity.Role) (entity.Role, error)

	List(ctx context.Context, userID primitive.ObjectID) ([]entity.ProjectListItem, error)
	Get(ctx context.Context, projectID primitive.ObjectID) (*entity.Project, error)
	Create(ctx context.Context, userID primitive.ObjectID, req *dto.CreateProjectRequest) (*entity.Project, error)
	Update(ctx context.Context, projectID primitive.ObjectID, req *dto.UpdateProjectRequest) (*entity.Project, error)
	Delete(ctx context.Context, projectID primitive.ObjectID) error

	Members(ctx context.Context, projectID primitive.ObjectID) ([]entity.MemberWithUser, error)
	AddMember(ctx context.Context, projectID primitive.ObjectID, email string, role entity.Role) error
	UpdateMemberRole(ctx context.Context, projectID, memberUserID primitive.ObjectID, role entity.Role) error
	RemoveMember(ctx context.Context, projectID, memberUserID primitive.ObjectID) error
}

type projectService struct {
	projectRepo projectRepository
	memberRepo  projectMemberRepository
	users       memberUserFinder
	tx          txRunner
}

func NewProjectService(
	projectRepo projectRepository,
	memberRepo projectMemberRepository,
	users memberUserFinder,
	tx txRunner,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		users:       users,
		tx:          tx,
	}
}

// ResolveRole yields the caller's role on the project, or ErrProjectNotFound
// when no membership exists. Non-members cannot distinguish a project they
// are excluded from and one that does not exist.
func (s *projectService) ResolveRole(ctx context.Context, userID, projectID primitive.ObjectID) (entity.Role, error) {
	member, err := s.memberRepo.FindByProjectAndUser(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if member == nil {
		return "", ErrProjectNotFound
	}
	return member.Role, nil
}

func (s *projectService) RequireRole(ctx context.Context, userID, projectID primitive.ObjectID, allowed ...entity.Role) (entity.Role, error) {
	role, err := s.ResolveRole(ctx, userID, projectID)
	if err != nil {
		return "", err
	}
	for _, a := range allowed {
		if role == a {
			return role, nil
		}
	}
	return role, ErrForbidden
}

func (s *projectService) List(ctx context.Context, userID primitive.ObjectID) ([]entity.ProjectListItem, error) {
	return s.memberRepo.ListByUser(ctx, userID)
}

func (s *projectService) Get(ctx context.Context, projectID primitive.ObjectID) (*entity.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// Create persists the project and the creator's admin membership in one
// transaction; a project with no admin must never exist.
func (s *projectService) Create(ctx context.Context, userID primitive.ObjectID, req *dto.CreateProjectRequest) (*entity.Project, error) {
	now := time.Now()
	project := &entity.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return err
		}
		return s.memberRepo.Upsert(txCtx, project.ID, userID, entity.RoleAdmin)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"project_id": project.ID.Hex(),
		"user_id":    userID.Hex(),
	}).Info("Project created")

	return project, nil
}

func (s *projectService) Update(ctx context.Context, projectID primitive.ObjectID, req *dto.UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	project.Name = req.Name
	project.Description = req.Description
	if err = s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project and cascades its membership rows in the same
// transaction.
func (s *projectService) Delete(ctx context.Context, projectID primitive.ObjectID) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrProjectNotFound
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.memberRepo.DeleteByProject(txCtx, projectID); err != nil {
			return err
		}
		deleted, err := s.projectRepo.Delete(txCtx, projectID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrProjectNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithField("project_id", projectID.Hex()).Info("Project deleted")
	return nil
}

func (s *projectService) Members(ctx context.Context, projectID primitive.ObjectID) ([]entity.MemberWithUser, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return s.memberRepo.ListByProject(ctx, projectID)
}

// AddMember upserts a membership by (project, user): re-adding an existing
// member updates the role instead of erroring or duplicating the row.
func (s *projectService) AddMember(ctx context.Context, projectID primitive.ObjectID, email string, role entity.Role) error {
	user, err := s.users.FindByEmail(ctx, CanonicalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	existing, err := s.memberRepo.FindByProjectAndUser(ctx, projectID, user.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Role == entity.RoleAdmin && role != entity.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, projectID); err != nil {
			return err
		}
	}

	return s.memberRepo.Upsert(ctx, projectID, user.ID, role)
}

func (s *projectService) UpdateMemberRole(ctx context.Context, projectID, memberUserID primitive.ObjectID, role entity.Role) error {
	existing, err := s.memberRepo.FindByProjectAndUser(ctx, projectID, memberUserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrMemberNotFound
	}

	if existing.Role == entity.RoleAdmin && role != entity.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, projectID); err != nil {
			return err
		}
	}

	return s.memberRepo.Upsert(ctx, projectID, memberUserID, role)
}

func (s *projectService) RemoveMember(ctx context.Context, projectID, memberUserID primitive.ObjectID) error {
	existing, err := s.memberRepo.FindByProjectAndUser(ctx, projectID, memberUserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrMemberNotFound
	}

	if existing.Role == entity.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, projectID); err != nil {
			return err
		}
	}

	deleted, err := s.memberRepo.Delete(ctx, projectID, memberUserID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrMemberNotFound
	}
	return nil
}

// ensureNotLastAdmin blocks demoting or removing the only admin left.
func (s *projectService) ensureNotLastAdmin(ctx context.Context, projectID primitive.ObjectID) error {
	admins, err := s.memberRepo.CountByProjectAndRole(ctx, projectID, entity.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastProjectAdmin
	}
	return nil
}
