package service_test

import (
	"context"
	"time"

	"github.com/projectcamp/ms-go-projects/app/entity"
	"github.com/projectcamp/ms-go-projects/app/mail"
	"github.com/projectcamp/ms-go-projects/app/repository"
	"github.com/projectcamp/ms-go-projects/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes plugged into the repository seams the services declare.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByVerificationToken(_ context.Context, hash string, now time.Time) (*entity.User, error) {
	for _, u := range r.users {
		if u.EmailVerificationToken == hash &&
			u.EmailVerificationExpiry != nil && u.EmailVerificationExpiry.After(now) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByResetToken(_ context.Context, hash string, now time.Time) (*entity.User, error) {
	for _, u := range r.users {
		if u.ForgotPasswordToken == hash &&
			u.ForgotPasswordExpiry != nil && u.ForgotPasswordExpiry.After(now) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type fakeProjectRepo struct {
	projects map[primitive.ObjectID]*entity.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[primitive.ObjectID]*entity.Project{}}
}

func (r *fakeProjectRepo) Create(_ context.Context, project *entity.Project) error {
	project.ID = primitive.NewObjectID()
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) FindByID(_ context.Context, id primitive.ObjectID) (*entity.Project, error) {
	if p, ok := r.projects[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *entity.Project) error {
	project.UpdatedAt = time.Now()
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	if _, ok := r.projects[id]; !ok {
		return false, nil
	}
	delete(r.projects, id)
	return true, nil
}

type memberKey struct {
	project primitive.ObjectID
	user    primitive.ObjectID
}

type fakeMemberRepo struct {
	members  map[memberKey]*entity.ProjectMember
	projects *fakeProjectRepo
	users    *fakeUserRepo
}

func newFakeMemberRepo(projects *fakeProjectRepo, users *fakeUserRepo) *fakeMemberRepo {
	return &fakeMemberRepo{
		members:  map[memberKey]*entity.ProjectMember{},
		projects: projects,
		users:    users,
	}
}

func (r *fakeMemberRepo) Upsert(_ context.Context, projectID, userID primitive.ObjectID, role entity.Role) error {
	key := memberKey{project: projectID, user: userID}
	now := time.Now()
	if existing, ok := r.members[key]; ok {
		existing.Role = role
		existing.UpdatedAt = now
		return nil
	}
	r.members[key] = &entity.ProjectMember{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *fakeMemberRepo) FindByProjectAndUser(_ context.Context, projectID, userID primitive.ObjectID) (*entity.ProjectMember, error) {
	if m, ok := r.members[memberKey{project: projectID, user: userID}]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, nil
}

func (r *fakeMemberRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]entity.ProjectListItem, error) {
	items := []entity.ProjectListItem{}
	for key, m := range r.members {
		if key.user != userID {
			continue
		}
		project, ok := r.projects.projects[key.project]
		if !ok {
			continue
		}
		var count int64
		for other := range r.members {
			if other.project == key.project {
				count++
			}
		}
		items = append(items, entity.ProjectListItem{
			Project:     *project,
			Role:        m.Role,
			MemberCount: count,
		})
	}
	return items, nil
}

func (r *fakeMemberRepo) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]entity.MemberWithUser, error) {
	members := []entity.MemberWithUser{}
	for key, m := range r.members {
		if key.project != projectID {
			continue
		}
		user, ok := r.users.users[key.user]
		if !ok {
			continue
		}
		members = append(members, entity.MemberWithUser{
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FullName:  user.FullName,
			AvatarURL: user.AvatarURL,
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}
	return members, nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	key := memberKey{project: projectID, user: userID}
	if _, ok := r.members[key]; !ok {
		return false, nil
	}
	delete(r.members, key)
	return true, nil
}

func (r *fakeMemberRepo) DeleteByProject(_ context.Context, projectID primitive.ObjectID) error {
	for key := range r.members {
		if key.project == projectID {
			delete(r.members, key)
		}
	}
	return nil
}

func (r *fakeMemberRepo) CountByProjectAndRole(_ context.Context, projectID primitive.ObjectID, role entity.Role) (int64, error) {
	var count int64
	for key, m := range r.members {
		if key.project == projectID && m.Role == role {
			count++
		}
	}
	return count, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeMailer struct {
	messages []*mail.Message
}

func (m *fakeMailer) Send(_ context.Context, msg *mail.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *fakeMailer) last() *mail.Message {
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

func syncRunner(task func()) { task() }

func testConfig() *config.Config {
	return &config.Config{
		Environment:               config.EnvDevelopment,
		AccessTokenSecret:         "access-test-secret",
		AccessTokenTTL:            15 * time.Minute,
		RefreshTokenSecret:        "refresh-test-secret",
		RefreshTokenTTL:           7 * 24 * time.Hour,
		TempTokenTTL:              20 * time.Minute,
		PublicBaseURL:             "http://localhost:8080",
		ForgotPasswordRedirectURL: "http://localhost:3000/reset-password",
		PasswordPolicy: config.PasswordPolicy{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumber:    true,
			RequireSpecial:   false,
		},
	}
}
