package controller

import (
	"errors"
	"net/http"

	"github.com/projectcamp/ms-go-projects/app/dto"
	"github.com/projectcamp/ms-go-projects/app/entity"
	"github.com/projectcamp/ms-go-projects/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectController struct {
	projectService service.ProjectService
}

func NewProjectController(projectService service.ProjectService) *ProjectController {
	return &ProjectController{projectService: projectService}
}

func (c *ProjectController) List(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	items, err := c.projectService.List(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("List projects failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, dto.FromProjectListItems(items), "projects retrieved successfully")
}

func (c *ProjectController) Get(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}

	project, err := c.projectService.Get(ctx.Request().Context(), projectID)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return respondError(ctx, http.StatusNotFound, "project not found")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("Get project failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, dto.FromProject(project), "project retrieved successfully")
}

func (c *ProjectController) Create(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	req := &dto.CreateProjectRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind create project request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("user_id", userID.Hex()).Info("Create project request received")
	project, err := c.projectService.Create(ctx.Request().Context(), userID, req)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Create project failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusCreated, dto.FromProject(project), "project created successfully")
}

func (c *ProjectController) Update(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}

	req := &dto.UpdateProjectRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update project request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	project, err := c.projectService.Update(ctx.Request().Context(), projectID, req)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return respondError(ctx, http.StatusNotFound, "project not found")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("Update project failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, dto.FromProject(project), "project updated successfully")
}

func (c *ProjectController) Delete(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}

	if err := c.projectService.Delete(ctx.Request().Context(), projectID); err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return respondError(ctx, http.StatusNotFound, "project not found")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("Delete project failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, nil, "project deleted successfully")
}

func (c *ProjectController) ListMembers(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}

	members, err := c.projectService.Members(ctx.Request().Context(), projectID)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return respondError(ctx, http.StatusNotFound, "project not found")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("List members failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, dto.FromMembers(members), "project members retrieved successfully")
}

func (c *ProjectController) AddMember(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}

	req := &dto.AddMemberRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind add member request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	role, _ := entity.ParseRole(req.Role)
	logrus.WithFields(logrus.Fields{
		"project_id": projectID.Hex(),
		"role":       role.String(),
	}).Info("Add member request received")

	err := c.projectService.AddMember(ctx.Request().Context(), projectID, req.Email, role)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return respondError(ctx, http.StatusNotFound, "user not found")
		}
		if errors.Is(err, service.ErrLastProjectAdmin) {
			return respondError(ctx, http.StatusConflict, "project must keep at least one admin")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("Add member failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, nil, "member added to project successfully")
}

func (c *ProjectController) UpdateMemberRole(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}
	memberUserID, err := primitive.ObjectIDFromHex(ctx.Param("userId"))
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, "invalid user id")
	}

	req := &dto.UpdateMemberRoleRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update member role request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	role, _ := entity.ParseRole(req.Role)
	err = c.projectService.UpdateMemberRole(ctx.Request().Context(), projectID, memberUserID, role)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			return respondError(ctx, http.StatusNotFound, "project member not found")
		}
		if errors.Is(err, service.ErrLastProjectAdmin) {
			return respondError(ctx, http.StatusConflict, "project must keep at least one admin")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("Update member role failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, nil, "member role updated successfully")
}

func (c *ProjectController) RemoveMember(ctx echo.Context) error {
	projectID, ok := pathProjectID(ctx)
	if !ok {
		return respondError(ctx, http.StatusBadRequest, "invalid project id")
	}
	memberUserID, err := primitive.ObjectIDFromHex(ctx.Param("userId"))
	if err != nil {
		return respondError(ctx, http.StatusBadRequest, "invalid user id")
	}

	err = c.projectService.RemoveMember(ctx.Request().Context(), projectID, memberUserID)
	if err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			return respondError(ctx, http.StatusNotFound, "project member not found")
		}
		if errors.Is(err, service.ErrLastProjectAdmin) {
			return respondError(ctx, http.StatusConflict, "project must keep at least one admin")
		}
		logrus.WithError(err).WithField("project_id", projectID.Hex()).Error("Remove member failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, nil, "member removed from project successfully")
}

func pathProjectID(ctx echo.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("projectId"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
