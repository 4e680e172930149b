package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/projectcamp/ms-go-projects/app/dto"
	"github.com/projectcamp/ms-go-projects/app/entity"
	"github.com/projectcamp/ms-go-projects/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*service.AccessClaims, error)
}

type roleGuard interface {
	RequireRole(ctx context.Context, userID, projectID primitive.ObjectID, allowed ...entity.Role) (entity.Role, error)
}

type AuthMiddleware struct {
	tokens accessTokenVerifier
	guard  roleGuard
}

func NewAuthMiddleware(tokens accessTokenVerifier, guard roleGuard) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, guard: guard}
}

// RequireAuth authenticates the request from the accessToken cookie, with
// an Authorization bearer header fallback for non-browser clients.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := accessTokenFromRequest(c)
		if tokenString == "" {
			logrus.Debug("Missing access token")
			return unauthorized(c, "missing access token")
		}

		claims, err := m.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return unauthorized(c, "invalid or expired token")
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			logrus.Debug("Malformed user id in access token")
			return unauthorized(c, "invalid or expired token")
		}

		c.Set("user_id", userID)
		c.Set("user_email", claims.Email)
		c.Set("user_name", claims.Username)

		return next(c)
	}
}

// RequireProjectRole runs the authorization guard ahead of the handler: the
// caller must hold one of the allowed roles on the :projectId project. The
// resolved role is stored under "project_role".
func (m *AuthMiddleware) RequireProjectRole(allowed ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get("user_id").(primitive.ObjectID)
			if !ok {
				return unauthorized(c, "unauthorized")
			}

			projectID, err := primitive.ObjectIDFromHex(c.Param("projectId"))
			if err != nil {
				return c.JSON(http.StatusBadRequest,
					dto.NewError(http.StatusBadRequest, "invalid project id"))
			}

			role, err := m.guard.RequireRole(c.Request().Context(), userID, projectID, allowed...)
			switch {
			case err == nil:
			case err == service.ErrProjectNotFound:
				return c.JSON(http.StatusNotFound,
					dto.NewError(http.StatusNotFound, "project not found"))
			case err == service.ErrForbidden:
				logrus.WithFields(logrus.Fields{
					"user_id":    userID.Hex(),
					"project_id": projectID.Hex(),
					"role":       role.String(),
				}).Warn("Project operation forbidden")
				return c.JSON(http.StatusForbidden,
					dto.NewError(http.StatusForbidden, "insufficient permissions"))
			default:
				logrus.WithError(err).Error("Role resolution failed")
				return c.JSON(http.StatusInternalServerError,
					dto.NewError(http.StatusInternalServerError, "internal server error"))
			}

			c.Set("project_role", role)
			return next(c)
		}
	}
}

func accessTokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, dto.NewError(http.StatusUnauthorized, message))
}
