package controller

import (
	"errors"
	"net/http"

	"github.com/projectcamp/ms-go-projects/app/dto"
	"github.com/projectcamp/ms-go-projects/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthController struct {
	userAuthService service.UserAuthService
	cookies         *CookieHelper
}

func NewAuthController(userAuthService service.UserAuthService, cookies *CookieHelper) *AuthController {
	return &AuthController{
		userAuthService: userAuthService,
		cookies:         cookies,
	}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req := &dto.RegisterRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.userAuthService.Register(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return respondError(ctx, http.StatusConflict, "user with email or username already exists")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return respondError(ctx, http.StatusBadRequest, err.Error())
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return respondInternalError(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return respond(ctx, http.StatusCreated, map[string]any{"user": user},
		"user registered successfully, verification email sent")
}

func (c *AuthController) VerifyEmail(ctx echo.Context) error {
	token := ctx.Param("token")

	logrus.Info("Verify email request received")
	if err := c.userAuthService.VerifyEmail(ctx.Request().Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			logrus.Warn("Verify email failed: invalid or expired token")
			return respondError(ctx, http.StatusBadRequest, "token is invalid or expired")
		}
		logrus.WithError(err).Error("Verify email failed")
		return respondInternalError(ctx)
	}

	logrus.Info("Email verified")
	return respond(ctx, http.StatusOK, nil, "email verified successfully")
}

func (c *AuthController) ResendEmailVerification(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	logrus.WithField("user_id", userID.Hex()).Info("Resend verification request received")
	if err := c.userAuthService.ResendEmailVerification(ctx.Request().Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return respondError(ctx, http.StatusNotFound, "user not found")
		}
		if errors.Is(err, service.ErrEmailAlreadyVerified) {
			logrus.WithField("user_id", userID.Hex()).Warn("Resend verification failed: already verified")
			return respondError(ctx, http.StatusConflict, "email is already verified")
		}
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Resend verification failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, nil, "verification email sent")
}

func (c *AuthController) Login(ctx echo.Context) error {
	req := &dto.LoginRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	result, err := c.userAuthService.Login(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return respondError(ctx, http.StatusUnauthorized, "invalid credentials")
		}
		if errors.Is(err, service.ErrEmailNotVerified) {
			logrus.WithField("email", req.Email).Warn("Login failed: email not verified")
			return respondError(ctx, http.StatusForbidden, "please verify your email first")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return respondInternalError(ctx)
	}

	c.cookies.SetAuthCookies(ctx, result.AccessToken, result.RefreshToken)

	logrus.WithField("email", req.Email).Info("Login successful")
	return respond(ctx, http.StatusOK, result, "user logged in successfully")
}

func (c *AuthController) Logout(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	logrus.WithField("user_id", userID.Hex()).Info("Logout request received")
	if err := c.userAuthService.Logout(ctx.Request().Context(), userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Logout failed")
		return respondInternalError(ctx)
	}

	c.cookies.ClearAuthCookies(ctx)

	logrus.WithField("user_id", userID.Hex()).Info("Logout successful")
	return respond(ctx, http.StatusOK, nil, "user logged out successfully")
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	// Cookie first, body fallback for non-browser clients.
	refreshToken := c.cookies.GetRefreshToken(ctx)
	if refreshToken == "" {
		req := &dto.RefreshTokenRequest{}
		if err := ctx.Bind(req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return respondError(ctx, http.StatusUnauthorized, "refresh token is missing")
	}

	logrus.Info("Refresh token request received")
	result, err := c.userAuthService.Refresh(ctx.Request().Context(), refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			logrus.Warn("Refresh failed: invalid or expired token")
			return respondError(ctx, http.StatusUnauthorized, "invalid or expired refresh token")
		}
		logrus.WithError(err).Error("Refresh failed")
		return respondInternalError(ctx)
	}

	c.cookies.SetAuthCookies(ctx, result.AccessToken, result.RefreshToken)

	logrus.Info("Refresh successful")
	return respond(ctx, http.StatusOK, result, "access token refreshed successfully")
}

func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	req := &dto.ForgotPasswordRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err := c.userAuthService.ForgotPassword(ctx.Request().Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			// Uniform answer; the endpoint must not confirm which emails exist.
			logrus.WithField("email", req.Email).Debug("Password reset requested for unknown email")
			return respond(ctx, http.StatusOK, nil, "if the email exists, a reset link has been sent")
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Forgot password failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, nil, "if the email exists, a reset link has been sent")
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	token := ctx.Param("token")

	req := &dto.ResetPasswordRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.Info("Reset password request received")
	if err := c.userAuthService.ResetPassword(ctx.Request().Context(), token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			logrus.Warn("Reset password failed: invalid or expired token")
			return respondError(ctx, http.StatusBadRequest, "token is invalid or expired")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.Warn("Reset password failed: weak password")
			return respondError(ctx, http.StatusBadRequest, err.Error())
		}
		logrus.WithError(err).Error("Reset password failed")
		return respondInternalError(ctx)
	}

	logrus.Info("Password reset successful")
	return respond(ctx, http.StatusOK, nil, "password reset successfully")
}

func (c *AuthController) ChangePassword(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	req := &dto.ChangePasswordRequest{}
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return respondError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := req.Validate(); err != nil {
		return respondError(ctx, http.StatusBadRequest, err.Error())
	}

	logrus.WithField("user_id", userID.Hex()).Info("Change password request received")
	err := c.userAuthService.ChangePassword(ctx.Request().Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return respondError(ctx, http.StatusNotFound, "user not found")
		}
		if errors.Is(err, service.ErrPasswordMismatch) {
			logrus.WithField("user_id", userID.Hex()).Warn("Change password failed: old password mismatch")
			return respondError(ctx, http.StatusBadRequest, "old password is incorrect")
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("user_id", userID.Hex()).Warn("Change password failed: weak password")
			return respondError(ctx, http.StatusBadRequest, err.Error())
		}
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Change password failed")
		return respondInternalError(ctx)
	}

	logrus.WithField("user_id", userID.Hex()).Info("Password changed")
	return respond(ctx, http.StatusOK, nil, "password changed successfully")
}

func (c *AuthController) CurrentUser(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return respondError(ctx, http.StatusUnauthorized, "unauthorized")
	}

	user, err := c.userAuthService.CurrentUser(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return respondError(ctx, http.StatusNotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Current user lookup failed")
		return respondInternalError(ctx)
	}

	return respond(ctx, http.StatusOK, map[string]any{"user": user}, "user fetched successfully")
}

func currentUserID(ctx echo.Context) (primitive.ObjectID, bool) {
	userID, ok := ctx.Get("user_id").(primitive.ObjectID)
	if !ok {
		logrus.Warn("Missing user_id in request context")
	}
	return userID, ok
}

func respond(ctx echo.Context, status int, data any, message string) error {
	return ctx.JSON(status, dto.NewResponse(status, data, message))
}

func respondError(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, dto.NewError(status, message))
}

func respondInternalError(ctx echo.Context) error {
	return respondError(ctx, http.StatusInternalServerError, "internal server error")
}
