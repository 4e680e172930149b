package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projectcamp/ms-go-projects/app/dto"
	"github.com/projectcamp/ms-go-projects/app/entity"
	"github.com/projectcamp/ms-go-projects/app/mail"
	"github.com/projectcamp/ms-go-projects/app/repository"
	"github.com/projectcamp/ms-go-projects/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists            = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email is not verified")
	ErrEmailAlreadyVerified  = errors.New("email is already verified")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrPasswordMismatch      = errors.New("old password is incorrect")
	ErrWeakPassword          = errors.New("password does not meet policy requirements")
)

const defaultAvatarURL = "https://placehold.co/600x400"

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	FindByVerificationToken(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	FindByResetToken(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

// UserAuthService drives a user's auth lifecycle:
// unregistered -> pending-verification -> verified.
type UserAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*entity.PublicUser, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendEmailVerification(ctx context.Context, userID primitive.ObjectID) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResult, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID primitive.ObjectID) (*entity.PublicUser, error)
}

type AsyncRunner func(task func())

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	userRepo    userRepository
	tokens      *TokenService
	mailer      mail.Mailer
	cfg         *config.Config
	asyncRunner AsyncRunner
}

func NewUserAuthService(
	userRepo userRepository,
	tokens *TokenService,
	mailer mail.Mailer,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) UserAuthServiceOption {
	return func(s *userAuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *userAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*entity.PublicUser, error) {
	email := CanonicalizeEmail(req.Email)
	username := CanonicalizeUsername(req.Username)

	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if err = s.cfg.PasswordPolicy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	temp, err := s.tokens.NewTemporaryToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Username:                username,
		Email:                   email,
		FullName:                req.FullName,
		AvatarURL:               defaultAvatarURL,
		PasswordHash:            string(hashedPassword),
		IsEmailVerified:         false,
		EmailVerificationToken:  temp.Hash,
		EmailVerificationExpiry: &temp.ExpiresAt,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		// The unique index arbitrates the race the existence check misses.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.dispatchMail(verificationMail(user, s.verificationLink(temp.Plain)))

	return user.Public(), nil
}

func (s *userAuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	user, err := s.userRepo.FindByVerificationToken(ctx, HashToken(token), time.Now())
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidOrExpiredToken
	}

	// Single use: redemption clears the token fields.
	user.IsEmailVerified = true
	user.EmailVerificationToken = ""
	user.EmailVerificationExpiry = nil

	return s.userRepo.Update(ctx, user)
}

func (s *userAuthService) ResendEmailVerification(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	temp, err := s.tokens.NewTemporaryToken()
	if err != nil {
		return err
	}

	user.EmailVerificationToken = temp.Hash
	user.EmailVerificationExpiry = &temp.ExpiresAt
	if err = s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.dispatchMail(verificationMail(user, s.verificationLink(temp.Plain)))
	return nil
}

func (s *userAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.issueTokenPair(ctx, user)
}

func (s *userAuthService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	user.RefreshToken = ""
	return s.userRepo.Update(ctx, user)
}

func (s *userAuthService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Signature alone is not enough: the presented token must be the one
	// currently persisted, or it was invalidated by a later login/logout.
	if user == nil || user.RefreshToken != refreshToken {
		return nil, ErrInvalidOrExpiredToken
	}

	return s.issueTokenPair(ctx, user)
}

func (s *userAuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, CanonicalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	temp, err := s.tokens.NewTemporaryToken()
	if err != nil {
		return err
	}

	user.ForgotPasswordToken = temp.Hash
	user.ForgotPasswordExpiry = &temp.ExpiresAt
	if err = s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.dispatchMail(passwordResetMail(user, s.resetLink(temp.Plain)))
	return nil
}

func (s *userAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	user, err := s.userRepo.FindByResetToken(ctx, HashToken(token), time.Now())
	if err != nil {
		return err
	}
	if user == nil {
		return ErrInvalidOrExpiredToken
	}

	if err = s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	user.ForgotPasswordToken = ""
	user.ForgotPasswordExpiry = nil
	// A password reset ends the active session.
	user.RefreshToken = ""

	return s.userRepo.Update(ctx, user)
}

func (s *userAuthService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrPasswordMismatch
	}

	if err = s.cfg.PasswordPolicy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	user.RefreshToken = ""

	return s.userRepo.Update(ctx, user)
}

func (s *userAuthService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*entity.PublicUser, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.Public(), nil
}

// issueTokenPair mints a fresh access+refresh pair and persists the refresh
// token as the user's single active one.
func (s *userAuthService) issueTokenPair(ctx context.Context, user *entity.User) (*dto.LoginResult, error) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	user.RefreshToken = refreshToken
	if err = s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *userAuthService) dispatchMail(msg *mail.Message) {
	s.asyncRunner(func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.mailer.Send(sendCtx, msg); err != nil {
			logrus.WithError(err).WithField("to", msg.To).Error("failed to send mail")
		}
	})
}

func (s *userAuthService) verificationLink(plainToken string) string {
	return s.cfg.PublicBaseURL + "/api/v1/auth/verify-email/" + plainToken
}

func (s *userAuthService) resetLink(plainToken string) string {
	return s.cfg.ForgotPasswordRedirectURL + "/" + plainToken
}

func verificationMail(user *entity.User, link string) *mail.Message {
	return &mail.Message{
		To:      user.Email,
		Subject: "Please verify your email",
		Content: mail.Content{
			Name:         user.Username,
			Intro:        "Welcome to the platform!",
			Instructions: "To verify your email, please click below:",
			ButtonText:   "Verify Email",
			ButtonLink:   link,
		},
	}
}

func passwordResetMail(user *entity.User, link string) *mail.Message {
	return &mail.Message{
		To:      user.Email,
		Subject: "Password reset request",
		Content: mail.Content{
			Name:         user.Username,
			Intro:        "You requested to reset your password.",
			Instructions: "Click the button below to reset your password:",
			ButtonText:   "Reset Password",
			ButtonLink:   link,
			Outro:        "If you didn't request this, please ignore this email.",
		},
	}
}
