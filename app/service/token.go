package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/projectcamp/ms-go-projects/app/entity"
	"github.com/projectcamp/ms-go-projects/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims ride in the short-lived access token and carry the identity
// fields handlers need without a user lookup.
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the user id. Everything else is re-read from the
// user record when the token is redeemed.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TemporaryToken is a one-shot token for email verification or password
// reset. Plain goes to the user; only Hash and ExpiresAt are persisted.
type TemporaryToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// TokenService issues and verifies the three token families: access tokens
// (short, stateless), refresh tokens (long, single slot per user), and
// temporary tokens (opaque, hashed at rest).
type TokenService struct {
	cfg *config.Config
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

func (s *TokenService) IssueAccessToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := &AccessClaims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.Hex(),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.AccessTokenSecret))
}

func (s *TokenService) IssueRefreshToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := &RefreshClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.Hex(),
			// jti keeps rotated tokens distinct even within one second
			ID: uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.RefreshTokenSecret))
}

func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.verify(tokenString, claims, s.cfg.AccessTokenSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.verify(tokenString, claims, s.cfg.RefreshTokenSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) verify(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidOrExpiredToken
	}
	return nil
}

// NewTemporaryToken generates a random opaque token plus its sha256 hash.
// Lookups always hash the presented plain value; the plain form is never
// stored or logged.
func (s *TokenService) NewTemporaryToken() (*TemporaryToken, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	plain := hex.EncodeToString(buf)
	return &TemporaryToken{
		Plain:     plain,
		Hash:      HashToken(plain),
		ExpiresAt: time.Now().Add(s.cfg.TempTokenTTL),
	}, nil
}

// HashToken maps a plain temporary token to its at-rest form.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
