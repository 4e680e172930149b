package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. Username and email are stored lowercase and
// are unique across the users collection. PasswordHash is the only form the
// password ever takes at rest, and the verification/reset token fields hold
// sha256 hashes, never the plain values sent to the user.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	FullName     string             `bson:"full_name,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty"`
	PasswordHash string             `bson:"password_hash"`

	IsEmailVerified bool `bson:"is_email_verified"`

	// Single active refresh token; overwritten on every login/refresh,
	// cleared on logout.
	RefreshToken string `bson:"refresh_token,omitempty"`

	EmailVerificationToken  string     `bson:"email_verification_token,omitempty"`
	EmailVerificationExpiry *time.Time `bson:"email_verification_expiry,omitempty"`
	ForgotPasswordToken     string     `bson:"forgot_password_token,omitempty"`
	ForgotPasswordExpiry    *time.Time `bson:"forgot_password_expiry,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// PublicUser is the user snapshot returned to clients. No credential or
// token field ever appears here.
type PublicUser struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:              u.ID.Hex(),
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		AvatarURL:       u.AvatarURL,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
