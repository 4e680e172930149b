package repository

import (
	"context"
	"errors"
	"time"

	"github.com/projectcamp/ms-go-projects/app/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateKey is returned when a write violates a unique index
// (users.username, users.email, or the (project_id, user_id) membership
// index).
var ErrDuplicateKey = errors.New("duplicate key")

const usersCollection = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByUsernameOrEmail backs the registration conflict check; both fields
// are expected pre-normalized.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
}

// FindByVerificationToken looks a user up by the sha256 hash of a pending
// email-verification token. The expiry window is part of the filter, so an
// expired token is indistinguishable from an unknown one.
func (r *UserRepository) FindByVerificationToken(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.M{
		"email_verification_token":  hash,
		"email_verification_expiry": bson.M{"$gt": now},
	})
}

// FindByResetToken mirrors FindByVerificationToken for the password-reset
// token fields.
func (r *UserRepository) FindByResetToken(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, bson.M{
		"forgot_password_token":  hash,
		"forgot_password_expiry": bson.M{"$gt": now},
	})
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	user := &entity.User{}
	err := r.col.FindOne(ctx, filter).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
