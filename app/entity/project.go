package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is a workspace owned by its admin members. The creator is granted
// an admin membership in the same transaction that creates the project.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"created_by"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// ProjectMember links one user to one project with exactly one role.
// There is at most one document per (project_id, user_id) pair; writes go
// through an upsert against the compound unique index.
type ProjectMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID primitive.ObjectID `bson:"project_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Role      Role               `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// ProjectListItem is the aggregation read model for "projects I belong to":
// the project joined with the caller's role and the member count.
type ProjectListItem struct {
	Project     Project `bson:"project"`
	Role        Role    `bson:"role"`
	MemberCount int64   `bson:"member_count"`
}

// MemberWithUser is the aggregation read model for a project's member list:
// the membership joined with a public slice of the user document.
type MemberWithUser struct {
	UserID    primitive.ObjectID `bson:"user_id"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	FullName  string             `bson:"full_name,omitempty"`
	AvatarURL string             `bson:"avatar_url,omitempty"`
	Role      Role               `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}
