package repository

import (
	"context"
	"time"

	"github.com/projectcamp/ms-go-projects/app/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	projectsCollection       = "projects"
	projectMembersCollection = "project_members"
)

type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(projectsCollection)}
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	res, err := r.col.InsertOne(ctx, project)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		project.ID = id
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*entity.Project, error) {
	project := &entity.Project{}
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(project)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	project.UpdatedAt = time.Now()
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": project.ID}, project)
	return err
}

// Delete removes the project document only; membership cleanup belongs to
// the caller's transaction.
func (r *ProjectRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type ProjectMemberRepository struct {
	col *mongo.Collection
}

func NewProjectMemberRepository(db *mongo.Database) *ProjectMemberRepository {
	return &ProjectMemberRepository{col: db.Collection(projectMembersCollection)}
}

// Upsert writes the membership keyed by (project_id, user_id). Re-adding an
// existing member updates the role in place; the compound unique index
// arbitrates concurrent inserts.
func (r *ProjectMemberRepository) Upsert(ctx context.Context, projectID, userID primitive.ObjectID, role entity.Role) error {
	now := time.Now()
	_, err := r.col.UpdateOne(ctx,
		bson.M{"project_id": projectID, "user_id": userID},
		bson.M{
			"$set": bson.M{"role": role, "updated_at": now},
			"$setOnInsert": bson.M{
				"project_id": projectID,
				"user_id":    userID,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (r *ProjectMemberRepository) FindByProjectAndUser(ctx context.Context, projectID, userID primitive.ObjectID) (*entity.ProjectMember, error) {
	member := &entity.ProjectMember{}
	err := r.col.FindOne(ctx, bson.M{"project_id": projectID, "user_id": userID}).Decode(member)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// ListByUser returns every project the user is a member of, joined with the
// user's role and the project's member count.
func (r *ProjectMemberRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]entity.ProjectListItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         projectsCollection,
			"localField":   "project_id",
			"foreignField": "_id",
			"as":           "project",
		}}},
		{{Key: "$unwind", Value: "$project"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         projectMembersCollection,
			"localField":   "project_id",
			"foreignField": "project_id",
			"as":           "members",
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"project":      1,
			"role":         1,
			"member_count": bson.M{"$size": "$members"},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []entity.ProjectListItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByProject returns the project's memberships joined with public user
// fields.
func (r *ProjectMemberRepository) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]entity.MemberWithUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"project_id": projectID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.M{
			"_id":        0,
			"user_id":    "$user._id",
			"username":   "$user.username",
			"email":      "$user.email",
			"full_name":  "$user.full_name",
			"avatar_url": "$user.avatar_url",
			"role":       1,
			"created_at": 1,
			"updated_at": 1,
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []entity.MemberWithUser{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *ProjectMemberRepository) Delete(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"project_id": projectID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *ProjectMemberRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"project_id": projectID})
	return err
}

// CountByProjectAndRole backs the last-admin protection.
func (r *ProjectMemberRepository) CountByProjectAndRole(ctx context.Context, projectID primitive.ObjectID, role entity.Role) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"project_id": projectID, "role": role})
}
