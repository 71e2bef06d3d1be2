package repository

import (
	"context"
	"time"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository handles database operations related to comments.
type CommentRepository struct {
	collection
}

func NewCommentRepository(db *mongo.Database, timeout time.Duration) *CommentRepository {
	return &CommentRepository{collection: newCollection(db, "comments", timeout)}
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		logrus.WithError(err).Error("Failed to insert comment")
		return nil, storeError("insert comment", err)
	}
	return comment, nil
}

func (r *CommentRepository) GetCommentsByPosts(ctx context.Context, posts []primitive.ObjectID) ([]models.Comment, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "time", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"post": bson.M{"$in": posts}}, opts)
	if err != nil {
		return nil, storeError("find comments by posts", err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, storeError("decode comments", err)
	}
	return comments, nil
}
