package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository handles database operations related to posts.
type PostRepository struct {
	collection
}

func NewPostRepository(db *mongo.Database, timeout time.Duration) *PostRepository {
	return &PostRepository{collection: newCollection(db, "posts", timeout)}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		logrus.WithError(err).Error("Failed to insert post")
		return nil, storeError("insert post", err)
	}
	return post, nil
}

func (r *PostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var post models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, storeError(fmt.Sprintf("find post %s", id.Hex()), err)
	}
	return &post, nil
}

// GetPostsByOwners returns the posts of every listed owner. ObjectIDs grow with
// insertion, so sorting on _id yields insertion order.
func (r *PostRepository) GetPostsByOwners(ctx context.Context, owners []primitive.ObjectID) ([]models.Post, error) {
	if len(owners) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"user": bson.M{"$in": owners}}, opts)
	if err != nil {
		return nil, storeError("find posts by owners", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, storeError("decode posts", err)
	}
	return posts, nil
}

func (r *PostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeError("find posts", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, storeError("decode posts", err)
	}
	return posts, nil
}

func (r *PostRepository) ReplacePost(ctx context.Context, post *models.Post) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"postID": post.ID.Hex(),
			"error":  err,
		}).Error("Failed to replace post")
		return storeError("replace post", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace post %s: %w", post.ID.Hex(), ErrNotFound)
	}
	return nil
}
