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
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{collection: newCollection(db, "users", timeout)}
}

// CreateUser inserts a new user. The unique email index rejects duplicates with ErrDuplicateKey.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, storeError("insert user", err)
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByEmail retrieves a user by email (exact match).
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, storeError("find user by email", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, storeError(fmt.Sprintf("find user %s", id.Hex()), err)
	}
	return &user, nil
}

// GetUsersByIDs fetches the users whose ids are listed. Missing ids are skipped.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeError("find users by ids", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, storeError("decode users", err)
	}
	return users, nil
}

func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, storeError("find users", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, storeError("decode user", err)
		}
		users = append(users, &user)
	}
	return users, storeError("iterate users", cursor.Err())
}

// ReplaceUser overwrites the stored document with user.
func (r *UserRepository) ReplaceUser(ctx context.Context, user *models.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": user.ID.Hex(),
			"error":  err,
		}).Error("Failed to replace user")
		return storeError("replace user", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace user %s: %w", user.ID.Hex(), ErrNotFound)
	}
	return nil
}
