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

// GroupRepository handles database operations related to groups.
type GroupRepository struct {
	collection
}

func NewGroupRepository(db *mongo.Database, timeout time.Duration) *GroupRepository {
	return &GroupRepository{collection: newCollection(db, "groups", timeout)}
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, group); err != nil {
		logrus.WithError(err).Error("Failed to insert group")
		return nil, storeError("insert group", err)
	}
	logrus.WithField("groupID", group.ID.Hex()).Info("Group inserted successfully")
	return group, nil
}

func (r *GroupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var group models.Group
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&group); err != nil {
		return nil, storeError(fmt.Sprintf("find group %s", id.Hex()), err)
	}
	return &group, nil
}

func (r *GroupRepository) GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *GroupRepository) GetAllGroups(ctx context.Context) ([]models.Group, error) {
	return r.find(ctx, bson.M{})
}

func (r *GroupRepository) find(ctx context.Context, filter bson.M) ([]models.Group, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("find groups", err)
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, storeError("decode groups", err)
	}
	return groups, nil
}

func (r *GroupRepository) ReplaceGroup(ctx context.Context, group *models.Group) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": group.ID}, group)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"groupID": group.ID.Hex(),
			"error":   err,
		}).Error("Failed to replace group")
		return storeError("replace group", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace group %s: %w", group.ID.Hex(), ErrNotFound)
	}
	return nil
}
