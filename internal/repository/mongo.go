package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// collection wraps a mongo collection with the per-call timeout applied at the store boundary.
type collection struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newCollection(db *mongo.Database, name string, timeout time.Duration) collection {
	return collection{coll: db.Collection(name), timeout: timeout}
}

func (c collection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// storeError translates driver errors into the repository error set.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
}

// NewMongoStore builds the Mongo-backed store on db.
func NewMongoStore(db *mongo.Database, timeout time.Duration) *Store {
	return &Store{
		Users:    NewUserRepository(db, timeout),
		Posts:    NewPostRepository(db, timeout),
		Comments: NewCommentRepository(db, timeout),
		Groups:   NewGroupRepository(db, timeout),
	}
}
