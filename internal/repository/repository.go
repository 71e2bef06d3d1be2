package repository

import (
	"context"
	"errors"

	"github.com/Dias221467/friendconnect/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches the requested key.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnavailable wraps driver, network and timeout failures. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")
)

// UserStore is the keyed user collection.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	ReplaceUser(ctx context.Context, user *models.User) error
}

// PostStore is the keyed post collection.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// GetPostsByOwners returns posts owned by any of owners, in insertion order.
	GetPostsByOwners(ctx context.Context, owners []primitive.ObjectID) ([]models.Post, error)
	// GetAllPosts returns every post in insertion order.
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	ReplacePost(ctx context.Context, post *models.Post) error
}

// CommentStore is the keyed comment collection.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	// GetCommentsByPosts returns comments attached to any of posts, oldest first.
	GetCommentsByPosts(ctx context.Context, posts []primitive.ObjectID) ([]models.Comment, error)
}

// GroupStore is the keyed group collection.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Group, error)
	GetAllGroups(ctx context.Context) ([]models.Group, error)
	ReplaceGroup(ctx context.Context, group *models.Group) error
}

// Store bundles the four collections the services operate on.
type Store struct {
	Users    UserStore
	Posts    PostStore
	Comments CommentStore
	Groups   GroupStore
}
