package services

import (
	"errors"
	"fmt"

	"github.com/Dias221467/friendconnect/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrAuthFailure covers both an unknown email and a wrong password.
	ErrAuthFailure    = errors.New("invalid email or password")
	ErrSelfRequest    = errors.New("cannot send a friend request to yourself")
	ErrAlreadyRelated = errors.New("a friend request from this user is already pending")
	ErrNoSuchEntity   = errors.New("no such entity")
	ErrNoSuchUser     = fmt.Errorf("%w: user", ErrNoSuchEntity)
	ErrTransientStore = errors.New("store temporarily unavailable")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
)

// storeErr maps repository errors onto the service taxonomy.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNoSuchEntity)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrTransientStore, err)
	}
}

func lockErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrTransientStore, err)
}

func userKey(id primitive.ObjectID) string  { return "user:" + id.Hex() }
func postKey(id primitive.ObjectID) string  { return "post:" + id.Hex() }
func groupKey(id primitive.ObjectID) string { return "group:" + id.Hex() }
