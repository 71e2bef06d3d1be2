package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	FirstName  string            `json:"firstName"`
	LastName   string            `json:"lastName"`
	Bio        string            `json:"bio"`
	Visibility models.Visibility `json:"visibility"`
}

// UserView is another user's profile as seen by the viewer.
type UserView struct {
	models.Profile
	Relation string `json:"relation"`
}

// UserService encapsulates profile and listing operations.
type UserService struct {
	users   repository.UserStore
	locker  lock.Locker
	friends *FriendService
}

// NewUserService creates a new instance of UserService.
func NewUserService(users repository.UserStore, locker lock.Locker, friends *FriendService) *UserService {
	return &UserService{
		users:   users,
		locker:  locker,
		friends: friends,
	}
}

func (s *UserService) load(ctx context.Context, op string, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, storeErr(op, err)
	}
	return user, nil
}

// GetProfile returns the caller's own profile.
func (s *UserService) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	user, err := s.load(ctx, "get profile", id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// EditProfile updates name, bio and visibility and returns the updated user.
func (s *UserService) EditProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, fmt.Errorf("%w: first name is required", ErrInvalidInput)
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if !in.Visibility.Valid() {
		return nil, fmt.Errorf("%w: visibility must be PUBLIC or PRIVATE", ErrInvalidInput)
	}

	release, err := s.locker.Lock(ctx, userKey(id))
	if err != nil {
		return nil, lockErr("edit profile", err)
	}
	defer release()

	user, err := s.load(ctx, "edit profile", id)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Bio = in.Bio
	user.Visibility = in.Visibility

	if err := s.users.ReplaceUser(ctx, user); err != nil {
		logrus.WithFields(logrus.Fields{"userID": id.Hex(), "error": err}).Error("Failed to update profile")
		return nil, storeErr("edit profile", err)
	}

	logrus.WithField("userID", id.Hex()).Info("Profile updated")
	return user, nil
}

// ListUsers returns the display identity of every user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// GetUser returns the profile of id as seen by viewer. A private profile shows only
// the display identity to anyone but the owner and the owner's friends.
func (s *UserService) GetUser(ctx context.Context, viewer, id primitive.ObjectID) (*UserView, error) {
	user, err := s.load(ctx, "get user", id)
	if err != nil {
		return nil, err
	}

	relation := Unrelated
	if viewer != id {
		relation, err = s.friends.Status(ctx, viewer, id)
		if err != nil {
			return nil, err
		}
	}

	view := &UserView{Profile: user.Profile(), Relation: relation.String()}
	if viewer == id {
		view.Relation = "self"
	}
	if user.Visibility == models.VisibilityPrivate && viewer != id && relation != Friends {
		view.Profile = models.Profile{PublicUser: user.Public(), Visibility: user.Visibility}
	}
	return view, nil
}

// Friends lists the user's friends.
func (s *UserService) Friends(ctx context.Context, id primitive.ObjectID) ([]models.PublicUser, error) {
	return s.related(ctx, "list friends", id, func(u *models.User) []primitive.ObjectID { return u.Friends })
}

// ReceivedRequests lists users with a pending request to id.
func (s *UserService) ReceivedRequests(ctx context.Context, id primitive.ObjectID) ([]models.PublicUser, error) {
	return s.related(ctx, "list friend requests", id, func(u *models.User) []primitive.ObjectID { return u.ReceivedRequests })
}

// SentRequests lists users id has a pending request to.
func (s *UserService) SentRequests(ctx context.Context, id primitive.ObjectID) ([]models.PublicUser, error) {
	return s.related(ctx, "list sent requests", id, func(u *models.User) []primitive.ObjectID { return u.SentRequests })
}

func (s *UserService) related(ctx context.Context, op string, id primitive.ObjectID, pick func(*models.User) []primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	ids := pick(user)
	if len(ids) == 0 {
		return []models.PublicUser{}, nil
	}
	dir, err := loadDirectory(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	return dir.list(ids), nil
}
