package services

import (
	"context"
	"errors"
	"sort"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedService computes the posts visible to a viewer.
type FeedService struct {
	store *repository.Store
}

func NewFeedService(store *repository.Store) *FeedService {
	return &FeedService{store: store}
}

// VisibleFeed returns the viewer's own posts and the posts of the viewer's current
// friends, newest first. Posts with equal timestamps keep the viewer's posts first,
// then each friend's in friend-list order, each in insertion order.
func (s *FeedService) VisibleFeed(ctx context.Context, viewerID primitive.ObjectID) ([]models.HydratedPost, error) {
	viewer, err := s.store.Users.GetUserByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("userID", viewerID.Hex()).Warn("Feed requested for unknown user")
			return nil, ErrNoSuchUser
		}
		return nil, storeErr("visible feed", err)
	}

	owners := []primitive.ObjectID{viewer.ID}
	rank := map[primitive.ObjectID]int{viewer.ID: 0}
	for _, f := range viewer.Friends {
		if _, ok := rank[f]; ok {
			continue
		}
		rank[f] = len(owners)
		owners = append(owners, f)
	}

	posts, err := s.store.Posts.GetPostsByOwners(ctx, owners)
	if err != nil {
		return nil, storeErr("visible feed", err)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return rank[posts[i].User] < rank[posts[j].User]
	})
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Time > posts[j].Time
	})

	return hydratePosts(ctx, s.store, posts)
}
