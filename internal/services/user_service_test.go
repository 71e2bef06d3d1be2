package services

import (
	"testing"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEditProfile(t *testing.T) {
	e := newEnv(t)
	u := e.register(t)

	updated, err := e.profile.EditProfile(e.ctx, u, ProfileInput{
		FirstName:  "Grace",
		LastName:   "Hopper",
		Bio:        "compilers",
		Visibility: models.VisibilityPrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", updated.DisplayName())

	profile, err := e.profile.GetProfile(e.ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "compilers", profile.Bio)
	assert.Equal(t, models.VisibilityPrivate, profile.Visibility)

	_, err = e.profile.EditProfile(e.ctx, u, ProfileInput{FirstName: "G", Visibility: "FRIENDS"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.profile.EditProfile(e.ctx, primitive.NewObjectID(), ProfileInput{FirstName: "G"})
	assert.ErrorIs(t, err, ErrNoSuchUser)
}

func TestGetUserRespectsVisibility(t *testing.T) {
	e := newEnv(t)
	owner, stranger, friend := e.register(t), e.register(t), e.register(t)
	e.befriend(t, owner, friend)
	_, err := e.profile.EditProfile(e.ctx, owner, ProfileInput{FirstName: "Priv", Bio: "hidden", Visibility: models.VisibilityPrivate})
	require.NoError(t, err)

	view, err := e.profile.GetUser(e.ctx, stranger, owner)
	require.NoError(t, err)
	assert.Equal(t, "Priv", view.FirstName)
	assert.Empty(t, view.Bio)
	assert.Equal(t, "unrelated", view.Relation)

	view, err = e.profile.GetUser(e.ctx, friend, owner)
	require.NoError(t, err)
	assert.Equal(t, "hidden", view.Bio)
	assert.Equal(t, 1, view.Friends)
	assert.Equal(t, "friends", view.Relation)

	view, err = e.profile.GetUser(e.ctx, owner, owner)
	require.NoError(t, err)
	assert.Equal(t, "self", view.Relation)
}

func TestRelationshipListings(t *testing.T) {
	e := newEnv(t)
	a, b, c := e.register(t), e.register(t), e.register(t)
	e.befriend(t, a, b)
	d := e.register(t)
	require.NoError(t, e.friends.SendRequest(e.ctx, c, a))
	require.NoError(t, e.friends.SendRequest(e.ctx, a, d))

	friends, err := e.profile.Friends(e.ctx, a)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, b, friends[0].ID)

	received, err := e.profile.ReceivedRequests(e.ctx, a)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, c, received[0].ID)

	sent, err := e.profile.SentRequests(e.ctx, a)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, d, sent[0].ID)

	none, err := e.profile.SentRequests(e.ctx, b)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := e.profile.ListUsers(e.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
