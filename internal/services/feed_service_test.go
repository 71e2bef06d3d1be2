package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (e *env) postAt(t *testing.T, owner primitive.ObjectID, ms int64, content string) primitive.ObjectID {
	t.Helper()
	e.clock.SetNow(time.UnixMilli(ms))
	p, err := e.posts.CreatePost(e.ctx, owner, content)
	require.NoError(t, err)
	return p.ID
}

func TestVisibleFeedOrdersFriendsAndSelf(t *testing.T) {
	e := newEnv(t)
	v, b, c, d := e.register(t), e.register(t), e.register(t), e.register(t)
	e.befriend(t, v, b)
	e.befriend(t, c, v)

	e.postAt(t, b, 100, "b")
	e.postAt(t, v, 150, "v")
	e.postAt(t, c, 200, "c")
	e.postAt(t, d, 300, "d")

	feed, err := e.feed.VisibleFeed(e.ctx, v)
	require.NoError(t, err)

	var got []string
	for _, p := range feed {
		got = append(got, p.Content)
	}
	assert.Equal(t, []string{"c", "v", "b"}, got)
	assert.Equal(t, c, feed[0].User.ID)
	assert.Equal(t, int64(200), feed[0].Time)
}

func TestVisibleFeedTiesKeepOwnPostsFirst(t *testing.T) {
	e := newEnv(t)
	v, f := e.register(t), e.register(t)
	e.befriend(t, v, f)

	e.postAt(t, f, 500, "friend-1")
	e.postAt(t, v, 500, "own-1")
	e.postAt(t, f, 500, "friend-2")
	e.postAt(t, v, 500, "own-2")

	feed, err := e.feed.VisibleFeed(e.ctx, v)
	require.NoError(t, err)

	var got []string
	for _, p := range feed {
		got = append(got, p.Content)
	}
	assert.Equal(t, []string{"own-1", "own-2", "friend-1", "friend-2"}, got)
}

func TestVisibleFeedFollowsCurrentFriends(t *testing.T) {
	e := newEnv(t)
	v, f := e.register(t), e.register(t)
	e.befriend(t, v, f)
	e.postAt(t, f, 100, "hello")

	feed, err := e.feed.VisibleFeed(e.ctx, v)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	require.NoError(t, e.friends.Unfriend(e.ctx, v, f))
	feed, err = e.feed.VisibleFeed(e.ctx, v)
	require.NoError(t, err)
	assert.Empty(t, feed)
	assert.NotNil(t, feed)
}

func TestVisibleFeedExcludesPendingRequests(t *testing.T) {
	e := newEnv(t)
	v, f := e.register(t), e.register(t)
	require.NoError(t, e.friends.SendRequest(e.ctx, v, f))
	e.postAt(t, f, 100, "not yet")

	feed, err := e.feed.VisibleFeed(e.ctx, v)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestVisibleFeedUnknownViewer(t *testing.T) {
	e := newEnv(t)
	_, err := e.feed.VisibleFeed(e.ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNoSuchUser)
}

func TestVisibleFeedHydratesLikes(t *testing.T) {
	e := newEnv(t)
	v, f := e.register(t), e.register(t)
	e.befriend(t, v, f)
	p := e.postAt(t, v, 100, "liked")
	require.NoError(t, e.posts.Like(e.ctx, p, f))

	feed, err := e.feed.VisibleFeed(e.ctx, v)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Len(t, feed[0].Likes, 1)
	assert.Equal(t, e.user(t, f).Email, feed[0].Likes[0].Email)
}
