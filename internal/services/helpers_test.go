package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/Dias221467/friendconnect/internal/repository/memory"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// flakyUsers fails ReplaceUser for the ids in failOn, once per entry.
type flakyUsers struct {
	repository.UserStore
	mu     sync.Mutex
	failOn map[primitive.ObjectID]int
}

func (f *flakyUsers) failNext(id primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[id]++
}

func (f *flakyUsers) ReplaceUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	if f.failOn[user.ID] > 0 {
		f.failOn[user.ID]--
		f.mu.Unlock()
		return errors.New("write timeout")
	}
	f.mu.Unlock()
	return f.UserStore.ReplaceUser(ctx, user)
}

// flakyPosts fails ReplacePost for the ids in failOn, once per entry.
type flakyPosts struct {
	repository.PostStore
	mu     sync.Mutex
	failOn map[primitive.ObjectID]int
}

func (f *flakyPosts) failNext(id primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[id]++
}

func (f *flakyPosts) ReplacePost(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	if f.failOn[post.ID] > 0 {
		f.failOn[post.ID]--
		f.mu.Unlock()
		return errors.New("write timeout")
	}
	f.mu.Unlock()
	return f.PostStore.ReplacePost(ctx, post)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(t events.Type) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type env struct {
	ctx     context.Context
	store   *repository.Store
	users   *flakyUsers
	postDB  *flakyPosts
	clock   *util.StubClock
	events  *recordingPublisher
	creds   *CredentialService
	friends *FriendService
	groups  *GroupService
	posts   *PostService
	feed    *FeedService
	profile *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore().Repositories()
	users := &flakyUsers{UserStore: store.Users, failOn: make(map[primitive.ObjectID]int)}
	store.Users = users
	posts := &flakyPosts{PostStore: store.Posts, failOn: make(map[primitive.ObjectID]int)}
	store.Posts = posts

	clock := util.NewStubClock()
	pub := &recordingPublisher{}
	locker := lock.NewKeyedMutex()

	friends := NewFriendService(users, locker, pub, clock)
	return &env{
		ctx:     context.Background(),
		store:   store,
		users:   users,
		postDB:  posts,
		clock:   clock,
		events:  pub,
		creds:   NewCredentialService(users, pub, clock),
		friends: friends,
		groups:  NewGroupService(users, store.Groups, locker, pub, clock),
		posts:   NewPostService(store, locker, pub, clock),
		feed:    NewFeedService(store),
		profile: NewUserService(users, locker, friends),
	}
}

func (e *env) register(t *testing.T) primitive.ObjectID {
	t.Helper()
	id, err := e.creds.Register(e.ctx, RegisterInput{
		Email:     gofakeit.Email(),
		Password:  gofakeit.Password(true, true, true, false, false, 12),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	})
	require.NoError(t, err)
	return id
}

func (e *env) user(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := e.store.Users.GetUserByID(e.ctx, id)
	require.NoError(t, err)
	return u
}

func (e *env) befriend(t *testing.T, a, b primitive.ObjectID) {
	t.Helper()
	require.NoError(t, e.friends.SendRequest(e.ctx, a, b))
	require.NoError(t, e.friends.AcceptRequest(e.ctx, b, a))
}

// stateOf resolves the pair and checks that at most one state is asserted on each side.
func (e *env) stateOf(t *testing.T, a, b primitive.ObjectID) Relation {
	t.Helper()
	ua, ub := e.user(t, a), e.user(t, b)
	require.LessOrEqual(t, len(claims(ua, b)), 1, "record of a asserts several states")
	require.LessOrEqual(t, len(claims(ub, a)), 1, "record of b asserts several states")
	return resolve(ua, ub)
}
