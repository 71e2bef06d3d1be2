package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dias221467/friendconnect/internal/config"
	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository/memory"
	"github.com/Dias221467/friendconnect/internal/services"
	"github.com/Dias221467/friendconnect/internal/session"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/Dias221467/friendconnect/pkg/middleware"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *mux.Router
	sessions *session.Registry
	clock    *util.StubClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{SessionSigningKey: "test-key", StoreDriver: config.StoreMemory}
	store := memory.NewStore().Repositories()
	clock := util.NewStubClock()
	locker := lock.NewKeyedMutex()
	hub := events.NewHub()
	sessions := session.NewRegistry(clock)

	creds := services.NewCredentialService(store.Users, hub, clock)
	friends := services.NewFriendService(store.Users, locker, hub, clock)
	users := services.NewUserService(store.Users, locker, friends)

	router := NewRouter(cfg, sessions, &Handlers{
		Users:   NewUserHandler(creds, users, sessions, cfg, clock),
		Friends: NewFriendHandler(friends, users),
		Groups:  NewGroupHandler(services.NewGroupService(store.Users, store.Groups, locker, hub, clock)),
		Posts:   NewPostHandler(services.NewPostService(store, locker, hub, clock)),
		Feed:    NewFeedHandler(services.NewFeedService(store)),
		Events:  NewEventsHandler(hub, nil),
	})
	return &testServer{router: router, sessions: sessions, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

type account struct {
	email, password string
	cookie          *http.Cookie
	id              string
}

func (s *testServer) signUp(t *testing.T) *account {
	t.Helper()
	a := &account{email: gofakeit.Email(), password: gofakeit.Password(true, true, true, false, false, 10)}
	rr := s.do(t, http.MethodPost, "/users/register", map[string]string{
		"email": a.email, "password": a.password, "firstName": gofakeit.FirstName(), "lastName": gofakeit.LastName(),
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Account Created!", rr.Body.String())

	rr = s.do(t, http.MethodPost, "/users/login", map[string]string{"email": a.email, "password": a.password}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "OK", rr.Body.String())
	a.cookie = sessionCookie(rr)
	require.NotNil(t, a.cookie)

	rr = s.do(t, http.MethodGet, "/users/me", nil, a.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var profile models.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	a.id = profile.ID.Hex()
	return a
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"email": "a@x.com", "password": "pw1", "firstName": "A"}
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/users/register", body, nil).Code)

	body["password"] = "pw2"
	rr := s.do(t, http.MethodPost, "/users/register", body, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "email already in use")
}

func TestLoginBadPasswordKeepsSession(t *testing.T) {
	s := newTestServer(t)
	a := s.signUp(t)

	rr := s.do(t, http.MethodPost, "/users/login", map[string]string{"email": a.email, "password": "wrong"}, nil)
	assert.Equal(t, "BAD", rr.Body.String())
	assert.Nil(t, sessionCookie(rr))

	rr = s.do(t, http.MethodGet, "/users/me", nil, a.cookie)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/feed", nil, nil).Code)

	a := s.signUp(t)
	rr := s.do(t, http.MethodPost, "/users/logout", nil, a.cookie)
	assert.Equal(t, "Logged Out!", rr.Body.String())
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/feed", nil, a.cookie).Code)
}

func TestIdleSessionExpires(t *testing.T) {
	s := newTestServer(t)
	a := s.signUp(t)

	s.clock.Advance(session.IdleWindow / 2)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/feed", nil, a.cookie).Code)

	s.clock.Advance(session.IdleWindow / 2)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/feed", nil, a.cookie).Code, "touch refreshes activity")

	s.clock.Advance(session.IdleWindow + 1)
	assert.Equal(t, 1, s.sessions.Sweep())
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/feed", nil, a.cookie).Code)
}

func TestFriendFlowAndFeed(t *testing.T) {
	s := newTestServer(t)
	a, b := s.signUp(t), s.signUp(t)

	rr := s.do(t, http.MethodPost, "/friends/"+b.id+"/request", nil, a.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/friends/requests", nil, b.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var pending []models.PublicUser
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, a.id, pending[0].ID.Hex())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/friends/"+a.id+"/accept", nil, b.cookie).Code)

	rr = s.do(t, http.MethodPost, "/posts", map[string]string{"content": "hello from b"}, b.cookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &post))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/posts/"+post.ID.Hex()+"/likes", nil, a.cookie).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/posts/"+post.ID.Hex()+"/likes", nil, a.cookie).Code)

	rr = s.do(t, http.MethodGet, "/feed", nil, a.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var feed []models.HydratedPost
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "hello from b", feed[0].Content)
	assert.Len(t, feed[0].Likes, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/friends/"+a.id+"/request", nil, a.cookie).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/friends/not-an-id/request", nil, a.cookie).Code)
}

func TestEditPostForbiddenForOthers(t *testing.T) {
	s := newTestServer(t)
	a, b := s.signUp(t), s.signUp(t)

	rr := s.do(t, http.MethodPost, "/posts", map[string]string{"content": "mine"}, a.cookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &post))

	rr = s.do(t, http.MethodPut, "/posts/"+post.ID.Hex(), map[string]string{"content": "theirs"}, b.cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestListPostsIncludesNonFriends(t *testing.T) {
	s := newTestServer(t)
	a, b := s.signUp(t), s.signUp(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/posts", map[string]string{"content": "from a"}, a.cookie).Code)
	s.clock.Advance(time.Second)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/posts", map[string]string{"content": "from b"}, b.cookie).Code)

	rr := s.do(t, http.MethodGet, "/posts", nil, a.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var posts []models.HydratedPost
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "from b", posts[0].Content)
	assert.Equal(t, b.id, posts[0].User.ID.Hex())

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/posts", nil, nil).Code)
}

func TestGroupRoutes(t *testing.T) {
	s := newTestServer(t)
	a, b := s.signUp(t), s.signUp(t)

	rr := s.do(t, http.MethodPost, "/groups", map[string]string{"name": "Climbers", "bio": "up"}, a.cookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	var group models.Group
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &group))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/groups/"+group.ID.Hex()+"/members", nil, b.cookie).Code)

	rr = s.do(t, http.MethodGet, "/groups/mine", nil, b.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []models.GroupView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Members, 2)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/groups/"+group.ID.Hex()+"/members", nil, b.cookie).Code)
	rr = s.do(t, http.MethodGet, "/groups/mine", nil, b.cookie)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	assert.Empty(t, mine)
}

func TestProfileEditReissuesCookie(t *testing.T) {
	s := newTestServer(t)
	a := s.signUp(t)

	rr := s.do(t, http.MethodPut, "/users/me", map[string]string{"firstName": "New", "lastName": "Name", "visibility": "PRIVATE"}, a.cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	fresh := sessionCookie(rr)
	require.NotNil(t, fresh)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/users/me", nil, fresh).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/users/me", map[string]string{"firstName": "X", "visibility": "NOPE"}, fresh).Code)
}
