package handlers

import (
	"net/http"

	"github.com/Dias221467/friendconnect/internal/config"
	"github.com/Dias221467/friendconnect/internal/session"
	"github.com/Dias221467/friendconnect/pkg/middleware"
	"github.com/gorilla/mux"
)

// Handlers groups every HTTP handler served by the router.
type Handlers struct {
	Users   *UserHandler
	Friends *FriendHandler
	Groups  *GroupHandler
	Posts   *PostHandler
	Feed    *FeedHandler
	Events  *EventsHandler
}

// NewRouter wires all routes. Everything except registration and login requires a live session.
func NewRouter(cfg *config.Config, sessions *session.Registry, h *Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/users/register", h.Users.RegisterUserHandler).Methods(http.MethodPost)
	router.HandleFunc("/users/login", h.Users.LoginUserHandler).Methods(http.MethodPost)

	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.SessionSigningKey))
	protected.Use(middleware.UpdateLastActiveMiddleware(sessions, cfg.CookieSecure))

	// User routes
	protected.HandleFunc("/users/logout", h.Users.LogoutUserHandler).Methods(http.MethodPost)
	protected.HandleFunc("/users/me", h.Users.GetMeHandler).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", h.Users.UpdateMeHandler).Methods(http.MethodPut)
	protected.HandleFunc("/users", h.Users.ListUsersHandler).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", h.Users.GetUserHandler).Methods(http.MethodGet)

	// Friend routes
	protected.HandleFunc("/friends", h.Friends.GetFriendsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/friends/requests", h.Friends.GetPendingRequestsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/friends/sent", h.Friends.GetSentRequestsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/friends/{id}/request", h.Friends.SendFriendRequestHandler).Methods(http.MethodPost)
	protected.HandleFunc("/friends/{id}/accept", h.Friends.AcceptFriendRequestHandler).Methods(http.MethodPost)
	protected.HandleFunc("/friends/{id}/decline", h.Friends.DeclineFriendRequestHandler).Methods(http.MethodPost)
	protected.HandleFunc("/friends/{id}", h.Friends.RemoveFriendHandler).Methods(http.MethodDelete)

	// Group routes
	protected.HandleFunc("/groups", h.Groups.ListGroupsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/groups", h.Groups.CreateGroupHandler).Methods(http.MethodPost)
	protected.HandleFunc("/groups/mine", h.Groups.MyGroupsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/groups/{id}/members", h.Groups.JoinGroupHandler).Methods(http.MethodPut)
	protected.HandleFunc("/groups/{id}/members", h.Groups.LeaveGroupHandler).Methods(http.MethodDelete)

	// Post routes
	protected.HandleFunc("/posts", h.Posts.ListPostsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/posts", h.Posts.CreatePostHandler).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}", h.Posts.GetPostHandler).Methods(http.MethodGet)
	protected.HandleFunc("/posts/{id}", h.Posts.EditPostHandler).Methods(http.MethodPut)
	protected.HandleFunc("/posts/{id}/likes", h.Posts.LikePostHandler).Methods(http.MethodPut)
	protected.HandleFunc("/posts/{id}/likes", h.Posts.UnlikePostHandler).Methods(http.MethodDelete)
	protected.HandleFunc("/posts/{id}/comments", h.Posts.AddCommentHandler).Methods(http.MethodPost)

	protected.HandleFunc("/feed", h.Feed.VisibleFeedHandler).Methods(http.MethodGet)
	protected.HandleFunc("/ws/events", h.Events.EventsWebSocketHandler).Methods(http.MethodGet)

	return router
}
