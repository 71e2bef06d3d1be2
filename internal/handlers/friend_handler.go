package handlers

import (
	"context"
	"net/http"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/services"
	"github.com/Dias221467/friendconnect/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendHandler manages HTTP endpoints related to friend requests and friendships.
type FriendHandler struct {
	Service *services.FriendService
	Users   *services.UserService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService, users *services.UserService) *FriendHandler {
	return &FriendHandler{Service: service, Users: users}
}

type pairOp func(ctx context.Context, caller, target primitive.ObjectID) error

// transition runs op for the caller against the {id} path user and answers an empty body.
func (h *FriendHandler) transition(name string, op pairOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := currentUser(w, r)
		if !ok {
			return
		}
		target, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := op(r.Context(), caller, target); err != nil {
			writeError(w, name, err)
			return
		}
		logger.Log.Infof("User %s: %s %s", caller.Hex(), name, target.Hex())
		w.WriteHeader(http.StatusOK)
	}
}

// SendFriendRequestHandler sends a friend request to {id}.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.transition("send friend request", h.Service.SendRequest)(w, r)
}

// AcceptFriendRequestHandler accepts the pending request from {id}.
func (h *FriendHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.transition("accept friend request", h.Service.AcceptRequest)(w, r)
}

// DeclineFriendRequestHandler declines the pending request from {id}.
func (h *FriendHandler) DeclineFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.transition("decline friend request", h.Service.DeclineRequest)(w, r)
}

// RemoveFriendHandler ends the friendship with {id}.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	h.transition("unfriend", h.Service.Unfriend)(w, r)
}

type listOp func(ctx context.Context, id primitive.ObjectID) ([]models.PublicUser, error)

func (h *FriendHandler) list(name string, op listOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := currentUser(w, r)
		if !ok {
			return
		}
		users, err := op(r.Context(), caller)
		if err != nil {
			writeError(w, name, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	h.list("list friends", h.Users.Friends)(w, r)
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	h.list("list friend requests", h.Users.ReceivedRequests)(w, r)
}

func (h *FriendHandler) GetSentRequestsHandler(w http.ResponseWriter, r *http.Request) {
	h.list("list sent requests", h.Users.SentRequests)(w, r)
}
