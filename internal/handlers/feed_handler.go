package handlers

import (
	"net/http"

	"github.com/Dias221467/friendconnect/internal/services"
)

type FeedHandler struct {
	Service *services.FeedService
}

func NewFeedHandler(service *services.FeedService) *FeedHandler {
	return &FeedHandler{Service: service}
}

// VisibleFeedHandler returns the caller's feed, newest first.
func (h *FeedHandler) VisibleFeedHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	feed, err := h.Service.VisibleFeed(r.Context(), caller)
	if err != nil {
		writeError(w, "visible feed", err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}
