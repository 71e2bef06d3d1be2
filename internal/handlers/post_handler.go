package handlers

import (
	"net/http"

	"github.com/Dias221467/friendconnect/internal/services"
	log "github.com/sirupsen/logrus"
)

// PostHandler handles posts, likes and comments.
type PostHandler struct {
	Service *services.PostService
}

func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{Service: service}
}

type contentRequest struct {
	Content string `json:"content"`
}

// CreatePostHandler publishes a post for the caller.
func (h *PostHandler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in contentRequest
	if !decode(w, r, &in) {
		return
	}

	post, err := h.Service.CreatePost(r.Context(), caller, in.Content)
	if err != nil {
		writeError(w, "create post", err)
		return
	}
	log.WithFields(log.Fields{"userID": caller.Hex(), "postID": post.ID.Hex()}).Info("Post created")
	writeJSON(w, http.StatusCreated, post)
}

// ListPostsHandler returns every post, newest first.
func (h *PostHandler) ListPostsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	posts, err := h.Service.ListPosts(r.Context())
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPostHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	post, err := h.Service.GetPost(r.Context(), postID)
	if err != nil {
		writeError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// EditPostHandler replaces the content of one of the caller's posts.
func (h *PostHandler) EditPostHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in contentRequest
	if !decode(w, r, &in) {
		return
	}

	post, err := h.Service.EditPost(r.Context(), caller, postID, in.Content)
	if err != nil {
		writeError(w, "edit post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) LikePostHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Like(r.Context(), postID, caller); err != nil {
		writeError(w, "like post", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *PostHandler) UnlikePostHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Unlike(r.Context(), postID, caller); err != nil {
		writeError(w, "unlike post", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// AddCommentHandler attaches a comment by the caller to the post.
func (h *PostHandler) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := currentUser(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in contentRequest
	if !decode(w, r, &in) {
		return
	}

	comment, err := h.Service.AddComment(r.Context(), postID, caller, in.Content)
	if err != nil {
		writeError(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}
