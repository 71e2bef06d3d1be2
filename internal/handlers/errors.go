package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/friendconnect/internal/services"
	"github.com/Dias221467/friendconnect/pkg/logger"
	"github.com/Dias221467/friendconnect/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// writeError maps a service error onto a plain text response.
func writeError(w http.ResponseWriter, op string, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrSelfRequest):
		status, msg = http.StatusBadRequest, services.ErrSelfRequest.Error()
	case errors.Is(err, services.ErrAlreadyRelated):
		status, msg = http.StatusConflict, services.ErrAlreadyRelated.Error()
	case errors.Is(err, services.ErrDuplicateEmail):
		status, msg = http.StatusConflict, services.ErrDuplicateEmail.Error()
	case errors.Is(err, services.ErrNoSuchUser):
		status, msg = http.StatusNotFound, "No user associated with this name!"
	case errors.Is(err, services.ErrNoSuchEntity):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrTransientStore):
		status, msg = http.StatusServiceUnavailable, "Service temporarily unavailable, please retry"
	}

	entry := logger.Log.WithFields(log.Fields{"op": op, "status": status, "error": err})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}
	http.Error(w, msg, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

// currentUser returns the authenticated caller's id. The route is behind the
// session middleware, so a missing or malformed id means the request is not authenticated.
func currentUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return false
	}
	return true
}
