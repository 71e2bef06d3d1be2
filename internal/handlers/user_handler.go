package handlers

import (
	"errors"
	"net/http"

	"github.com/Dias221467/friendconnect/internal/config"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/services"
	"github.com/Dias221467/friendconnect/internal/session"
	"github.com/Dias221467/friendconnect/internal/util"
	jwtutil "github.com/Dias221467/friendconnect/pkg/jwt"
	"github.com/Dias221467/friendconnect/pkg/middleware"
	log "github.com/sirupsen/logrus"
)

// UserHandler handles account, session and profile requests.
type UserHandler struct {
	Credentials *services.CredentialService
	Service     *services.UserService
	Sessions    *session.Registry
	Config      *config.Config
	Clock       util.Clock
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(creds *services.CredentialService, service *services.UserService, sessions *session.Registry, cfg *config.Config, clock util.Clock) *UserHandler {
	return &UserHandler{
		Credentials: creds,
		Service:     service,
		Sessions:    sessions,
		Config:      cfg,
		Clock:       clock,
	}
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if !decode(w, r, &in) {
		return
	}

	id, err := h.Credentials.Register(r.Context(), in)
	if err != nil {
		writeError(w, "register", err)
		return
	}

	log.WithField("userID", id.Hex()).Info("Account created")
	writeText(w, http.StatusCreated, "Account Created!")
}

// LoginUserHandler answers "OK" and sets the session cookie, or "BAD".
// A failed attempt leaves any existing session untouched.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &credentials) {
		return
	}

	user, err := h.Credentials.Verify(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthFailure) {
			writeText(w, http.StatusUnauthorized, "BAD")
			return
		}
		writeError(w, "login", err)
		return
	}

	secret := h.Sessions.Create(user.ID.Hex())
	if err := h.issueCookie(w, user, secret); err != nil {
		h.Sessions.Destroy(user.ID.Hex())
		log.WithError(err).Error("Failed to issue session cookie")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	writeText(w, http.StatusOK, "OK")
}

func (h *UserHandler) issueCookie(w http.ResponseWriter, user *models.User, secret string) error {
	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, user.DisplayName(), secret, h.Config.SessionSigningKey, h.Clock.NowUtc())
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token, h.Config.CookieSecure)
	return nil
}

// LogoutUserHandler destroys the caller's session.
func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.Sessions.Destroy(id.Hex())
	middleware.ClearSessionCookie(w, h.Config.CookieSecure)
	writeText(w, http.StatusOK, "Logged Out!")
}

// GetMeHandler returns the caller's own profile.
func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.Service.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateMeHandler edits the caller's profile and re-issues the session cookie so the
// display name it carries stays current.
func (h *UserHandler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in services.ProfileInput
	if !decode(w, r, &in) {
		return
	}

	user, err := h.Service.EditProfile(r.Context(), id, in)
	if err != nil {
		writeError(w, "edit profile", err)
		return
	}

	claims := middleware.GetUserFromContext(r.Context())
	if err := h.issueCookie(w, user, claims.Secret); err != nil {
		log.WithError(err).Warn("Failed to refresh session cookie")
	}
	writeJSON(w, http.StatusOK, user.Profile())
}

// ListUsersHandler returns every user's display identity.
func (h *UserHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUserHandler returns another user's profile as seen by the caller.
func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.Service.GetUser(r.Context(), viewer, id)
	if err != nil {
		writeError(w, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
