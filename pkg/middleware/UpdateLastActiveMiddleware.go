package middleware

import (
	"errors"
	"net/http"

	"github.com/Dias221467/friendconnect/internal/session"
	"github.com/Dias221467/friendconnect/pkg/logger"
)

// SessionToucher checks a session and refreshes its last activity.
type SessionToucher interface {
	Touch(identity, secret string) error
}

// UpdateLastActiveMiddleware touches the caller's session on every authenticated
// request and rejects the request when the session is unknown or idle for too long.
func UpdateLastActiveMiddleware(sessions SessionToucher, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := sessions.Touch(claims.UserID, claims.Secret); err != nil {
				logger.Log.WithField("userID", claims.UserID).WithError(err).Info("Session rejected")
				ClearSessionCookie(w, secureCookie)
				if errors.Is(err, session.ErrSessionExpired) {
					http.Error(w, "Session expired", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
