// Package session holds the server-side table of authenticated sessions.
package session

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IdleWindow is how long a session survives without a successful touch.
const IdleWindow = time.Hour

var (
	ErrSessionInvalid = errors.New("session invalid")
	ErrSessionExpired = errors.New("session expired")
)

type entry struct {
	secret       string
	lastActivity time.Time
}

// Registry maps a user identity to its single live session. A new Create for the
// same identity replaces the previous session. All access goes through mu; the
// sweep and request handlers run concurrently.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]entry
	clock    util.Clock
	idle     time.Duration
}

// NewRegistry creates an empty registry using clock for activity timestamps.
func NewRegistry(clock util.Clock) *Registry {
	if clock == nil {
		clock = util.NewRealClock()
	}
	return &Registry{
		sessions: make(map[string]entry),
		clock:    clock,
		idle:     IdleWindow,
	}
}

// Create installs a fresh session for identity and returns its secret.
func (r *Registry) Create(identity string) string {
	secret := uuid.NewString()

	r.mu.Lock()
	r.sessions[identity] = entry{secret: secret, lastActivity: r.clock.NowUtc()}
	r.mu.Unlock()

	logrus.WithField("userID", identity).Info("Session created")
	return secret
}

// Touch authenticates identity/secret and refreshes the activity timestamp.
func (r *Registry) Touch(identity, secret string) error {
	now := r.clock.NowUtc()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[identity]
	if !ok || subtle.ConstantTimeCompare([]byte(e.secret), []byte(secret)) != 1 {
		return ErrSessionInvalid
	}
	if r.expired(e, now) {
		delete(r.sessions, identity)
		logrus.WithField("userID", identity).Info("Session expired on touch")
		return ErrSessionExpired
	}
	e.lastActivity = now
	r.sessions[identity] = e
	return nil
}

// Destroy removes the session for identity. Destroying a missing session is a no-op.
func (r *Registry) Destroy(identity string) {
	r.mu.Lock()
	delete(r.sessions, identity)
	r.mu.Unlock()
}

// Sweep evicts every session idle for longer than the idle window and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.clock.NowUtc()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for identity, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, identity)
			removed++
		}
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Debug("Swept idle sessions")
	}
	return removed
}

// Len reports the number of sessions currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(e entry, now time.Time) bool {
	return now.Sub(e.lastActivity) > r.idle
}
