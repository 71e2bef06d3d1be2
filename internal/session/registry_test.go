package session

import (
	"sync"
	"testing"
	"time"

	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndTouch(t *testing.T) {
	clock := util.NewStubClock()
	r := NewRegistry(clock)

	secret := r.Create("alice")
	require.NotEmpty(t, secret)

	clock.Advance(30 * time.Minute)
	require.NoError(t, r.Touch("alice", secret))

	// the touch above refreshed activity, so another 59 minutes is still inside the window
	clock.Advance(59 * time.Minute)
	assert.NoError(t, r.Touch("alice", secret))
}

func TestTouchRejectsUnknownOrWrongSecret(t *testing.T) {
	r := NewRegistry(util.NewStubClock())

	assert.ErrorIs(t, r.Touch("nobody", "x"), ErrSessionInvalid)

	r.Create("alice")
	assert.ErrorIs(t, r.Touch("alice", "not-the-secret"), ErrSessionInvalid)
	assert.Equal(t, 1, r.Len(), "a bad secret must not disturb the live session")
}

func TestTouchAfterIdleWindowExpires(t *testing.T) {
	clock := util.NewStubClock()
	r := NewRegistry(clock)
	secret := r.Create("alice")

	clock.Advance(IdleWindow + time.Millisecond)
	assert.ErrorIs(t, r.Touch("alice", secret), ErrSessionExpired)
	assert.ErrorIs(t, r.Touch("alice", secret), ErrSessionInvalid, "expired entry is removed")
}

func TestNewLoginReplacesPreviousSession(t *testing.T) {
	r := NewRegistry(util.NewStubClock())
	first := r.Create("alice")
	second := r.Create("alice")

	assert.NotEqual(t, first, second)
	assert.ErrorIs(t, r.Touch("alice", first), ErrSessionInvalid)
	assert.NoError(t, r.Touch("alice", second))
}

func TestDestroyIsIdempotent(t *testing.T) {
	r := NewRegistry(util.NewStubClock())
	secret := r.Create("alice")

	r.Destroy("alice")
	r.Destroy("alice")
	assert.ErrorIs(t, r.Touch("alice", secret), ErrSessionInvalid)
}

func TestSweepRemovesOnlyIdleSessions(t *testing.T) {
	clock := util.NewStubClock()
	r := NewRegistry(clock)

	r.Create("idle")
	clock.Advance(40 * time.Minute)
	active := r.Create("active")
	clock.Advance(30 * time.Minute)
	require.NoError(t, r.Touch("active", active))

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.NoError(t, r.Touch("active", active))
}

func TestSweepAtExactWindowKeepsSession(t *testing.T) {
	clock := util.NewStubClock()
	r := NewRegistry(clock)
	secret := r.Create("alice")

	clock.Advance(IdleWindow)
	assert.Zero(t, r.Sweep())
	assert.NoError(t, r.Touch("alice", secret))
}

func TestConcurrentTouchAndSweep(t *testing.T) {
	clock := util.NewStubClock()
	r := NewRegistry(clock)
	secret := r.Create("alice")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Touch("alice", secret))
		}()
		go func() {
			defer wg.Done()
			r.Sweep()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.Len())
}
