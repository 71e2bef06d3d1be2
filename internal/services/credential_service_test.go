package services

import (
	"testing"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := newEnv(t)

	_, err := e.creds.Register(e.ctx, RegisterInput{Email: "a@x.com", Password: "pw1", FirstName: "Ann"})
	require.NoError(t, err)

	_, err = e.creds.Register(e.ctx, RegisterInput{Email: "a@x.com", Password: "pw2", FirstName: "Ann"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterStoresSaltedDigest(t *testing.T) {
	e := newEnv(t)

	id, err := e.creds.Register(e.ctx, RegisterInput{Email: "b@x.com", Password: "secret", FirstName: "Bo", LastName: "Lee"})
	require.NoError(t, err)

	u := e.user(t, id)
	assert.Len(t, u.Salt, saltLength)
	assert.Len(t, u.Hash, digestLength)
	assert.NotContains(t, string(u.Hash), "secret")
	assert.Equal(t, models.VisibilityPublic, u.Visibility)
	assert.Equal(t, defaultBio, u.Bio)
	assert.Equal(t, "Bo Lee", u.DisplayName())
	assert.Len(t, e.events.ofType(events.UserRegistered), 1)
}

func TestRegisterValidatesInput(t *testing.T) {
	e := newEnv(t)

	_, err := e.creds.Register(e.ctx, RegisterInput{Email: "not-an-email", Password: "pw", FirstName: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.creds.Register(e.ctx, RegisterInput{Email: "c@x.com", FirstName: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerify(t *testing.T) {
	e := newEnv(t)
	id, err := e.creds.Register(e.ctx, RegisterInput{Email: "d@x.com", Password: "right", FirstName: "Dee"})
	require.NoError(t, err)

	u, err := e.creds.Verify(e.ctx, "d@x.com", "right")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = e.creds.Verify(e.ctx, "d@x.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailure)

	_, err = e.creds.Verify(e.ctx, "nobody@x.com", "right")
	assert.ErrorIs(t, err, ErrAuthFailure, "unknown email and wrong password are indistinguishable")

	_, err = e.creds.Verify(e.ctx, "D@x.com", "right")
	assert.ErrorIs(t, err, ErrAuthFailure, "emails match exactly as stored")
}

func TestSaltsDifferPerUser(t *testing.T) {
	e := newEnv(t)
	a, err := e.creds.Register(e.ctx, RegisterInput{Email: "e1@x.com", Password: "same", FirstName: "E"})
	require.NoError(t, err)
	b, err := e.creds.Register(e.ctx, RegisterInput{Email: "e2@x.com", Password: "same", FirstName: "E"})
	require.NoError(t, err)

	assert.NotEqual(t, e.user(t, a).Hash, e.user(t, b).Hash)
}
