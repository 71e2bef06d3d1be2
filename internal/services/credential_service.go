package services

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 64
	kdfIterations = 1000
	digestLength  = 64
	defaultBio    = "Nothing yet!"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CredentialService derives and verifies salted password digests.
type CredentialService struct {
	users  repository.UserStore
	events events.Publisher
	clock  util.Clock
}

func NewCredentialService(users repository.UserStore, publisher events.Publisher, clock util.Clock) *CredentialService {
	return &CredentialService{users: users, events: publisher, clock: clock}
}

// Register creates an account. Emails are compared exactly as stored.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (primitive.ObjectID, error) {
	if in.Email == "" || in.Password == "" || strings.TrimSpace(in.FirstName) == "" {
		logrus.Warn("Missing required fields during registration")
		return primitive.NilObjectID, fmt.Errorf("%w: email, password and first name are required", ErrInvalidInput)
	}
	if !emailRegex.MatchString(in.Email) {
		logrus.WithField("email", in.Email).Warn("Invalid email format during registration")
		return primitive.NilObjectID, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		logrus.WithField("email", in.Email).Warn("Email already in use")
		return primitive.NilObjectID, ErrDuplicateEmail
	case !errors.Is(err, repository.ErrNotFound):
		return primitive.NilObjectID, storeErr("register", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to generate salt: %w", err)
	}

	user := &models.User{
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Email:      in.Email,
		Salt:       salt,
		Hash:       deriveDigest(in.Password, salt),
		Visibility: models.VisibilityPublic,
		Bio:        defaultBio,
	}

	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		// the unique index catches a concurrent registration of the same email
		if errors.Is(err, repository.ErrDuplicateKey) {
			return primitive.NilObjectID, ErrDuplicateEmail
		}
		return primitive.NilObjectID, storeErr("register", err)
	}

	if err := s.events.Publish(ctx, events.New(events.UserRegistered, created.ID, created.ID, created.ID.Hex(), s.clock.NowUtc())); err != nil {
		logrus.WithError(err).Warn("Failed to publish registration event")
	}

	logrus.WithField("userID", created.ID.Hex()).Info("User registered successfully")
	return created.ID, nil
}

// Verify checks a password against the stored digest and returns the account.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("email", email).Warn("Authentication failed")
			return nil, ErrAuthFailure
		}
		return nil, storeErr("verify", err)
	}

	digest := deriveDigest(password, user.Salt)
	if subtle.ConstantTimeCompare(digest, user.Hash) != 1 {
		logrus.WithField("email", email).Warn("Authentication failed")
		return nil, ErrAuthFailure
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

func deriveDigest(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, digestLength, sha512.New)
}
