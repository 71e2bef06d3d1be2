// Package events delivers domain events to interested parties: the recipient's
// open websocket connections and, optionally, a NATS JetStream stream.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Type string

const (
	UserRegistered  Type = "user.registered"
	FriendRequested Type = "friend.requested"
	FriendAccepted  Type = "friend.accepted"
	PostLiked       Type = "post.liked"
	CommentAdded    Type = "comment.added"
	GroupJoined     Type = "group.joined"
)

// Event is a notification about something that happened to Recipient.
type Event struct {
	ID        string             `json:"id"`
	Type      Type               `json:"type"`
	Recipient primitive.ObjectID `json:"recipient"`
	Actor     primitive.ObjectID `json:"actor"`
	TargetID  string             `json:"targetId,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// New builds an event with a fresh id.
func New(t Type, recipient, actor primitive.ObjectID, target string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Recipient: recipient,
		Actor:     actor,
		TargetID:  target,
		CreatedAt: at,
	}
}

// Publisher delivers events. Delivery is best effort; callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
