package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility controls who may view a user's profile.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// User represents an account in FriendConnect. The relationship sets are mirrored
// on the counterpart's record and kept consistent by the relationship service.
type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FirstName        string               `bson:"first_name" json:"firstName"`
	LastName         string               `bson:"last_name" json:"lastName"`
	Email            string               `bson:"email" json:"email"`
	Salt             []byte               `bson:"salt" json:"-"`
	Hash             []byte               `bson:"hash" json:"-"`
	Visibility       Visibility           `bson:"visibility" json:"visibility"`
	Bio              string               `bson:"bio" json:"bio"`
	Posts            []primitive.ObjectID `bson:"posts" json:"posts"`
	Comments         []primitive.ObjectID `bson:"comments" json:"comments"`
	Groups           []primitive.ObjectID `bson:"groups" json:"groups"`
	Friends          []primitive.ObjectID `bson:"friends" json:"friends"`
	SentRequests     []primitive.ObjectID `bson:"sent_requests" json:"sentRequests"`
	ReceivedRequests []primitive.ObjectID `bson:"received_requests" json:"receivedRequests"`
}

// DisplayName is the name shown next to a user's content.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Public returns the display identity of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// PublicUser is the display identity embedded in hydrated content and listings.
type PublicUser struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
}

// Profile is the user-facing view of an account, without credentials.
type Profile struct {
	PublicUser
	Visibility Visibility `json:"visibility"`
	Bio        string     `json:"bio"`
	Friends    int        `json:"friendCount"`
	Groups     int        `json:"groupCount"`
}

// Profile returns the profile view of the user.
func (u *User) Profile() Profile {
	return Profile{
		PublicUser: u.Public(),
		Visibility: u.Visibility,
		Bio:        u.Bio,
		Friends:    len(u.Friends),
		Groups:     len(u.Groups),
	}
}

// ContainsID reports whether id is present in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// AddID appends id unless already present.
func AddID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

// RemoveID drops every occurrence of id, preserving order.
func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
