package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named set of members. Creator is fixed at creation and does not imply membership.
type Group struct {
	ID      primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name    string               `bson:"name" json:"name"`
	Creator primitive.ObjectID   `bson:"creator" json:"creator"`
	Bio     string               `bson:"bio" json:"bio"`
	Members []primitive.ObjectID `bson:"members" json:"members"`
}

// GroupView is a group with its creator and members resolved to display identities.
type GroupView struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Bio     string             `json:"bio"`
	Creator PublicUser         `json:"creator"`
	Members []PublicUser       `json:"members"`
}
