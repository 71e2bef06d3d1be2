package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a piece of user content. Time is a millisecond timestamp assigned at insertion.
type Post struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Time     int64                `bson:"time" json:"time"`
	User     primitive.ObjectID   `bson:"user" json:"user"`
	Content  string               `bson:"content" json:"content"`
	Comments []primitive.ObjectID `bson:"comments" json:"comments"`
	Likes    []primitive.ObjectID `bson:"likes" json:"likes"`
}

// Comment is attached to exactly one post and never edited.
type Comment struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Time    int64              `bson:"time" json:"time"`
	User    primitive.ObjectID `bson:"user" json:"user"`
	Content string             `bson:"content" json:"content"`
	Post    primitive.ObjectID `bson:"post" json:"post"`
}

// HydratedPost carries everything a client needs to render a post without further lookups.
type HydratedPost struct {
	ID       primitive.ObjectID `json:"id"`
	Time     int64              `json:"time"`
	User     PublicUser         `json:"user"`
	Content  string             `json:"content"`
	Comments []HydratedComment  `json:"comments"`
	Likes    []PublicUser       `json:"likes"`
}

type HydratedComment struct {
	ID      primitive.ObjectID `json:"id"`
	Time    int64              `json:"time"`
	User    PublicUser         `json:"user"`
	Content string             `json:"content"`
}
