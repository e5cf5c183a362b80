package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID      primitive.ObjectID `restblog:"id" bson:"_id,omitempty" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Image   string             `bson:"image" json:"image"`
	Body    string             `bson:"body" json:"body"`
	Created time.Time          `bson:"created" json:"created"`
}

func (p Post) GetCollectionName() string {
	return "blogs"
}

// PostForm is the submitted blog payload, either as blog[title] style form
// fields or as {"blog": {...}} JSON.
type PostForm struct {
	Title string `form:"blog[title]" json:"title"`
	Image string `form:"blog[image]" json:"image"`
	Body  string `form:"blog[body]" json:"body"`
}

type PostRequest struct {
	Blog PostForm `json:"blog"`
}
