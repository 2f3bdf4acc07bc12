package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	LastSeen  time.Time          `bson:"lastSeen" json:"lastSeen"`
}

// Author is the identity snapshot embedded in every message. It is copied
// from the sender's User at send time so history never needs a second lookup.
type Author struct {
	ID       primitive.ObjectID `bson:"id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`
}

func (u *User) Author() Author {
	return Author{ID: u.ID, Username: u.Username, Email: u.Email}
}
