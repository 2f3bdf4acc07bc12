package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room is a catalog entry. Joining a room over the websocket does not require
// it to exist here; the directory only backs the REST listing and visibility.
type Room struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Description  string               `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy    primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Members      []primitive.ObjectID `bson:"members" json:"members"`
	IsPrivate    bool                 `bson:"isPrivate" json:"isPrivate"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	LastActivity time.Time            `bson:"lastActivity" json:"lastActivity"`
}
