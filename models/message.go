package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content"`
	Author    Author             `bson:"author" json:"author"`
	Room      string             `bson:"room" json:"room"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Type      string             `bson:"type" json:"type"`
	Metadata  map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
		return true
	}
	return false
}
