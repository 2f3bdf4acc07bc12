package repository

import (
	"context"
	"errors"

	"chat-relay/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type UserRepository interface {
	Create(ctx context.Context, username, email, hashedPwd string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id primitive.ObjectID) error
}

type MessageRepository interface {
	Save(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListRecent returns up to limit most recent messages for the room,
	// oldest first.
	ListRecent(ctx context.Context, room string, limit int) ([]models.Message, error)
}

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) (*models.Room, error)
	FindByName(ctx context.Context, name string) (*models.Room, error)
	// ListVisible returns public rooms plus private rooms the user is a member of.
	ListVisible(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error)
	TouchActivity(ctx context.Context, name string) error
}
