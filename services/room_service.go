package services

import (
	"context"
	"errors"

	"chat-relay/models"
	"chat-relay/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomService struct {
	rooms repository.RoomRepository
}

func NewRoomService(rr repository.RoomRepository) *RoomService {
	return &RoomService{rooms: rr}
}

func (s *RoomService) CreateRoom(ctx context.Context, name, description string, isPrivate bool, createdBy primitive.ObjectID) (*models.Room, error) {
	if name == "" {
		return nil, errors.New("room name cannot be empty")
	}
	if len(name) < 2 {
		return nil, errors.New("room name too short (minimum 2 characters)")
	}
	if len(name) > 50 {
		return nil, errors.New("room name too long (maximum 50 characters)")
	}

	room := &models.Room{
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		Members:     []primitive.ObjectID{createdBy},
		IsPrivate:   isPrivate,
	}
	created, err := s.rooms.Create(ctx, room)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, errors.New("room already exists")
	}
	return created, err
}

func (s *RoomService) ListRooms(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	return s.rooms.ListVisible(ctx, userID)
}
