package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat-relay/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InMemoryRoomRepo struct {
	mu     sync.RWMutex
	byName map[string]*models.Room
}

func NewInMemoryRoomRepo() *InMemoryRoomRepo {
	return &InMemoryRoomRepo{byName: make(map[string]*models.Room)}
}

func (r *InMemoryRoomRepo) Create(_ context.Context, room *models.Room) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[room.Name]; ok {
		return nil, ErrDuplicate
	}
	cp := *room
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	if cp.Members == nil {
		cp.Members = []primitive.ObjectID{}
	}
	r.byName[cp.Name] = &cp
	out := cp
	return &out, nil
}

func (r *InMemoryRoomRepo) FindByName(_ context.Context, name string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *InMemoryRoomRepo) ListVisible(_ context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]models.Room, 0, len(r.byName))
	for _, room := range r.byName {
		if room.IsPrivate && !isMember(room, userID) {
			continue
		}
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (r *InMemoryRoomRepo) TouchActivity(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.byName[name]
	if !ok {
		return ErrNotFound
	}
	room.LastActivity = time.Now()
	return nil
}

func isMember(room *models.Room, userID primitive.ObjectID) bool {
	for _, id := range room.Members {
		if id == userID {
			return true
		}
	}
	return false
}
