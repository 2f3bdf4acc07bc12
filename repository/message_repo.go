package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"chat-relay/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InMemoryMessageRepo struct {
	mu  sync.RWMutex
	byR map[string][]*models.Message // room -> messages in insertion order
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{byR: make(map[string][]*models.Message)}
}

func (r *InMemoryMessageRepo) Save(_ context.Context, msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	cp := *msg
	r.byR[msg.Room] = append(r.byR[msg.Room], &cp)
	return msg, nil
}

func (r *InMemoryMessageRepo) ListRecent(_ context.Context, room string, limit int) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.byR[room]
	if len(stored) == 0 {
		return []models.Message{}, nil
	}
	msgs := make([]models.Message, 0, len(stored))
	for _, m := range stored {
		msgs = append(msgs, *m)
	}
	// sort by timestamp, insertion order breaks ties (stable)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}
