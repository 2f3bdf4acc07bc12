package repository

import (
	"context"
	"sync"
	"time"

	"chat-relay/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InMemoryUserRepo struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]*models.User
	byE  map[string]*models.User
	byU  map[string]*models.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		byID: make(map[primitive.ObjectID]*models.User),
		byE:  make(map[string]*models.User),
		byU:  make(map[string]*models.User),
	}
}

func (r *InMemoryUserRepo) Create(_ context.Context, username, email, hashedPwd string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byU[username]; ok {
		return nil, ErrDuplicate
	}
	if _, ok := r.byE[email]; ok {
		return nil, ErrDuplicate
	}
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  hashedPwd,
		CreatedAt: time.Now(),
	}
	r.byID[u.ID] = u
	r.byE[u.Email] = u
	r.byU[u.Username] = u
	return u, nil
}

func (r *InMemoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byE[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) UpdateLastSeen(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.LastSeen = time.Now()
	return nil
}
