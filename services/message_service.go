package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"chat-relay/config"
	"chat-relay/models"
	"chat-relay/repository"
)

// MessageBroadcaster interface to avoid import cycles with the ws package.
type MessageBroadcaster interface {
	BroadcastMessage(msg models.Message)
}

var ErrEmptyContent = errors.New("empty content")

// StoreError wraps a persistence failure so callers can tell it apart from
// validation problems; the message was not saved and must not be broadcast.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

type MessageService struct {
	msgs   repository.MessageRepository
	rooms  repository.RoomRepository
	hub    MessageBroadcaster
	config *config.Config
}

func NewMessageService(mr repository.MessageRepository, rr repository.RoomRepository, hub MessageBroadcaster, cfg *config.Config) *MessageService {
	return &MessageService{msgs: mr, rooms: rr, hub: hub, config: cfg}
}

// Send persists a message and, only once it is durable, fans it out to the
// room. The author, room and timestamp are taken from the session, never from
// the client payload.
func (s *MessageService) Send(ctx context.Context, room string, sender *models.User, content, msgType string, metadata map[string]any) (*models.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > s.config.MaxMessageLength {
		return nil, errors.New("message too long (max " + strconv.Itoa(s.config.MaxMessageLength) + " characters)")
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !models.ValidMessageType(msgType) {
		return nil, fmt.Errorf("unsupported message type %q", msgType)
	}

	msg := &models.Message{
		Content:   content,
		Author:    sender.Author(),
		Room:      room,
		Timestamp: time.Now().UTC(),
		Type:      msgType,
		Metadata:  metadata,
	}

	saved, err := s.msgs.Save(ctx, msg)
	if err != nil {
		return nil, &StoreError{Op: "save message", Err: err}
	}

	// best-effort; the room may not exist in the directory at all
	if err := s.rooms.TouchActivity(ctx, room); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("Could not touch activity for room %s: %v", room, err)
	}

	s.hub.BroadcastMessage(*saved)
	return saved, nil
}

// Recent returns the backlog delivered to a connection joining a room.
func (s *MessageService) Recent(ctx context.Context, room string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = s.config.HistoryLimit
	}
	if limit > 100 {
		limit = 100
	}
	msgs, err := s.msgs.ListRecent(ctx, room, limit)
	if err != nil {
		return nil, &StoreError{Op: "list messages", Err: err}
	}
	return msgs, nil
}
