package ws

import (
	"log"
	"sync"

	"chat-relay/models"
)

// Hub is the room registry: the only shared mutable structure in the relay.
// All membership mutation goes through its methods, serialized by the mutex.
type Hub struct {
	mu sync.RWMutex

	// room name -> members
	rooms map[string]map[*Client]bool
	// every live connection; presence here means the send channel is open
	conns map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
		conns: make(map[*Client]bool),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = true
}

// Join moves the client into room. A client is a member of at most one room,
// so joining implies leaving the current one. Rejoining the current room is a
// no-op, and an empty room name is just a leave.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.conns[c] || c.room == room {
		return
	}
	h.detachLocked(c)
	if room == "" {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.room = room

	log.Printf("Client %s (%s) joined room %q. Members: %d",
		c.user.Username, c.id, room, len(h.rooms[room]))
}

func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
}

// RemoveConnection is called on disconnect: leave plus releasing all
// bookkeeping for the client.
func (h *Hub) RemoveConnection(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
	if h.conns[c] {
		delete(h.conns, c)
		close(c.send)
	}
}

// detachLocked removes the client from its current room, dropping the room
// entry once empty. Caller holds h.mu.
func (h *Hub) detachLocked(c *Client) {
	if c.room == "" {
		return
	}
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
			log.Printf("Room %q is now empty, removing from hub", c.room)
		}
	}
	c.room = ""
}

// Broadcast delivers data to every member of the room. Sends are
// non-blocking: a member whose buffer is full is dropped from the hub rather
// than allowed to stall delivery to the rest.
func (h *Hub) Broadcast(room string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			log.Printf("Client %s (%s) too slow, dropping from room %q", c.user.Username, c.id, room)
			h.detachLocked(c)
			delete(h.conns, c)
			close(c.send)
		}
	}
}

// Send queues data for a single client. Returns false if the client is gone
// or its buffer is full; the caller treats that as a discarded result.
func (h *Hub) Send(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.conns[c] {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// BroadcastMessage implements services.MessageBroadcaster: fan-out of a
// persisted message to the members of its room, sender included.
func (h *Hub) BroadcastMessage(msg models.Message) {
	data, err := encodeEvent(EventMessage, msg)
	if err != nil {
		log.Printf("Could not encode message %s: %v", msg.ID.Hex(), err)
		return
	}
	h.Broadcast(msg.Room, data)
}

// RoomCount reports the number of members currently in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
