package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"chat-relay/models"
	"chat-relay/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readLimit     = 1 << 20
	readDeadline  = 300 * time.Second
	writeDeadline = 30 * time.Second
	pingInterval  = 240 * time.Second
	sendBuffer    = 256
)

// Client is one authenticated connection. The identity is fixed at upgrade
// time; the current room only ever changes through the hub, under its lock.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	user *models.User
	room string // guarded by hub.mu

	msgSvc  *services.MessageService
	authSvc *services.AuthService

	ctx    context.Context
	cancel context.CancelFunc
}

func (c *Client) Room() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.room
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS: allow all, the browser client is served from another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an already-authenticated request and starts the
// connection's read and write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, user *models.User, msgSvc *services.MessageService, authSvc *services.AuthService) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for user %s: %v", user.Username, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		user:    user,
		msgSvc:  msgSvc,
		authSvc: authSvc,
		ctx:     ctx,
		cancel:  cancel,
	}
	h.Register(client)
	log.Printf("Client %s connected as %s", client.id, user.Username)

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.RemoveConnection(c)
		c.authSvc.TouchLastSeen(context.Background(), c.user.ID)
		c.conn.Close()
		log.Printf("Client %s (%s) disconnected", c.user.Username, c.id)
	}()
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Client %s read error: %v", c.user.Username, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("malformed event")
			continue
		}
		c.handleEvent(env)
	}
}

// handleEvent runs the per-connection state machine. Bad events are reported
// back to this connection only and never tear it down.
func (c *Client) handleEvent(env Envelope) {
	switch env.Event {
	case EventJoinRoom:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil {
			c.sendError("join-room expects a room name")
			return
		}
		if room == "" {
			c.hub.Leave(c)
			return
		}
		c.hub.Join(c, room)
		go c.sendHistory(room)

	case EventLeaveRoom:
		c.hub.Leave(c)

	case EventGetRoomMessages:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil || room == "" {
			c.sendError("get-room-messages expects a room name")
			return
		}
		go c.sendHistory(room)

	case EventMessage:
		var p MessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.sendError("malformed message payload")
			return
		}
		c.dispatch(p)

	case EventPing:
		if data, err := encodeEvent(EventPong, nil); err == nil {
			c.hub.Send(c, data)
		}

	default:
		c.sendError("unknown event " + env.Event)
	}
}

// dispatch persists and broadcasts one message. The session's room and
// identity win over anything in the payload.
func (c *Client) dispatch(p MessagePayload) {
	room := c.Room()
	if room == "" {
		c.sendError("join a room before sending messages")
		return
	}

	_, err := c.msgSvc.Send(c.ctx, room, c.user, p.Content, p.Type, p.Metadata)
	if err != nil {
		var storeErr *services.StoreError
		if errors.As(err, &storeErr) {
			log.Printf("Client %s message persist error: %v", c.user.Username, err)
			c.sendError("Failed to save message")
			return
		}
		c.sendError(err.Error())
	}
}

// sendHistory delivers the room backlog to this connection only. If the
// connection is gone by the time the fetch finishes the result is discarded.
func (c *Client) sendHistory(room string) {
	msgs, err := c.msgSvc.Recent(c.ctx, room, 0)
	if err != nil {
		log.Printf("Client %s history fetch error for room %q: %v", c.user.Username, room, err)
		c.sendError("Failed to fetch messages")
		return
	}
	data, err := encodeEvent(EventRoomMessages, msgs)
	if err != nil {
		log.Printf("Could not encode history for room %q: %v", room, err)
		return
	}
	c.hub.Send(c, data)
}

func (c *Client) sendError(msg string) {
	data, err := encodeEvent(EventError, ErrorPayload{Message: msg})
	if err != nil {
		return
	}
	c.hub.Send(c, data)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("Client %s write error: %v", c.user.Username, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte(c.id)); err != nil {
				return
			}
		}
	}
}
