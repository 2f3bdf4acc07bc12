package ws

import "encoding/json"

// Inbound and outbound event names. The envelope is the same shape in both
// directions: {"event": "...", "data": ...}.
const (
	EventJoinRoom        = "join-room"
	EventLeaveRoom       = "leave-room"
	EventGetRoomMessages = "get-room-messages"
	EventMessage         = "message"
	EventRoomMessages    = "room-messages"
	EventError           = "error"
	EventPing            = "ping"
	EventPong            = "pong"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// MessagePayload is the client's send-message body. Room is accepted for
// compatibility but ignored: the session's current room is authoritative.
type MessagePayload struct {
	Content  string         `json:"content"`
	Room     string         `json:"room,omitempty"`
	Type     string         `json:"type,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
