package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/config"
	"chat-relay/models"
	"chat-relay/repository"
	"chat-relay/services"
	"chat-relay/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	srv     *httptest.Server
	authSvc *services.AuthService
	msgRepo repository.MessageRepository
}

func newTestEnv(t *testing.T, msgRepo repository.MessageRepository) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        1,
		HistoryLimit:     50,
		MaxMessageLength: 1000,
	}
	if msgRepo == nil {
		msgRepo = repository.NewInMemoryMessageRepo()
	}
	userRepo := repository.NewInMemoryUserRepo()
	roomRepo := repository.NewInMemoryRoomRepo()

	hub := ws.NewHub()
	authSvc := services.NewAuthService(userRepo, cfg)
	msgSvc := services.NewMessageService(msgRepo, roomRepo, hub, cfg)
	roomSvc := services.NewRoomService(roomRepo)

	authH := NewAuthHandler(authSvc)
	msgH := NewMessageHandler(msgSvc, authSvc)
	roomH := NewRoomHandler(hub, roomSvc, authSvc, msgSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", authH.Register)
	mux.HandleFunc("/api/login", authH.Login)
	mux.HandleFunc("/api/rooms", roomH.WithAuth(roomH.Rooms))
	mux.HandleFunc("/api/rooms/create", roomH.WithAuth(roomH.Create))
	mux.HandleFunc("/api/messages", msgH.WithAuth(msgH.ListMessages))
	mux.HandleFunc("/ws", roomH.WS)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, authSvc: authSvc, msgRepo: msgRepo}
}

func (e *testEnv) registerUser(t *testing.T, username, email string) (string, *models.User) {
	t.Helper()
	user, err := e.authSvc.Register(context.Background(), username, email, "password1")
	require.NoError(t, err)
	token, err := e.authSvc.CreateToken(user)
	require.NoError(t, err)
	return token, user
}

func (e *testEnv) wsURL(token string) string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
}

func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(e.wsURL(token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) ws.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var env ws.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

// expectSilence asserts no event arrives; the connection is unusable after.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func joinRoom(t *testing.T, conn *websocket.Conn, room string) []models.Message {
	t.Helper()
	sendEvent(t, conn, ws.EventJoinRoom, room)
	env := readEvent(t, conn)
	require.Equal(t, ws.EventRoomMessages, env.Event)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	return msgs
}

func TestWSRejectsBadTokens(t *testing.T) {
	env := newTestEnv(t, nil)

	// well-signed token naming a user the store has never seen
	ghostToken, err := env.authSvc.CreateToken(&models.User{ID: primitive.NewObjectID(), Username: "ghost"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "garbage token", token: "abc.def.ghi"},
		{name: "unknown user", token: ghostToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL(tt.token), nil)
			require.Error(t, err)
			require.Nil(t, conn)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestTwoClientsExchangeMessages(t *testing.T) {
	env := newTestEnv(t, nil)
	tokenA, userA := env.registerUser(t, "alice", "alice@example.com")
	tokenB, _ := env.registerUser(t, "bobby", "bob@example.com")

	connA := env.dial(t, tokenA)
	connB := env.dial(t, tokenB)

	assert.Empty(t, joinRoom(t, connA, "general"))
	assert.Empty(t, joinRoom(t, connB, "general"))

	start := time.Now().UTC()
	sendEvent(t, connA, ws.EventMessage, map[string]any{"content": "hi"})

	for _, conn := range []*websocket.Conn{connA, connB} {
		envlp := readEvent(t, conn)
		require.Equal(t, ws.EventMessage, envlp.Event)

		var msg models.Message
		require.NoError(t, json.Unmarshal(envlp.Data, &msg))
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "general", msg.Room)
		assert.Equal(t, models.MessageTypeText, msg.Type)
		assert.Equal(t, userA.ID, msg.Author.ID)
		assert.Equal(t, "alice", msg.Author.Username)
		assert.False(t, msg.Timestamp.Before(start), "timestamp must be server-assigned at receipt")
	}
}

func TestRoomSwitchStopsDelivery(t *testing.T) {
	env := newTestEnv(t, nil)
	tokenA, _ := env.registerUser(t, "alice", "alice@example.com")
	tokenB, _ := env.registerUser(t, "bobby", "bob@example.com")

	connA := env.dial(t, tokenA)
	connB := env.dial(t, tokenB)

	joinRoom(t, connA, "general")
	joinRoom(t, connA, "random")
	joinRoom(t, connB, "general")

	sendEvent(t, connB, ws.EventMessage, map[string]any{"content": "to-general"})

	// sender gets its own message back through the room
	envlp := readEvent(t, connB)
	require.Equal(t, ws.EventMessage, envlp.Event)

	// alice switched rooms, so nothing may reach her
	expectSilence(t, connA)
}

func TestHistoryDeliveredOnJoin(t *testing.T) {
	env := newTestEnv(t, nil)
	token, user := env.registerUser(t, "alice", "alice@example.com")

	base := time.Now().UTC().Add(-time.Minute)
	for i, content := range []string{"one", "two", "three"} {
		_, err := env.msgRepo.Save(context.Background(), &models.Message{
			Content:   content,
			Author:    user.Author(),
			Room:      "general",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Type:      models.MessageTypeText,
		})
		require.NoError(t, err)
	}

	conn := env.dial(t, token)
	msgs := joinRoom(t, conn, "general")

	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.Equal(t, "three", msgs[2].Content)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
}

func TestSendWhileIdleIsRecoverable(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	conn := env.dial(t, token)
	sendEvent(t, conn, ws.EventMessage, map[string]any{"content": "hi"})

	envlp := readEvent(t, conn)
	require.Equal(t, ws.EventError, envlp.Event)

	var p ws.ErrorPayload
	require.NoError(t, json.Unmarshal(envlp.Data, &p))
	assert.NotEmpty(t, p.Message)

	// the connection survives and can still join and talk
	joinRoom(t, conn, "general")
	sendEvent(t, conn, ws.EventMessage, map[string]any{"content": "hi"})
	envlp = readEvent(t, conn)
	assert.Equal(t, ws.EventMessage, envlp.Event)
}

type failingSaveRepo struct{}

func (failingSaveRepo) Save(context.Context, *models.Message) (*models.Message, error) {
	return nil, errors.New("server selection timeout")
}

func (failingSaveRepo) ListRecent(context.Context, string, int) ([]models.Message, error) {
	return []models.Message{}, nil
}

func TestPersistFailureNotBroadcast(t *testing.T) {
	env := newTestEnv(t, failingSaveRepo{})
	tokenA, _ := env.registerUser(t, "alice", "alice@example.com")
	tokenB, _ := env.registerUser(t, "bobby", "bob@example.com")

	connA := env.dial(t, tokenA)
	connB := env.dial(t, tokenB)
	joinRoom(t, connA, "general")
	joinRoom(t, connB, "general")

	sendEvent(t, connA, ws.EventMessage, map[string]any{"content": "hi"})

	// sender is told the store failed
	envlp := readEvent(t, connA)
	require.Equal(t, ws.EventError, envlp.Event)
	var p ws.ErrorPayload
	require.NoError(t, json.Unmarshal(envlp.Data, &p))
	assert.Equal(t, "Failed to save message", p.Message)

	// nobody else hears a message that was never persisted
	expectSilence(t, connB)
}

func TestDisconnectRemovesFromRoom(t *testing.T) {
	env := newTestEnv(t, nil)
	tokenA, _ := env.registerUser(t, "alice", "alice@example.com")
	tokenB, _ := env.registerUser(t, "bobby", "bob@example.com")

	connA := env.dial(t, tokenA)
	connB := env.dial(t, tokenB)
	joinRoom(t, connA, "general")
	joinRoom(t, connB, "general")

	require.NoError(t, connA.Close())
	// let the server notice the close before broadcasting
	time.Sleep(100 * time.Millisecond)

	sendEvent(t, connB, ws.EventMessage, map[string]any{"content": "still here"})
	envlp := readEvent(t, connB)
	assert.Equal(t, ws.EventMessage, envlp.Event)
}

func TestUnknownEventIsRecoverable(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	conn := env.dial(t, token)
	sendEvent(t, conn, "presence", nil)

	envlp := readEvent(t, conn)
	require.Equal(t, ws.EventError, envlp.Event)

	joinRoom(t, conn, "general")
}

func TestPingPong(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	conn := env.dial(t, token)
	sendEvent(t, conn, ws.EventPing, nil)

	envlp := readEvent(t, conn)
	assert.Equal(t, ws.EventPong, envlp.Event)
}
