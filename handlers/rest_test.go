package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url string, body any, token string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeSuccess(t *testing.T, resp *http.Response) json.RawMessage {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	return body.Data
}

func TestRegisterAndLoginEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := postJSON(t, env.srv.URL+"/api/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(decodeSuccess(t, resp), &reg))
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice", reg.User.Username)

	// duplicate registration is rejected
	resp = postJSON(t, env.srv.URL+"/api/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password1",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, env.srv.URL+"/api/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password1",
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, env.srv.URL+"/api/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoomEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	tokenA, _ := env.registerUser(t, "alice", "alice@example.com")
	tokenB, _ := env.registerUser(t, "bobby", "bob@example.com")

	resp := postJSON(t, env.srv.URL+"/api/rooms/create", map[string]any{
		"name":        "engineering",
		"description": "shop talk",
		"isPrivate":   true,
	}, tokenA)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, env.srv.URL+"/api/rooms/create", map[string]any{"name": "lounge"}, tokenA)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// creator sees both rooms
	resp = getJSON(t, env.srv.URL+"/api/rooms", tokenA)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rooms []struct {
		Name      string `json:"name"`
		IsPrivate bool   `json:"isPrivate"`
	}
	require.NoError(t, json.Unmarshal(decodeSuccess(t, resp), &rooms))
	assert.Len(t, rooms, 2)

	// a non-member only sees the public one
	resp = getJSON(t, env.srv.URL+"/api/rooms", tokenB)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(decodeSuccess(t, resp), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "lounge", rooms[0].Name)

	// no token, no rooms
	resp = getJSON(t, env.srv.URL+"/api/rooms", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessagesEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.registerUser(t, "alice", "alice@example.com")

	conn := env.dial(t, token)
	joinRoom(t, conn, "general")
	sendEvent(t, conn, "message", map[string]any{"content": "hello rest"})
	readEvent(t, conn)

	resp := getJSON(t, env.srv.URL+"/api/messages?room=general", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msgs []struct {
		Content string `json:"content"`
		Room    string `json:"room"`
	}
	require.NoError(t, json.Unmarshal(decodeSuccess(t, resp), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello rest", msgs[0].Content)
	assert.Equal(t, "general", msgs[0].Room)

	resp = getJSON(t, env.srv.URL+"/api/messages", token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
