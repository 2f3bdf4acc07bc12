package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"chat-relay/services"
	"chat-relay/ws"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomHandler struct {
	hub     *ws.Hub
	roomSvc *services.RoomService
	authSvc *services.AuthService
	msgSvc  *services.MessageService
}

func NewRoomHandler(h *ws.Hub, rs *services.RoomService, a *services.AuthService, m *services.MessageService) *RoomHandler {
	return &RoomHandler{hub: h, roomSvc: rs, authSvc: a, msgSvc: m}
}

// WithAuth resolves the bearer token and stashes the user id in a header for
// the wrapped handler.
func (h *RoomHandler) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondWithError(w, "Unauthorized", "Missing Authorization header", http.StatusUnauthorized)
			return
		}
		user, err := h.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-User-ID", user.ID.Hex())
		r.Header.Set("X-Username", user.Username)
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return auth
}

// List chat rooms visible to the caller
func (h *RoomHandler) Rooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	uid, err := primitive.ObjectIDFromHex(r.Header.Get("X-User-ID"))
	if err != nil {
		respondWithError(w, "Unauthorized", "Invalid user", http.StatusUnauthorized)
		return
	}

	rooms, err := h.roomSvc.ListRooms(r.Context(), uid)
	if err != nil {
		respondWithError(w, "Internal error", "Failed to list rooms", http.StatusInternalServerError)
		return
	}

	respondWithSuccess(w, rooms)
}

// Create a chat room; the creator becomes its first member
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", "Use POST method", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		IsPrivate   bool   `json:"isPrivate"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid JSON", "Bad request format", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		respondWithError(w, "Missing name", "Room name is required", http.StatusBadRequest)
		return
	}

	uid, err := primitive.ObjectIDFromHex(r.Header.Get("X-User-ID"))
	if err != nil {
		respondWithError(w, "Unauthorized", "Invalid user", http.StatusUnauthorized)
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, req.Description, req.IsPrivate, uid)
	if err != nil {
		respondWithError(w, "Room creation failed", err.Error(), http.StatusBadRequest)
		return
	}

	respondWithSuccess(w, room)
}

// WS authenticates the connection-time token and hands the request to the hub.
// All room traffic after this point flows over the socket.
func (h *RoomHandler) WS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		log.Printf("WebSocket connection rejected: missing token parameter")
		respondWithError(w, "Unauthorized", "token query parameter is required", http.StatusUnauthorized)
		return
	}

	user, err := h.authSvc.Authenticate(r.Context(), token)
	if err != nil {
		log.Printf("WebSocket connection rejected: %v", err)
		respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
		return
	}

	h.hub.ServeWS(w, r, user, h.msgSvc, h.authSvc)
}
