package handlers

import (
	"net/http"
	"strconv"

	"chat-relay/services"
)

type MessageHandler struct {
	svc     *services.MessageService
	authSvc *services.AuthService
}

func NewMessageHandler(s *services.MessageService, a *services.AuthService) *MessageHandler {
	return &MessageHandler{svc: s, authSvc: a}
}

func (h *MessageHandler) WithAuth(next http.HandlerFunc) http.HandlerFunc {
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
		next(w, r)
	}
}

// ListMessages serves the same backlog the relay delivers on join, over REST.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", "Use GET method", http.StatusMethodNotAllowed)
		return
	}

	room := r.URL.Query().Get("room")
	if room == "" {
		respondWithError(w, "Missing parameter", "room query parameter is required", http.StatusBadRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	msgs, err := h.svc.Recent(r.Context(), room, limit)
	if err != nil {
		respondWithError(w, "Failed to fetch messages", err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithSuccess(w, msgs)
}
