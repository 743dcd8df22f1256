package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/averin/ai-chat-api/internal/auth"
	"github.com/averin/ai-chat-api/internal/services"
	"github.com/averin/ai-chat-api/internal/shared"
)

// ConversationHandler exposes a user's conversation history.
type ConversationHandler struct {
	service services.ConversationServiceProvider
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(service services.ConversationServiceProvider) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// List returns the authenticated user's entries, ascending by creation time.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, shared.ErrUnauthorized)
		return
	}

	entries, err := h.service.ListForUser(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list conversations")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
