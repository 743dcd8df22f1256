package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/averin/ai-chat-api/internal/auth"
	"github.com/averin/ai-chat-api/internal/llm"
	"github.com/averin/ai-chat-api/internal/models"
	"github.com/averin/ai-chat-api/internal/queue"
	"github.com/averin/ai-chat-api/internal/services"
	"github.com/averin/ai-chat-api/internal/shared"
)

const (
	defaultModel       = "gpt-3.5-turbo"
	defaultMaxTokens   = 150
	defaultTemperature = 0.7
	defaultHFModel     = "microsoft/DialoGPT-medium"
)

// TextGenerator is the alternative HuggingFace text generation capability.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt, model string) (json.RawMessage, error)
}

// ChatHandler handles synchronous and deferred chat completions.
type ChatHandler struct {
	gateway       llm.CompletionProvider
	textGen       TextGenerator
	conversations services.ConversationServiceProvider
	queue         queue.Queue
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(gateway llm.CompletionProvider, textGen TextGenerator, conversations services.ConversationServiceProvider, q queue.Queue) *ChatHandler {
	return &ChatHandler{
		gateway:       gateway,
		textGen:       textGen,
		conversations: conversations,
		queue:         q,
	}
}

// ChatPayload defines the structure for chat completion requests.
type ChatPayload struct {
	Message     string   `json:"message"`
	Model       string   `json:"model"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

// Normalize validates field constraints and applies defaults, returning the
// request shape the gateway and the queue consume.
func (p *ChatPayload) Normalize() (models.CompletionRequest, error) {
	if len(p.Message) < 1 || len(p.Message) > 1000 {
		return models.CompletionRequest{}, fmt.Errorf("%w: message must be 1-1000 characters", shared.ErrValidation)
	}

	req := models.CompletionRequest{
		Message:     p.Message,
		Model:       p.Model,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if p.MaxTokens != nil {
		if *p.MaxTokens < 1 || *p.MaxTokens > 1000 {
			return models.CompletionRequest{}, fmt.Errorf("%w: max_tokens must be 1-1000", shared.ErrValidation)
		}
		req.MaxTokens = *p.MaxTokens
	}
	if p.Temperature != nil {
		if *p.Temperature < 0 || *p.Temperature > 2 {
			return models.CompletionRequest{}, fmt.Errorf("%w: temperature must be 0-2", shared.ErrValidation)
		}
		req.Temperature = *p.Temperature
	}
	return req, nil
}

func (h *ChatHandler) decode(w http.ResponseWriter, r *http.Request) (models.CompletionRequest, *auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeError(w, shared.ErrUnauthorized)
		return models.CompletionRequest{}, nil, false
	}

	var payload ChatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", shared.ErrValidation))
		return models.CompletionRequest{}, nil, false
	}
	req, err := payload.Normalize()
	if err != nil {
		writeError(w, err)
		return models.CompletionRequest{}, nil, false
	}
	return req, claims, true
}

// Complete handles a synchronous chat completion. The caller blocks for the
// duration of the upstream call, bounded by the gateway's client timeout.
func (h *ChatHandler) Complete(w http.ResponseWriter, r *http.Request) {
	req, claims, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.gateway.Complete(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Str("model", req.Model).Msg("Chat completion failed")
		writeError(w, err)
		return
	}

	if _, err := h.conversations.Append(claims.UserID, req.Message, result.Message, result.Model); err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to store conversation entry")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CompleteBackground enqueues the request for deferred execution and returns
// a handle without waiting for the work to start.
func (h *ChatHandler) CompleteBackground(w http.ResponseWriter, r *http.Request) {
	req, claims, ok := h.decode(w, r)
	if !ok {
		return
	}

	id, err := h.queue.Enqueue(r.Context(), claims.UserID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to enqueue chat task")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"task_id": id,
		"status":  models.TaskPending,
	})
}

// CompleteBackgroundSimple runs the completion in a fire-and-forget
// goroutine with no persisted handle. Lightweight alternative to the queue
// for callers that don't need to poll.
func (h *ChatHandler) CompleteBackgroundSimple(w http.ResponseWriter, r *http.Request) {
	req, claims, ok := h.decode(w, r)
	if !ok {
		return
	}

	userID := claims.UserID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), llm.DefaultTimeout)
		defer cancel()
		result, err := h.gateway.Complete(ctx, req)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Simple background task failed")
			return
		}
		if _, err := h.conversations.Append(userID, req.Message, result.Message, result.Model); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Simple background task: failed to store conversation")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Task added to background queue"})
}

// GetTask handles handle -> status/result lookup for deferred tasks.
func (h *ChatHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, shared.ErrUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	task, err := h.queue.Poll(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HuggingFace handles text generation via the alternative provider.
func (h *ChatHandler) HuggingFace(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		writeError(w, fmt.Errorf("%w: prompt query parameter is required", shared.ErrValidation))
		return
	}
	model := r.URL.Query().Get("model")
	if model == "" {
		model = defaultHFModel
	}

	result, err := h.textGen.GenerateText(r.Context(), prompt, model)
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("HuggingFace generation failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":  result,
		"service": "huggingface",
	})
}
