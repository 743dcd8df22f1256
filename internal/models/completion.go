package models

import "time"

// CompletionRequest is the normalized shape of a chat completion call as the
// gateway and the queue see it, after boundary validation and defaulting.
type CompletionRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// TokenUsage mirrors the provider's token accounting.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult is the normalized provider response returned to clients
// and stored as a task result.
type CompletionResult struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Model     string     `json:"model"`
	Usage     TokenUsage `json:"usage"`
	CreatedAt time.Time  `json:"created_at"`
}
