package models

import "time"

// ConversationEntry is one stored prompt/response exchange. Entries are
// append-only and always belong to an existing user.
type ConversationEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}
