package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/averin/ai-chat-api/internal/models"
)

// ConversationServiceProvider defines the interface for conversation services.
type ConversationServiceProvider interface {
	Append(userID, prompt, response, model string) (models.ConversationEntry, error)
	ListForUser(userID string) ([]models.ConversationEntry, error)
}

// ConversationService persists chat exchanges. The log is append-only;
// entries are never mutated or deleted.
type ConversationService struct {
	db *sql.DB
}

// NewConversationService creates a new ConversationService.
func NewConversationService(db *sql.DB) *ConversationService {
	return &ConversationService{db: db}
}

// Append inserts a new conversation entry for a user.
func (s *ConversationService) Append(userID, prompt, response, model string) (models.ConversationEntry, error) {
	entry := models.ConversationEntry{
		ID:       uuid.New().String(),
		UserID:   userID,
		Prompt:   prompt,
		Response: response,
		Model:    model,
	}

	stmt, err := s.db.Prepare("INSERT INTO conversations (id, user_id, prompt, response, model) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return models.ConversationEntry{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(entry.ID, entry.UserID, entry.Prompt, entry.Response, entry.Model); err != nil {
		return models.ConversationEntry{}, err
	}

	row := s.db.QueryRow("SELECT created_at FROM conversations WHERE id = ?", entry.ID)
	if err := row.Scan(&entry.CreatedAt); err != nil {
		return models.ConversationEntry{}, err
	}
	return entry, nil
}

// ListForUser retrieves all entries belonging to a user, ascending by
// creation time. The rowid tie-break keeps ordering stable for entries
// created within the same clock tick. The list is unbounded.
func (s *ConversationService) ListForUser(userID string) ([]models.ConversationEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, prompt, response, model, created_at FROM conversations WHERE user_id = ? ORDER BY created_at ASC, rowid ASC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.ConversationEntry{}
	for rows.Next() {
		var entry models.ConversationEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Prompt, &entry.Response, &entry.Model, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
