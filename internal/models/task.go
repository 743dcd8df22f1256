package models

import (
	"encoding/json"
	"time"
)

// TaskStatus describes where a deferred chat task is in its lifecycle.
// Transitions are monotonic: pending -> running -> succeeded or failed.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// ChatTask is a deferred completion request tracked by its handle. The
// result payload is present only once the task has succeeded.
type ChatTask struct {
	ID        string          `json:"task_id"`
	UserID    string          `json:"-"`
	Status    TaskStatus      `json:"status"`
	Request   json.RawMessage `json:"-"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}
