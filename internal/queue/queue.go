package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/averin/ai-chat-api/internal/models"
	"github.com/averin/ai-chat-api/internal/shared"
)

// Queue is the message-passing contract between the request-serving process
// and the workers. Submission returns a handle immediately; the handle is
// the sole means of later retrieving status and result. The backing broker
// is an implementation detail behind this interface.
type Queue interface {
	Enqueue(ctx context.Context, userID string, req models.CompletionRequest) (string, error)
	Poll(ctx context.Context, id, userID string) (models.ChatTask, error)
	Claim(ctx context.Context) (*models.ChatTask, error)
	Succeed(ctx context.Context, id string, result json.RawMessage) error
	Fail(ctx context.Context, id, errMsg string) error
	PurgeExpired(ctx context.Context, resultTTL time.Duration) (int64, error)
	Depth(ctx context.Context) (map[models.TaskStatus]int, error)
}

// SQLiteQueue implements Queue on the shared database. Task state is
// monotonic pending -> running -> {succeeded, failed}; every transition is a
// guarded UPDATE so a terminal row can never revert.
type SQLiteQueue struct {
	db *sql.DB
}

// NewSQLiteQueue creates a queue over the given database.
func NewSQLiteQueue(db *sql.DB) *SQLiteQueue {
	return &SQLiteQueue{db: db}
}

// Enqueue records a new pending task and returns its handle. It never waits
// for execution to start.
func (q *SQLiteQueue) Enqueue(ctx context.Context, userID string, req models.CompletionRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = q.db.ExecContext(ctx,
		"INSERT INTO chat_tasks (id, user_id, status, request_json) VALUES (?, ?, ?, ?)",
		id, userID, models.TaskPending, string(payload),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Poll looks up a task by handle, scoped to its submitting user. Unknown and
// expired handles fail with shared.ErrNotFound, as do handles submitted by
// another user.
func (q *SQLiteQueue) Poll(ctx context.Context, id, userID string) (models.ChatTask, error) {
	var task models.ChatTask
	var result, errMsg sql.NullString

	row := q.db.QueryRowContext(ctx,
		"SELECT id, user_id, status, request_json, result_json, error, created_at, updated_at FROM chat_tasks WHERE id = ? AND user_id = ?",
		id, userID,
	)
	err := row.Scan(&task.ID, &task.UserID, &task.Status, (*[]byte)(&task.Request), &result, &errMsg, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.ChatTask{}, fmt.Errorf("%w: task %s", shared.ErrNotFound, id)
		}
		return models.ChatTask{}, err
	}

	if result.Valid {
		task.Result = json.RawMessage(result.String)
	}
	if errMsg.Valid {
		task.Error = errMsg.String
	}
	return task, nil
}

// Claim atomically takes the oldest pending task, moving it to running.
// Returns nil when the queue is empty. The select-and-update runs in one
// transaction so concurrent workers cannot claim the same task.
func (q *SQLiteQueue) Claim(ctx context.Context) (*models.ChatTask, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var task models.ChatTask
	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, request_json FROM chat_tasks WHERE status = ? ORDER BY created_at ASC, rowid ASC LIMIT 1",
		models.TaskPending,
	)
	if err := row.Scan(&task.ID, &task.UserID, (*[]byte)(&task.Request)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE chat_tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		models.TaskRunning, task.ID, models.TaskPending,
	)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		// Someone else got it between the select and the update.
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	task.Status = models.TaskRunning
	return &task, nil
}

// Succeed records the result of a running task and moves it to its terminal
// succeeded state.
func (q *SQLiteQueue) Succeed(ctx context.Context, id string, result json.RawMessage) error {
	return q.finish(ctx, id, models.TaskSucceeded, string(result), "")
}

// Fail records the error detail of a running task and moves it to failed.
func (q *SQLiteQueue) Fail(ctx context.Context, id, errMsg string) error {
	return q.finish(ctx, id, models.TaskFailed, "", errMsg)
}

func (q *SQLiteQueue) finish(ctx context.Context, id string, status models.TaskStatus, result, errMsg string) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE chat_tasks SET status = ?, result_json = NULLIF(?, ''), error = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		status, result, errMsg, id, models.TaskRunning,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: task %s is not running", shared.ErrNotFound, id)
	}
	return nil
}

// PurgeExpired deletes terminal tasks whose last update is older than the
// result TTL. A purged handle polls as not-found afterwards.
func (q *SQLiteQueue) PurgeExpired(ctx context.Context, resultTTL time.Duration) (int64, error) {
	// CURRENT_TIMESTAMP writes "YYYY-MM-DD HH:MM:SS", so the cutoff must be
	// bound in the same format for the text comparison to hold.
	cutoff := time.Now().UTC().Add(-resultTTL).Format("2006-01-02 15:04:05")
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM chat_tasks WHERE status IN (?, ?) AND updated_at < ?",
		models.TaskSucceeded, models.TaskFailed, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Depth returns the number of tasks per status.
func (q *SQLiteQueue) Depth(ctx context.Context) (map[models.TaskStatus]int, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM chat_tasks GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	depth := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		depth[status] = count
	}
	return depth, rows.Err()
}
