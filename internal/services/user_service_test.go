package services

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averin/ai-chat-api/internal/database"
	"github.com/averin/ai-chat-api/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateUser(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	user, err := svc.CreateUser("alice", "a@x.com", "pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.CreateUser("alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	// Same username with a different email still conflicts.
	_, err = svc.CreateUser("alice", "other@x.com", "pw123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict), "got %v", err)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.CreateUser("alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	_, err = svc.CreateUser("bob", "a@x.com", "pw123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict), "got %v", err)
}

func TestCreateUser_NeverStoresPlaintext(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.CreateUser("alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	var hash string
	require.NoError(t, db.QueryRow("SELECT password_hash FROM users WHERE username = ?", "alice").Scan(&hash))
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "pw123456", hash)
}

func TestAuthenticateUser(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	created, err := svc.CreateUser("alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	user, err := svc.AuthenticateUser("alice", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthenticateUser_WrongPassword(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.CreateUser("alice", "a@x.com", "pw123456")
	require.NoError(t, err)

	_, err = svc.AuthenticateUser("alice", "wrong-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnauthorized), "got %v", err)
}

func TestAuthenticateUser_UnknownUser(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.AuthenticateUser("nobody", "pw123456")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnauthorized), "got %v", err)
}

func TestGetUserByID_NotFound(t *testing.T) {
	svc := NewUserService(newTestDB(t))

	_, err := svc.GetUserByID("missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound), "got %v", err)
}
