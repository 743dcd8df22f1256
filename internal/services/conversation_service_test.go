package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averin/ai-chat-api/internal/models"
)

func seedUser(t *testing.T, svc *UserService, username, email string) models.User {
	t.Helper()
	user, err := svc.CreateUser(username, email, "pw123456")
	require.NoError(t, err)
	return user
}

func TestConversationAppendAndList(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewConversationService(db)

	alice := seedUser(t, users, "alice", "a@x.com")

	entry, err := svc.Append(alice.ID, "hi", "hello!", "gpt-3.5-turbo")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hi", entries[0].Prompt)
	assert.Equal(t, "hello!", entries[0].Response)
}

func TestConversationList_OrderedAscending(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewConversationService(db)

	alice := seedUser(t, users, "alice", "a@x.com")

	prompts := []string{"first", "second", "third"}
	for _, p := range prompts {
		_, err := svc.Append(alice.ID, p, "r:"+p, "gpt-3.5-turbo")
		require.NoError(t, err)
	}

	entries, err := svc.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, len(prompts))
	for i, p := range prompts {
		assert.Equal(t, p, entries[i].Prompt)
		if i > 0 {
			assert.False(t, entries[i].CreatedAt.Before(entries[i-1].CreatedAt))
		}
	}
}

func TestConversationList_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewConversationService(db)

	alice := seedUser(t, users, "alice", "a@x.com")
	bob := seedUser(t, users, "bob", "b@x.com")

	_, err := svc.Append(alice.ID, "alice prompt", "r", "m")
	require.NoError(t, err)
	_, err = svc.Append(bob.ID, "bob prompt", "r", "m")
	require.NoError(t, err)

	entries, err := svc.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice prompt", entries[0].Prompt)
}

func TestConversationList_EmptyForNewUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	svc := NewConversationService(db)

	alice := seedUser(t, users, "alice", "a@x.com")

	entries, err := svc.ListForUser(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
