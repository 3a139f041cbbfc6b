package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ansv-auth/internal/model"
)

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	alice := model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	_, err := s.Create(ctx, alice)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	got, err = s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.GetByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.GetByIdentifier(ctx, "bob")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Create(ctx, model.User{ID: uuid.New(), Username: "alice", Email: "x@example.com"})
	require.ErrorIs(t, err, model.ErrUsernameTaken)

	_, err = s.Create(ctx, model.User{ID: uuid.New(), Username: "x", Email: "alice@example.com"})
	require.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestStore_GetByIdentifier_PrefersUsername(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	byEmail := model.User{ID: uuid.New(), Username: "first", Email: "shared@example.com"}
	byName := model.User{ID: uuid.New(), Username: "shared@example.com", Email: "second@example.com"}
	_, err := s.Create(ctx, byEmail)
	require.NoError(t, err)
	_, err = s.Create(ctx, byName)
	require.NoError(t, err)

	got, err := s.GetByIdentifier(ctx, "shared@example.com")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, got.ID)
}

func TestStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	userID := uuid.New()
	now := time.Now()

	first := model.Session{ID: "1", UserID: userID, TokenHash: "h1", ExpiresAt: now.Add(time.Hour)}
	_, err := s.ReplaceForUser(ctx, first)
	require.NoError(t, err)

	second := model.Session{ID: "2", UserID: userID, TokenHash: "h2", ExpiresAt: now.Add(time.Hour)}
	_, err = s.ReplaceForUser(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SessionCount(userID))

	_, err = s.FindByTokenHash(ctx, "h1")
	require.ErrorIs(t, err, model.ErrNotFound)

	got, err := s.FindByTokenHash(ctx, "h2")
	require.NoError(t, err)
	assert.Equal(t, second, got)

	require.NoError(t, s.DeleteByTokenHash(ctx, "h2"))
	require.NoError(t, s.DeleteByTokenHash(ctx, "h2"))
	assert.Equal(t, 0, s.SessionCount(userID))

	_, err = s.ReplaceForUser(ctx, model.Session{ID: "3", UserID: userID, TokenHash: "h3", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, s.DeleteByUserID(ctx, userID))
	assert.Equal(t, 0, s.SessionCount(userID))

	_, err = s.ReplaceForUser(ctx, model.Session{ID: "4", UserID: userID, TokenHash: "h4", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	consumed, err := s.ConsumeByTokenHash(ctx, "h4")
	require.NoError(t, err)
	assert.Equal(t, "4", consumed.ID)
	assert.Equal(t, 0, s.SessionCount(userID))
	_, err = s.ConsumeByTokenHash(ctx, "h4")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.FindByTokenHash(ctx, "h4")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.ReplaceForUser(ctx, model.Session{ID: "5", UserID: userID, TokenHash: "h5", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, s.DeleteByID(ctx, "5"))
	assert.Equal(t, 0, s.SessionCount(userID))
}

func TestStore_ReplaceForUser_RejectsForeignTokenHash(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.ReplaceForUser(ctx, model.Session{ID: "1", UserID: uuid.New(), TokenHash: "same"})
	require.NoError(t, err)

	_, err = s.ReplaceForUser(ctx, model.Session{ID: "2", UserID: uuid.New(), TokenHash: "same"})
	require.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now()

	for i, offset := range []time.Duration{-time.Hour, 0, time.Hour} {
		_, err := s.ReplaceForUser(ctx, model.Session{
			ID:        uuid.NewString(),
			UserID:    uuid.New(),
			TokenHash: string(rune('a' + i)),
			ExpiresAt: now.Add(offset),
		})
		require.NoError(t, err)
	}

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.FindByTokenHash(ctx, "c")
	require.NoError(t, err)
}

func TestStore_ConcurrentReplaceKeepsOneSession(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	userID := uuid.New()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ReplaceForUser(ctx, model.Session{
				ID:        uuid.NewString(),
				UserID:    userID,
				TokenHash: uuid.NewString(),
				ExpiresAt: time.Now().Add(time.Hour),
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.SessionCount(userID))
}
