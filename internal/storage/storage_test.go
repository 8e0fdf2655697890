package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"meetroom/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *storage.Service {
	t.Helper()
	db, err := storage.OpenDatabase(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return storage.NewStorageService(db, nil)
}

func TestKV_SetGetDelete(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := newTestService(t)

	// Act & Assert: missing key
	_, ok, err := s.Get(ctx, "meet.user")
	require.NoError(t, err)
	assert.False(t, ok, "fresh store must not contain the key")

	// Act & Assert: set then overwrite
	require.NoError(t, s.Set(ctx, "meet.user", `{"id":"1"}`))
	require.NoError(t, s.Set(ctx, "meet.user", `{"id":"2"}`))
	v, ok, err := s.Get(ctx, "meet.user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"2"}`, v, "Set must replace the previous value")

	// Act & Assert: delete, twice
	require.NoError(t, s.Delete(ctx, "meet.user"))
	require.NoError(t, s.Delete(ctx, "meet.user"), "deleting a missing key is a no-op")
	_, ok, err = s.Get(ctx, "meet.user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoster_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.ParticipantCount(ctx, "room")
	assert.ErrorIs(t, err, storage.ErrRosterUnavailable)

	unsubscribe, err := s.SubscribeParticipants(ctx, "room", func(int) {})
	assert.ErrorIs(t, err, storage.ErrRosterUnavailable)
	assert.Nil(t, unsubscribe)
}

func TestOpenRedis_EmptyAddrDisablesRoster(t *testing.T) {
	rdb, err := storage.OpenRedis(context.Background(), "", "", 0)
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}
