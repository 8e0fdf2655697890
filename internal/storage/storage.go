// Package storage persists the local identity in a SQL key/value table and
// tracks room rosters in Redis.
package storage

import (
	"context"

	"meetroom/backend/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// KV is durable string storage scoped to this client.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Roster is the shared per-room participant registry.
type Roster interface {
	AddParticipant(ctx context.Context, roomID, userID string, rec models.ParticipantRecord) error
	RemoveParticipant(ctx context.Context, roomID, userID string) error
	ParticipantCount(ctx context.Context, roomID string) (int, error)
	SubscribeParticipants(ctx context.Context, roomID string, onCount func(int)) (func(), error)
}

type Storage interface {
	KV
	Roster
}

// ErrRosterUnavailable is returned by roster calls when no Redis client is
// configured.
var ErrRosterUnavailable = errors.New("participant roster is not configured")

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService wires a Service. rdb may be nil, in which case every
// roster call fails with ErrRosterUnavailable.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Get returns the stored value and whether the key exists.
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.DB.WithContext(ctx).First(&entry, "entry_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "kv get %q", key)
	}
	return entry.Value, true, nil
}

// Set creates or replaces the value for key.
func (s *Service) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value}
	if err := s.DB.WithContext(ctx).Save(&entry).Error; err != nil {
		return errors.Wrapf(err, "kv set %q", key)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.DB.WithContext(ctx).Delete(&models.KVEntry{}, "entry_key = ?", key).Error; err != nil {
		return errors.Wrapf(err, "kv delete %q", key)
	}
	return nil
}
