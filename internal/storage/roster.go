package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"meetroom/backend/internal/models"

	"github.com/pkg/errors"
)

func participantsKey(roomID string) string {
	return "rooms:" + roomID + ":participants"
}

func participantsChannel(roomID string) string {
	return participantsKey(roomID) + ":events"
}

// AddParticipant writes the user's roster entry and notifies subscribers.
func (s *Service) AddParticipant(ctx context.Context, roomID, userID string, rec models.ParticipantRecord) error {
	if s.Redis == nil {
		return ErrRosterUnavailable
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.Redis.HSet(ctx, participantsKey(roomID), userID, payload).Err(); err != nil {
		return errors.Wrap(err, "roster add")
	}
	if err := s.Redis.Publish(ctx, participantsChannel(roomID), "join:"+userID).Err(); err != nil {
		return errors.Wrap(err, "roster notify")
	}
	return nil
}

// RemoveParticipant deletes the user's roster entry and notifies subscribers.
func (s *Service) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	if s.Redis == nil {
		return ErrRosterUnavailable
	}
	if err := s.Redis.HDel(ctx, participantsKey(roomID), userID).Err(); err != nil {
		return errors.Wrap(err, "roster remove")
	}
	if err := s.Redis.Publish(ctx, participantsChannel(roomID), "leave:"+userID).Err(); err != nil {
		return errors.Wrap(err, "roster notify")
	}
	return nil
}

// ParticipantCount returns the number of roster entries for roomID.
func (s *Service) ParticipantCount(ctx context.Context, roomID string) (int, error) {
	if s.Redis == nil {
		return 0, ErrRosterUnavailable
	}
	n, err := s.Redis.HLen(ctx, participantsKey(roomID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "roster count")
	}
	return int(n), nil
}

// SubscribeParticipants calls onCount with the current roster size and again
// after every change. onCount always runs on a background goroutine. The
// returned function stops delivery and is safe to call more than once.
func (s *Service) SubscribeParticipants(ctx context.Context, roomID string, onCount func(int)) (func(), error) {
	if s.Redis == nil {
		return nil, ErrRosterUnavailable
	}

	pubsub := s.Redis.Subscribe(ctx, participantsChannel(roomID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "roster subscribe")
	}

	subCtx, cancel := context.WithCancel(context.Background())
	ch := pubsub.Channel()

	go func() {
		s.emitCount(subCtx, roomID, onCount)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.emitCount(subCtx, roomID, onCount)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				slog.Warn("roster unsubscribe failed", "room", roomID, "err", err)
			}
		})
	}, nil
}

func (s *Service) emitCount(ctx context.Context, roomID string, onCount func(int)) {
	n, err := s.ParticipantCount(ctx, roomID)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("roster count failed", "room", roomID, "err", err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	onCount(n)
}
