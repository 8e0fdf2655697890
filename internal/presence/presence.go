// Package presence announces this client in a room roster and reports the
// live participant count. Roster failures are logged and degrade the count to
// just the local user; they never block the session.
package presence

import (
	"context"
	"log/slog"
	"time"

	"meetroom/backend/internal/models"
	"meetroom/backend/internal/storage"
)

type Presence struct {
	roster storage.Roster
	now    func() time.Time
}

func New(roster storage.Roster) *Presence {
	return &Presence{roster: roster, now: time.Now}
}

// Join registers {name, joinedAt} for user in roomID. Re-joining overwrites
// the previous record.
func (p *Presence) Join(ctx context.Context, roomID string, user models.User) error {
	rec := models.ParticipantRecord{Name: user.Name, JoinedAt: p.now().UnixMilli()}
	if err := p.roster.AddParticipant(ctx, roomID, user.ID, rec); err != nil {
		perr := &models.PresenceError{Op: "join", RoomID: roomID, Err: err}
		slog.Warn("presence join failed", "room_id", roomID, "user_id", user.ID, "err", err)
		return perr
	}
	slog.Debug("presence joined", "room_id", roomID, "user_id", user.ID)
	return nil
}

// Leave removes the registration for user in roomID.
func (p *Presence) Leave(ctx context.Context, roomID string, user models.User) error {
	if err := p.roster.RemoveParticipant(ctx, roomID, user.ID); err != nil {
		slog.Warn("presence leave failed", "room_id", roomID, "user_id", user.ID, "err", err)
		return &models.PresenceError{Op: "leave", RoomID: roomID, Err: err}
	}
	return nil
}

// SubscribeCount delivers roster sizes to onChange until the returned
// function is called. onChange is never called synchronously from here. On
// failure the error is logged and a no-op unsubscribe is returned.
func (p *Presence) SubscribeCount(ctx context.Context, roomID string, onChange func(count int)) func() {
	unsubscribe, err := p.roster.SubscribeParticipants(ctx, roomID, onChange)
	if err != nil {
		slog.Warn("presence subscribe failed", "room_id", roomID,
			"err", &models.PresenceError{Op: "subscribe", RoomID: roomID, Err: err})
		return func() {}
	}
	return unsubscribe
}

// DisplayCount is the participant count shown for a room: the roster size,
// never less than one for the local user.
func DisplayCount(rosterSize int) int {
	return max(rosterSize, 1)
}
