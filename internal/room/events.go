package room

import (
	"log/slog"

	"meetroom/backend/internal/models"
)

// Subscribe registers fn for every RoomEvent. fn runs on the goroutine that
// caused the change and must not block. The returned function removes it.
func (c *Controller) Subscribe(fn func(models.RoomEvent)) func() {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

func (c *Controller) emit(t models.EventType, roomID string, payload any) {
	ev := models.RoomEvent{Type: t, RoomID: roomID, At: c.now(), Payload: payload}

	c.subsMu.RLock()
	fns := make([]func(models.RoomEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("room event subscriber panicked", "event", t, "panic", r)
				}
			}()
			fn(ev)
		}()
	}
}
