// Package transcript holds the ordered chat log of one room session.
package transcript

import (
	"sync"

	"meetroom/backend/internal/models"
)

// Transcript is an append-only message log. Appends keep call order and
// readers always get a consistent copy.
type Transcript struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
	ids      map[string]struct{}
}

func New() *Transcript {
	return &Transcript{ids: make(map[string]struct{})}
}

// Append adds msg at the end. A message whose id is already present is
// rejected and false is returned.
func (t *Transcript) Append(msg models.ChatMessage) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.ids[msg.ID]; dup {
		return false
	}
	t.ids[msg.ID] = struct{}{}
	t.messages = append(t.messages, msg)
	return true
}

// All returns a copy of every message in insertion order.
func (t *Transcript) All() []models.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (models.ChatMessage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return models.ChatMessage{}, false
	}
	return t.messages[len(t.messages)-1], true
}
