package models

import (
	"fmt"
	"strings"
)

// Sender identifies who produced a ChatMessage.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderSystem Sender = "system"
)

// ChatMessage is a single entry of the room chat transcript.
// Messages are append-only: once created they are never mutated.
type ChatMessage struct {
	// ID is unique per message within a transcript.
	ID string `json:"id"`
	// Sender is one of "user", "ai" or "system".
	Sender Sender `json:"sender"`
	// SenderName is the display label ("You", "Gemini", "System").
	SenderName string `json:"senderName"`
	// Text is the rendered body of the message.
	Text string `json:"text"`
	// Timestamp is the creation time in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	// GroundingMetadata holds web/maps citations for assistant replies.
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
	// IsMapResponse marks assistant replies produced in maps mode.
	IsMapResponse bool `json:"isMapResponse,omitempty"`
}

// AIMode selects the tool profile used by the assistant.
type AIMode string

const (
	ModeSearch AIMode = "search"
	ModeMaps   AIMode = "maps"
)

// DefaultMode is the mode a fresh chat panel starts in.
const DefaultMode = ModeSearch

// Valid reports whether m is a known mode.
func (m AIMode) Valid() bool {
	return m == ModeSearch || m == ModeMaps
}

// ParseAIMode converts user input into an AIMode. An empty string yields the
// default mode.
func ParseAIMode(s string) (AIMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultMode, nil
	}
	m := AIMode(s)
	if !m.Valid() {
		return "", &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", s)}
	}
	return m, nil
}

// Location is a device position used to bias maps retrieval.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
