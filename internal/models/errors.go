package models

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is checks on the typed errors below.
var (
	ErrValidation       = errors.New("validation failed")
	ErrMediaAcquisition = errors.New("media acquisition failed")
	ErrPresence         = errors.New("presence unavailable")
	ErrAssistant        = errors.New("assistant request failed")
)

var (
	ErrNotInRoom           = errors.New("not in a room")
	ErrAlreadyInRoom       = errors.New("already in a room")
	ErrTurnInFlight        = errors.New("an assistant turn is already in flight")
	ErrTurnDiscarded       = errors.New("room was left before the assistant replied")
	ErrSessionTerminated   = errors.New("media session terminated")
	ErrPlatformUnsupported = errors.New("media capture is not supported on this platform")
	ErrNotAuthenticated    = errors.New("not signed in")
)

// ValidationError reports bad or missing user input. It is user-correctable
// and shown inline next to the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// MediaFailure classifies why a capture request was refused.
type MediaFailure string

const (
	MediaPermissionDenied MediaFailure = "permission_denied"
	MediaNotFound         MediaFailure = "not_found"
	MediaUserCancelled    MediaFailure = "user_cancelled"
	MediaUnsupported      MediaFailure = "unsupported"
)

// ParseMediaFailure maps a wire reason onto a MediaFailure. Unknown reasons
// are reported as not_found.
func ParseMediaFailure(s string) MediaFailure {
	switch MediaFailure(s) {
	case MediaPermissionDenied, MediaNotFound, MediaUserCancelled, MediaUnsupported:
		return MediaFailure(s)
	}
	return MediaNotFound
}

// MediaAcquisitionError is returned when camera, microphone or display
// capture cannot be obtained.
type MediaAcquisitionError struct {
	Kind   MediaFailure
	Source string // "user" or "display"
	Err    error
}

func (e *MediaAcquisitionError) Error() string {
	msg := fmt.Sprintf("acquire %s media: %s", e.Source, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MediaAcquisitionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMediaAcquisition, e.Err}
	}
	return []error{ErrMediaAcquisition}
}

// PresenceError wraps a roster failure. It is logged and never surfaced.
type PresenceError struct {
	Op     string
	RoomID string
	Err    error
}

func (e *PresenceError) Error() string {
	return fmt.Sprintf("presence %s room %s: %v", e.Op, e.RoomID, e.Err)
}

func (e *PresenceError) Unwrap() []error { return []error{ErrPresence, e.Err} }

// AssistantError wraps a failed assistant request. The turn engine converts
// it into a fallback chat message.
type AssistantError struct {
	Reason string
	Err    error
}

func (e *AssistantError) Error() string {
	if e.Err == nil {
		return "assistant: " + e.Reason
	}
	return fmt.Sprintf("assistant: %s: %v", e.Reason, e.Err)
}

func (e *AssistantError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAssistant}
	}
	return []error{ErrAssistant, e.Err}
}
