package models

import (
	"encoding/json"
	"time"
)

// EventType names a room state change pushed to attached browser tabs.
type EventType string

const (
	EventMedia        EventType = "media"
	EventParticipants EventType = "participants"
	EventMessage      EventType = "message"
	EventBusy         EventType = "busy"
	EventMode         EventType = "mode"
	EventClock        EventType = "clock"
	EventWarning      EventType = "warning"
	EventEntered      EventType = "entered"
	EventLeft         EventType = "left"
)

// RoomEvent is emitted by the room controller on every state transition.
type RoomEvent struct {
	Type    EventType `json:"type"`
	RoomID  string    `json:"roomId"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

// WireType is the "type" discriminator of a WebSocket frame.
type WireType string

const (
	// server -> browser
	WireEvent               WireType = "event"
	WireAcquireUserMedia    WireType = "acquire_user_media"
	WireAcquireDisplayMedia WireType = "acquire_display_media"
	WireLocate              WireType = "locate"
	WireSetTrackEnabled     WireType = "set_track_enabled"
	WireStopTrack           WireType = "stop_track"

	// browser -> server
	WireGranted    WireType = "granted"
	WireDenied     WireType = "denied"
	WireLocated    WireType = "located"
	WireTrackEnded WireType = "track_ended"
)

// WireMessage is a single JSON frame exchanged over the room WebSocket.
type WireMessage struct {
	Type      WireType        `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// MediaConstraints mirrors the capture request sent to the browser.
type MediaConstraints struct {
	Video bool `json:"video"`
	Audio bool `json:"audio"`
}

// GrantedStream is the browser's reply to a capture request.
type GrantedStream struct {
	StreamID string         `json:"streamId"`
	Tracks   []GrantedTrack `json:"tracks"`
}

type GrantedTrack struct {
	ID   string `json:"id"`
	Kind string `json:"kind"` // "audio" | "video"
}

// DeniedRequest is the browser's refusal of a capture or locate request.
type DeniedRequest struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// TrackCommand targets one browser-side track.
type TrackCommand struct {
	TrackID string `json:"trackId"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// StreamEnded is sent by the browser when the user stops a capture from the
// browser's own UI.
type StreamEnded struct {
	StreamID string `json:"streamId"`
}

// NewWireMessage marshals payload into a frame of the given type.
func NewWireMessage(t WireType, requestID string, payload any) (WireMessage, error) {
	msg := WireMessage{Type: t, RequestID: requestID}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return msg, err
	}
	msg.Payload = raw
	return msg, nil
}

// Decode unmarshals the frame payload into v.
func (m WireMessage) Decode(v any) error {
	if len(m.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Payload, v)
}
