// Package media owns the local capture streams of a room session and the
// inert peer-transport placeholder they are attached to.
package media

import (
	"context"
	"sync"
)

// Kind is the media kind of a track.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

type Track interface {
	ID() string
	Kind() Kind
	Enabled() bool
	SetEnabled(enabled bool)
	Stop()
	Stopped() bool
}

type Stream interface {
	ID() string
	Tracks() []Track
	// OnEnded registers fn to run once when the capture is ended from outside,
	// for example by the browser's own "stop sharing" control.
	OnEnded(fn func())
}

// Constraints selects which kinds a capture request asks for.
type Constraints struct {
	Video bool
	Audio bool
}

// Provider grants capture streams. Implementations return
// *models.MediaAcquisitionError on refusal.
type Provider interface {
	AcquireUserMedia(ctx context.Context, c Constraints) (Stream, error)
	AcquireDisplayMedia(ctx context.Context, c Constraints) (Stream, error)
}

// TrackObserver is told about local changes to a track so they can be mirrored
// onto the real device.
type TrackObserver interface {
	TrackEnabled(trackID string, enabled bool)
	TrackStopped(trackID string)
}

type LocalTrack struct {
	id       string
	kind     Kind
	observer TrackObserver

	mu      sync.Mutex
	enabled bool
	stopped bool
}

// NewLocalTrack returns an enabled, live track. observer may be nil.
func NewLocalTrack(id string, kind Kind, observer TrackObserver) *LocalTrack {
	return &LocalTrack{id: id, kind: kind, observer: observer, enabled: true}
}

func (t *LocalTrack) ID() string { return t.id }
func (t *LocalTrack) Kind() Kind { return t.kind }

func (t *LocalTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled is ignored on a stopped track.
func (t *LocalTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	if t.stopped || t.enabled == enabled {
		t.mu.Unlock()
		return
	}
	t.enabled = enabled
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.TrackEnabled(t.id, enabled)
	}
}

// Stop releases the track. It does not end the owning stream.
func (t *LocalTrack) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.TrackStopped(t.id)
	}
}

func (t *LocalTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type LocalStream struct {
	id     string
	tracks []Track

	mu      sync.Mutex
	ended   bool
	onEnded []func()
}

func NewLocalStream(id string, tracks ...Track) *LocalStream {
	return &LocalStream{id: id, tracks: tracks}
}

func (s *LocalStream) ID() string { return s.id }

func (s *LocalStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// OnEnded registers fn. If the stream already ended, fn runs on a new
// goroutine.
func (s *LocalStream) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		go fn()
		return
	}
	s.onEnded = append(s.onEnded, fn)
}

// End marks the stream as ended externally and runs the registered callbacks
// once, on the calling goroutine.
func (s *LocalStream) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	callbacks := s.onEnded
	s.onEnded = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// TracksOf returns the tracks of stream with the given kind.
func TracksOf(stream Stream, kind Kind) []Track {
	var out []Track
	for _, t := range stream.Tracks() {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

func stopAll(stream Stream) {
	if stream == nil {
		return
	}
	for _, t := range stream.Tracks() {
		t.Stop()
	}
}
