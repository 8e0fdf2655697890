package media

import (
	"context"
	"log/slog"
	"sync"

	"meetroom/backend/internal/models"

	"github.com/pkg/errors"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Options configures a Session. Provider is required.
type Options struct {
	Provider Provider
	// NewTransport builds the peer-transport placeholder once the local stream
	// is granted. Defaults to a PlaceholderTransport with no ICE servers.
	NewTransport func() PeerTransport
	// Warning is the notice recorded when camera/mic capture fails.
	Warning string
	// OnChange receives a snapshot after every state change. It is never
	// called with the session lock held.
	OnChange func(models.MediaState)
}

// Session is the media state machine of one room session.
type Session struct {
	provider     Provider
	newTransport func() PeerTransport
	warningText  string
	onChange     func(models.MediaState)

	mu            sync.Mutex
	state         State
	acquireCalled bool
	local         Stream
	screen        Stream
	shareGen      uint64
	transport     PeerTransport
	micEnabled    bool
	cameraEnabled bool
	warning       string
}

// NewSession returns an uninitialized session; call Acquire to start capture.
func NewSession(opts Options) *Session {
	s := &Session{
		provider:      opts.Provider,
		newTransport:  opts.NewTransport,
		warningText:   opts.Warning,
		onChange:      opts.OnChange,
		micEnabled:    true,
		cameraEnabled: true,
	}
	if s.newTransport == nil {
		s.newTransport = func() PeerTransport { return NewPlaceholderTransport() }
	}
	return s
}

// Acquire requests camera and microphone once per session. Later calls are
// no-ops. A refusal leaves the session active without a local stream and
// records a warning.
func (s *Session) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return models.ErrSessionTerminated
	}
	if s.acquireCalled {
		s.mu.Unlock()
		return nil
	}
	s.acquireCalled = true
	provider := s.provider
	s.mu.Unlock()

	var stream Stream
	err := error(&models.MediaAcquisitionError{Kind: models.MediaUnsupported, Source: "user"})
	if provider != nil {
		stream, err = provider.AcquireUserMedia(ctx, Constraints{Video: true, Audio: true})
	}

	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		stopAll(stream)
		return models.ErrSessionTerminated
	}
	s.state = StateActive
	if err != nil || stream == nil {
		if err == nil {
			err = &models.MediaAcquisitionError{Kind: models.MediaNotFound, Source: "user"}
		}
		var mae *models.MediaAcquisitionError
		if !errors.As(err, &mae) {
			err = &models.MediaAcquisitionError{Kind: models.MediaNotFound, Source: "user", Err: err}
		}
		s.warning = s.warningText
		snap := s.snapshotLocked()
		s.mu.Unlock()

		slog.Warn("local media unavailable", "err", err)
		s.notify(snap)
		return err
	}

	s.local = stream
	for _, t := range TracksOf(stream, KindAudio) {
		t.SetEnabled(s.micEnabled)
	}
	for _, t := range TracksOf(stream, KindVideo) {
		t.SetEnabled(s.cameraEnabled)
	}
	s.transport = s.newTransport()
	for _, t := range stream.Tracks() {
		if terr := s.transport.AddTrack(t); terr != nil {
			slog.Warn("attach track to peer transport", "track", t.ID(), "err", terr)
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// ToggleMic flips the enabled flag of every audio track. It does nothing
// without a local stream.
func (s *Session) ToggleMic() models.MediaState {
	return s.toggle(KindAudio)
}

// ToggleCamera flips the enabled flag of every video track. It does nothing
// without a local stream.
func (s *Session) ToggleCamera() models.MediaState {
	return s.toggle(KindVideo)
}

func (s *Session) toggle(kind Kind) models.MediaState {
	s.mu.Lock()
	if s.local == nil || s.state != StateActive {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	var enabled bool
	if kind == KindAudio {
		s.micEnabled = !s.micEnabled
		enabled = s.micEnabled
	} else {
		s.cameraEnabled = !s.cameraEnabled
		enabled = s.cameraEnabled
	}
	for _, t := range TracksOf(s.local, kind) {
		t.SetEnabled(enabled)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return snap
}

// StartShare requests a display capture. Calling it while already sharing is
// a no-op.
func (s *Session) StartShare(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return models.ErrSessionTerminated
	}
	if s.screen != nil {
		s.mu.Unlock()
		return nil
	}
	s.shareGen++
	gen := s.shareGen
	provider := s.provider
	s.mu.Unlock()

	if provider == nil {
		return &models.MediaAcquisitionError{Kind: models.MediaUnsupported, Source: "display"}
	}
	stream, err := provider.AcquireDisplayMedia(ctx, Constraints{Video: true})
	if err != nil {
		slog.Info("screen share not started", "err", err)
		return err
	}

	s.mu.Lock()
	if s.state == StateTerminated || gen != s.shareGen || s.screen != nil {
		terminated := s.state == StateTerminated
		s.mu.Unlock()
		stopAll(stream)
		if terminated {
			return models.ErrSessionTerminated
		}
		return nil
	}
	s.screen = stream
	if s.state == StateUninitialized {
		s.state = StateActive
	}
	stream.OnEnded(func() { s.shareEnded(gen) })
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// StopShare stops the screen capture. It also cancels a share request that
// is still waiting for the provider.
func (s *Session) StopShare() {
	s.mu.Lock()
	s.shareGen++
	if s.screen == nil {
		s.mu.Unlock()
		return
	}
	s.clearShareLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// shareEnded handles the capture being stopped from outside.
func (s *Session) shareEnded(gen uint64) {
	s.mu.Lock()
	if gen != s.shareGen || s.screen == nil {
		s.mu.Unlock()
		return
	}
	s.clearShareLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	slog.Info("screen share ended externally")
	s.notify(snap)
}

func (s *Session) clearShareLocked() {
	stopAll(s.screen)
	s.screen = nil
	s.shareGen++
}

// Teardown stops every track and closes the transport. Only the first call
// has any effect.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.state == StateTerminated {
		s.mu.Unlock()
		return
	}
	s.state = StateTerminated
	stopAll(s.local)
	s.local = nil
	if s.screen != nil {
		s.clearShareLocked()
	}
	s.shareGen++
	transport := s.transport
	s.transport = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if transport != nil {
		if err := transport.Close(); err != nil {
			slog.Warn("close peer transport", "err", err)
		}
	}
	s.notify(snap)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current media state.
func (s *Session) Snapshot() models.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LocalStream returns the granted camera/mic stream, or nil.
func (s *Session) LocalStream() Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// ScreenStream returns the active display capture, or nil.
func (s *Session) ScreenStream() Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Transport returns the peer-transport placeholder, or nil.
func (s *Session) Transport() PeerTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

func (s *Session) snapshotLocked() models.MediaState {
	st := models.MediaState{
		HasLocalStream: s.local != nil,
		MicEnabled:     s.micEnabled,
		CameraEnabled:  s.cameraEnabled,
		ScreenSharing:  s.screen != nil,
		Terminated:     s.state == StateTerminated,
		Warning:        s.warning,
	}
	if s.local != nil {
		st.LocalStreamID = s.local.ID()
	}
	if s.screen != nil {
		st.ScreenStreamID = s.screen.ID()
	}
	return st
}

func (s *Session) notify(st models.MediaState) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
