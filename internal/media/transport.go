package media

import (
	"errors"
	"sync"
)

var ErrTransportClosed = errors.New("peer transport is closed")

// PeerTransport is the resource remote media would flow through. No signaling
// is performed; only attach and close are supported.
type PeerTransport interface {
	AddTrack(t Track) error
	Close() error
}

// PlaceholderTransport records the attached tracks and the ICE servers it was
// configured with.
type PlaceholderTransport struct {
	iceServers []string

	mu     sync.Mutex
	tracks []Track
	closed bool
}

func NewPlaceholderTransport(iceServers ...string) *PlaceholderTransport {
	return &PlaceholderTransport{iceServers: append([]string(nil), iceServers...)}
}

func (p *PlaceholderTransport) AddTrack(t Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrTransportClosed
	}
	p.tracks = append(p.tracks, t)
	return nil
}

// Close is idempotent.
func (p *PlaceholderTransport) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.tracks = nil
	return nil
}

func (p *PlaceholderTransport) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *PlaceholderTransport) Tracks() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Track(nil), p.tracks...)
}

func (p *PlaceholderTransport) ICEServers() []string {
	return append([]string(nil), p.iceServers...)
}
