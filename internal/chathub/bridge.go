package chathub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"meetroom/backend/internal/media"
	"meetroom/backend/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNoClient is returned when no browser tab is attached to serve a request.
var ErrNoClient = errors.New("no browser tab attached")

// Sender delivers a frame to one client.
type Sender interface {
	SendTo(clientID string, msg models.WireMessage) error
}

type pendingRequest struct {
	clientID string
	reply    chan models.WireMessage
}

type bridgedStream struct {
	clientID string
	stream   *media.LocalStream
}

// Bridge turns the most recently attached browser tab into the media
// capability provider and device locator. It implements media.Provider,
// media.TrackObserver and InboundHandler.
type Bridge struct {
	sender  Sender
	timeout time.Duration

	mu      sync.Mutex
	target  string
	pending map[string]pendingRequest
	streams map[string]bridgedStream
	tracks  map[string]string
}

func NewBridge(sender Sender, timeout time.Duration) *Bridge {
	return &Bridge{
		sender:  sender,
		timeout: timeout,
		pending: make(map[string]pendingRequest),
		streams: make(map[string]bridgedStream),
		tracks:  make(map[string]string),
	}
}

// Attach makes clientID the target of later requests.
func (b *Bridge) Attach(clientID string) {
	b.mu.Lock()
	b.target = clientID
	b.mu.Unlock()
}

// Detach fails the client's outstanding requests and ends its streams.
func (b *Bridge) Detach(clientID string) {
	denied, _ := models.NewWireMessage(models.WireDenied, "", models.DeniedRequest{
		Reason:  string(models.MediaNotFound),
		Message: "browser tab detached",
	})

	b.mu.Lock()
	if b.target == clientID {
		b.target = ""
	}
	for id, p := range b.pending {
		if p.clientID != clientID {
			continue
		}
		delete(b.pending, id)
		p.reply <- denied
	}
	var ended []*media.LocalStream
	for id, s := range b.streams {
		if s.clientID == clientID {
			ended = append(ended, s.stream)
			delete(b.streams, id)
		}
	}
	for trackID, owner := range b.tracks {
		if owner == clientID {
			delete(b.tracks, trackID)
		}
	}
	b.mu.Unlock()

	for _, s := range ended {
		go s.End()
	}
}

// HandleInbound resolves pending requests and external stream ends.
func (b *Bridge) HandleInbound(clientID string, msg models.WireMessage) {
	switch msg.Type {
	case models.WireGranted, models.WireDenied, models.WireLocated:
		b.mu.Lock()
		p, ok := b.pending[msg.RequestID]
		if ok && p.clientID == clientID {
			delete(b.pending, msg.RequestID)
			p.reply <- msg
		}
		b.mu.Unlock()
		if !ok {
			slog.Debug("reply for unknown request", "client_id", clientID, "request_id", msg.RequestID)
		}

	case models.WireTrackEnded:
		var ended models.StreamEnded
		if err := msg.Decode(&ended); err != nil {
			slog.Warn("bad track_ended frame", "client_id", clientID, "err", err)
			return
		}
		b.mu.Lock()
		s, ok := b.streams[ended.StreamID]
		if ok && s.clientID == clientID {
			delete(b.streams, ended.StreamID)
		}
		b.mu.Unlock()
		if ok && s.clientID == clientID {
			go s.stream.End()
		}

	default:
		slog.Debug("ignoring frame", "client_id", clientID, "type", msg.Type)
	}
}

// AcquireUserMedia asks the attached tab for camera and microphone.
func (b *Bridge) AcquireUserMedia(ctx context.Context, c media.Constraints) (media.Stream, error) {
	return b.acquire(ctx, models.WireAcquireUserMedia, "user", c)
}

// AcquireDisplayMedia asks the attached tab for a screen or window capture.
func (b *Bridge) AcquireDisplayMedia(ctx context.Context, c media.Constraints) (media.Stream, error) {
	return b.acquire(ctx, models.WireAcquireDisplayMedia, "display", c)
}

func (b *Bridge) acquire(ctx context.Context, t models.WireType, source string, c media.Constraints) (media.Stream, error) {
	reply, clientID, err := b.request(ctx, t, models.MediaConstraints{Video: c.Video, Audio: c.Audio})
	if err != nil {
		return nil, &models.MediaAcquisitionError{Kind: models.MediaNotFound, Source: source, Err: err}
	}

	switch reply.Type {
	case models.WireGranted:
		var granted models.GrantedStream
		if err := reply.Decode(&granted); err != nil || granted.StreamID == "" {
			return nil, &models.MediaAcquisitionError{Kind: models.MediaNotFound, Source: source, Err: errors.New("malformed grant")}
		}
		return b.adopt(clientID, granted), nil
	case models.WireDenied:
		var denied models.DeniedRequest
		_ = reply.Decode(&denied)
		var cause error
		if denied.Message != "" {
			cause = errors.New(denied.Message)
		}
		return nil, &models.MediaAcquisitionError{Kind: models.ParseMediaFailure(denied.Reason), Source: source, Err: cause}
	}
	return nil, &models.MediaAcquisitionError{Kind: models.MediaNotFound, Source: source, Err: errors.Errorf("unexpected reply %q", reply.Type)}
}

func (b *Bridge) adopt(clientID string, granted models.GrantedStream) *media.LocalStream {
	tracks := make([]media.Track, 0, len(granted.Tracks))
	for _, t := range granted.Tracks {
		tracks = append(tracks, media.NewLocalTrack(t.ID, media.Kind(t.Kind), b))
	}
	stream := media.NewLocalStream(granted.StreamID, tracks...)

	b.mu.Lock()
	b.streams[granted.StreamID] = bridgedStream{clientID: clientID, stream: stream}
	for _, t := range granted.Tracks {
		b.tracks[t.ID] = clientID
	}
	b.mu.Unlock()
	return stream
}

// Locate asks the attached tab for the device position.
func (b *Bridge) Locate(ctx context.Context) (models.Location, error) {
	reply, _, err := b.request(ctx, models.WireLocate, nil)
	if err != nil {
		return models.Location{}, err
	}
	if reply.Type != models.WireLocated {
		var denied models.DeniedRequest
		_ = reply.Decode(&denied)
		return models.Location{}, errors.Errorf("location denied: %s", denied.Reason)
	}
	var loc models.Location
	if err := reply.Decode(&loc); err != nil {
		return models.Location{}, errors.Wrap(err, "decode location")
	}
	return loc, nil
}

// TrackEnabled mirrors a local enable/disable onto the browser track.
func (b *Bridge) TrackEnabled(trackID string, enabled bool) {
	b.command(models.WireSetTrackEnabled, models.TrackCommand{TrackID: trackID, Enabled: &enabled})
}

// TrackStopped tells the browser to stop the track.
func (b *Bridge) TrackStopped(trackID string) {
	b.command(models.WireStopTrack, models.TrackCommand{TrackID: trackID})
	b.mu.Lock()
	delete(b.tracks, trackID)
	b.mu.Unlock()
}

func (b *Bridge) command(t models.WireType, cmd models.TrackCommand) {
	b.mu.Lock()
	clientID, ok := b.tracks[cmd.TrackID]
	b.mu.Unlock()
	if !ok {
		return
	}
	msg, err := models.NewWireMessage(t, "", cmd)
	if err != nil {
		return
	}
	if err := b.sender.SendTo(clientID, msg); err != nil {
		slog.Warn("track command not delivered", "client_id", clientID, "type", t, "err", err)
	}
}

func (b *Bridge) request(ctx context.Context, t models.WireType, payload any) (models.WireMessage, string, error) {
	requestID := uuid.NewString()
	msg, err := models.NewWireMessage(t, requestID, payload)
	if err != nil {
		return models.WireMessage{}, "", err
	}

	b.mu.Lock()
	clientID := b.target
	if clientID == "" {
		b.mu.Unlock()
		return models.WireMessage{}, "", ErrNoClient
	}
	reply := make(chan models.WireMessage, 1)
	b.pending[requestID] = pendingRequest{clientID: clientID, reply: reply}
	b.mu.Unlock()

	if err := b.sender.SendTo(clientID, msg); err != nil {
		b.forget(requestID)
		return models.WireMessage{}, "", errors.Wrap(err, "send request")
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	select {
	case r := <-reply:
		return r, clientID, nil
	case <-ctx.Done():
		b.forget(requestID)
		return models.WireMessage{}, "", errors.Wrapf(ctx.Err(), "%s", t)
	}
}

func (b *Bridge) forget(requestID string) {
	b.mu.Lock()
	delete(b.pending, requestID)
	b.mu.Unlock()
}
