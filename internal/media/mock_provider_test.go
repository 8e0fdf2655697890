package media_test

import (
	"context"
	"fmt"

	"meetroom/backend/internal/media"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify double for media.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) AcquireUserMedia(ctx context.Context, c media.Constraints) (media.Stream, error) {
	args := m.Called(ctx, c)
	stream, _ := args.Get(0).(media.Stream)
	return stream, args.Error(1)
}

func (m *MockProvider) AcquireDisplayMedia(ctx context.Context, c media.Constraints) (media.Stream, error) {
	args := m.Called(ctx, c)
	stream, _ := args.Get(0).(media.Stream)
	return stream, args.Error(1)
}

func cameraStream(id string) *media.LocalStream {
	return media.NewLocalStream(id,
		media.NewLocalTrack(id+"-a", media.KindAudio, nil),
		media.NewLocalTrack(id+"-v", media.KindVideo, nil),
	)
}

func screenStream(n int) *media.LocalStream {
	id := fmt.Sprintf("screen-%d", n)
	return media.NewLocalStream(id, media.NewLocalTrack(id+"-v", media.KindVideo, nil))
}

// recordingObserver captures TrackObserver calls.
type recordingObserver struct {
	enabled map[string]bool
	stopped []string
}

func (r *recordingObserver) TrackEnabled(id string, enabled bool) {
	if r.enabled == nil {
		r.enabled = map[string]bool{}
	}
	r.enabled[id] = enabled
}

func (r *recordingObserver) TrackStopped(id string) { r.stopped = append(r.stopped, id) }
