package room_test

import (
	"context"
	"fmt"
	"sync"

	"meetroom/backend/internal/media"
	"meetroom/backend/internal/models"
)

// callLog records the order of collaborator calls across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakePresence struct {
	log *callLog

	// joinStarted and joinGate, when set, hold Join until the gate closes.
	joinStarted chan struct{}
	joinGate    chan struct{}

	mu       sync.Mutex
	onChange []func(int)
	joinErr  error
	members  map[string]bool
}

func (p *fakePresence) Join(_ context.Context, roomID string, user models.User) error {
	p.log.add("join:" + roomID + ":" + user.ID)
	if p.joinStarted != nil {
		p.joinStarted <- struct{}{}
	}
	if p.joinGate != nil {
		<-p.joinGate
	}
	if p.joinErr != nil {
		return p.joinErr
	}
	p.mu.Lock()
	if p.members == nil {
		p.members = map[string]bool{}
	}
	p.members[roomID+"/"+user.ID] = true
	p.mu.Unlock()
	return nil
}

func (p *fakePresence) Leave(_ context.Context, roomID string, user models.User) error {
	p.log.add("leave:" + roomID + ":" + user.ID)
	p.mu.Lock()
	delete(p.members, roomID+"/"+user.ID)
	p.mu.Unlock()
	return nil
}

func (p *fakePresence) roster() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.members))
	for k, v := range p.members {
		out[k] = v
	}
	return out
}

func (p *fakePresence) SubscribeCount(_ context.Context, roomID string, onChange func(int)) func() {
	p.log.add("subscribe:" + roomID)
	p.mu.Lock()
	p.onChange = append(p.onChange, onChange)
	p.mu.Unlock()
	return func() { p.log.add("unsubscribe:" + roomID) }
}

// deliver invokes the idx-th subscription callback with n.
func (p *fakePresence) deliver(idx, n int) {
	p.mu.Lock()
	fn := p.onChange[idx]
	p.mu.Unlock()
	fn(n)
}

type fakeProvider struct {
	log *callLog

	mu      sync.Mutex
	streams []*media.LocalStream
	userErr error
	shares  int
}

func (p *fakeProvider) AcquireUserMedia(context.Context, media.Constraints) (media.Stream, error) {
	p.log.add("acquire")
	if p.userErr != nil {
		return nil, p.userErr
	}
	s := media.NewLocalStream("cam",
		media.NewLocalTrack("cam-a", media.KindAudio, nil),
		media.NewLocalTrack("cam-v", media.KindVideo, nil))
	p.mu.Lock()
	p.streams = append(p.streams, s)
	p.mu.Unlock()
	return s, nil
}

func (p *fakeProvider) AcquireDisplayMedia(context.Context, media.Constraints) (media.Stream, error) {
	p.mu.Lock()
	p.shares++
	s := media.NewLocalStream(fmt.Sprintf("screen-%d", p.shares), media.NewLocalTrack(fmt.Sprintf("screen-%d-v", p.shares), media.KindVideo, nil))
	p.streams = append(p.streams, s)
	p.mu.Unlock()
	return s, nil
}

func (p *fakeProvider) all() []*media.LocalStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*media.LocalStream(nil), p.streams...)
}

// gateEngine blocks each turn until release is closed, when set.
type gateEngine struct {
	release chan struct{}
	entered chan struct{}

	mu       sync.Mutex
	requests []engineCall
}

type engineCall struct {
	history []models.ChatMessage
	prompt  string
	mode    models.AIMode
	loc     *models.Location
}

func (e *gateEngine) SendTurn(_ context.Context, history []models.ChatMessage, prompt string, mode models.AIMode, loc *models.Location) models.ChatMessage {
	e.mu.Lock()
	e.requests = append(e.requests, engineCall{history: history, prompt: prompt, mode: mode, loc: loc})
	e.mu.Unlock()
	if e.entered != nil {
		e.entered <- struct{}{}
	}
	if e.release != nil {
		<-e.release
	}
	return models.ChatMessage{
		ID:            "ai-" + prompt,
		Sender:        models.SenderAI,
		SenderName:    "Gemini",
		Text:          "re: " + prompt,
		IsMapResponse: mode == models.ModeMaps,
	}
}

func (e *gateEngine) calls() []engineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engineCall(nil), e.requests...)
}

type fixedLocator struct {
	loc models.Location
	err error
}

func (l fixedLocator) Locate(context.Context) (models.Location, error) { return l.loc, l.err }

// eventSink collects RoomEvents.
type eventSink struct {
	mu     sync.Mutex
	events []models.RoomEvent
}

func (s *eventSink) add(ev models.RoomEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) count(t models.EventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
