package chathub_test

import (
	"sync"

	"meetroom/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify double for chathub.Client with a real send channel.
type MockClient struct {
	mock.Mock
	ID     string
	UserID string
	Send   chan models.WireMessage
}

func NewMockClient(id string, buffer int) *MockClient {
	c := &MockClient{ID: id, UserID: "user-" + id, Send: make(chan models.WireMessage, buffer)}
	c.On("Close").Return().Maybe()
	c.On("Run").Return().Maybe()
	return c
}

func (m *MockClient) GetClientID() string                       { return m.ID }
func (m *MockClient) GetUserID() string                         { return m.UserID }
func (m *MockClient) GetSendChannel() chan<- models.WireMessage { return m.Send }
func (m *MockClient) Run()                                      { m.Called() }
func (m *MockClient) Close()                                    { m.Called() }

// recordingHandler captures InboundHandler calls made on the hub goroutine.
type recordingHandler struct {
	mu       sync.Mutex
	attached []string
	detached []string
	inbound  []models.WireMessage
}

func (h *recordingHandler) Attach(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached = append(h.attached, id)
}

func (h *recordingHandler) Detach(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detached = append(h.detached, id)
}

func (h *recordingHandler) HandleInbound(_ string, msg models.WireMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbound = append(h.inbound, msg)
}

func (h *recordingHandler) counts() (attached, detached, inbound int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.attached), len(h.detached), len(h.inbound)
}

// chanSender records frames the bridge sends.
type chanSender struct {
	out chan sent
	err error
}

type sent struct {
	clientID string
	msg      models.WireMessage
}

func newChanSender() *chanSender { return &chanSender{out: make(chan sent, 16)} }

func (s *chanSender) SendTo(clientID string, msg models.WireMessage) error {
	if s.err != nil {
		return s.err
	}
	s.out <- sent{clientID: clientID, msg: msg}
	return nil
}
