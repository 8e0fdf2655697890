package chathub

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"meetroom/backend/internal/models"
)

var (
	ErrHubStopped   = errors.New("hub is not running")
	ErrOutboundFull = errors.New("outbound buffer full")
)

const (
	broadcastBuffer = 256
	outboundBuffer  = 64
)

// ManagerService fans room events out to every attached client and routes
// bridge traffic to and from a single client.
type ManagerService struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.WireMessage
	OutboundCh   chan Outbound
	IncomingCh   chan Inbound

	Handler InboundHandler

	done     chan struct{}
	doneOnce sync.Once
	mu       sync.RWMutex
}

func NewManagerService() *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.WireMessage, broadcastBuffer),
		OutboundCh:   make(chan Outbound, outboundBuffer),
		IncomingCh:   make(chan Inbound),
		done:         make(chan struct{}),
	}
}

// Run processes hub traffic until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-m.RegisterCh:
			m.mu.Lock()
			m.Clients[client.GetClientID()] = client
			m.mu.Unlock()
			slog.Info("client attached", "client_id", client.GetClientID(), "user_id", client.GetUserID())
			if m.Handler != nil {
				m.Handler.Attach(client.GetClientID())
			}

		case client := <-m.UnregisterCh:
			m.removeClient(client.GetClientID())

		case msg := <-m.BroadcastCh:
			for id, client := range m.snapshot() {
				select {
				case client.GetSendChannel() <- msg:
				default:
					slog.Warn("client too slow, dropping connection", "client_id", id)
					m.removeClient(id)
				}
			}

		case out := <-m.OutboundCh:
			m.mu.RLock()
			client, ok := m.Clients[out.ClientID]
			m.mu.RUnlock()
			if !ok {
				slog.Debug("outbound frame for unknown client", "client_id", out.ClientID, "type", out.Msg.Type)
				continue
			}
			select {
			case client.GetSendChannel() <- out.Msg:
			default:
				slog.Warn("client too slow, dropping connection", "client_id", out.ClientID)
				m.removeClient(out.ClientID)
			}

		case in := <-m.IncomingCh:
			if m.Handler != nil {
				m.Handler.HandleInbound(in.ClientID, in.Msg)
			}
		}
	}
}

// Publish queues a room event for every client. It never blocks; events are
// dropped with a warning when the hub is saturated.
func (m *ManagerService) Publish(ev models.RoomEvent) {
	msg, err := models.NewWireMessage(models.WireEvent, "", ev)
	if err != nil {
		slog.Error("encode room event", "type", ev.Type, "err", err)
		return
	}
	select {
	case m.BroadcastCh <- msg:
	default:
		slog.Warn("broadcast buffer full, dropping event", "type", ev.Type)
	}
}

// SendTo queues msg for one client without blocking.
func (m *ManagerService) SendTo(clientID string, msg models.WireMessage) error {
	select {
	case <-m.done:
		return ErrHubStopped
	default:
	}
	select {
	case m.OutboundCh <- Outbound{ClientID: clientID, Msg: msg}:
		return nil
	default:
		return ErrOutboundFull
	}
}

// Unregister asks the hub to drop client. Safe after the hub has stopped.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Register attaches client. It returns ErrHubStopped after shutdown.
func (m *ManagerService) Register(client Client) error {
	select {
	case m.RegisterCh <- client:
		return nil
	case <-m.done:
		return ErrHubStopped
	}
}

// Deliver passes a frame read from a client to the hub.
func (m *ManagerService) Deliver(in Inbound) bool {
	select {
	case m.IncomingCh <- in:
		return true
	case <-m.done:
		return false
	}
}

// ClientCount returns the number of attached clients.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Clients)
}

// Done is closed when Run returns.
func (m *ManagerService) Done() <-chan struct{} { return m.done }

func (m *ManagerService) snapshot() map[string]Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Client, len(m.Clients))
	for id, c := range m.Clients {
		out[id] = c
	}
	return out
}

func (m *ManagerService) removeClient(clientID string) {
	m.mu.Lock()
	client, ok := m.Clients[clientID]
	delete(m.Clients, clientID)
	m.mu.Unlock()
	if !ok {
		return
	}
	client.Close()
	if m.Handler != nil {
		m.Handler.Detach(clientID)
	}
	slog.Info("client detached", "client_id", clientID)
}

func (m *ManagerService) shutdown() {
	for id := range m.snapshot() {
		m.removeClient(id)
	}
	m.doneOnce.Do(func() { close(m.done) })
}
