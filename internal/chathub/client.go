package chathub

import "meetroom/backend/internal/models"

// Client is one attached browser connection. The hub owns the send channel:
// only the hub loop sends on it or closes it.
type Client interface {
	// GetClientID returns the connection id, unique per attached tab.
	GetClientID() string
	// GetUserID returns the id of the authenticated user behind the tab.
	GetUserID() string
	// GetSendChannel returns the channel the hub writes outgoing frames to.
	GetSendChannel() chan<- models.WireMessage

	// Run starts the read and write pumps.
	Run()
	// Close releases the connection. The hub calls it exactly once.
	Close()
}

// InboundHandler consumes browser frames and connection changes. Its methods
// run on the hub goroutine and must not block.
type InboundHandler interface {
	Attach(clientID string)
	Detach(clientID string)
	HandleInbound(clientID string, msg models.WireMessage)
}

// Inbound is a frame read from a client.
type Inbound struct {
	ClientID string
	Msg      models.WireMessage
}

// Outbound is a frame addressed to a single client.
type Outbound struct {
	ClientID string
	Msg      models.WireMessage
}
