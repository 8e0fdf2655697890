package chathub

import (
	"log/slog"
	"sync"
	"time"

	"meetroom/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.WireMessage

	closeOnce sync.Once
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, userID string) *WebSocketClient {
	return &WebSocketClient{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.WireMessage, sendBuffer),
	}
}

func (c *WebSocketClient) GetClientID() string                       { return c.ID }
func (c *WebSocketClient) GetUserID() string                         { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- models.WireMessage { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which stops writePump and closes the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.WireMessage
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "client_id", c.ID, "err", err)
			}
			return
		}
		if msg.Type == "" {
			slog.Debug("ignoring frame without type", "client_id", c.ID)
			continue
		}
		if !c.Hub.Deliver(Inbound{ClientID: c.ID, Msg: msg}) {
			return
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				slog.Debug("websocket write failed", "client_id", c.ID, "err", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
