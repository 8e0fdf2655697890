package handler

import (
	"log/slog"
	"net/http"

	"meetroom/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the service listens for the local browser shell only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket attaches a browser tab: it receives room events and serves
// capture and location requests.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	user, err := h.authenticate(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, user.ID)
	if err := h.Hub.Register(client); err != nil {
		slog.Warn("hub rejected client", "client_id", client.ID, "err", err)
		conn.Close()
		return
	}
	client.Run()
}
