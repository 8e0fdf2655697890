// Package handler exposes the room controller and identity store over HTTP
// and attaches browser tabs to the hub over WebSocket.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"meetroom/backend/internal/chathub"
	"meetroom/backend/internal/identity"
	"meetroom/backend/internal/models"
	"meetroom/backend/internal/room"

	"github.com/gin-gonic/gin"
)

// Rooms is the part of room.Controller the HTTP surface drives.
type Rooms interface {
	EnterRoom(ctx context.Context, roomID string, user models.User) error
	LeaveRoom(ctx context.Context) error
	SendChat(ctx context.Context, text string, mode models.AIMode) (models.ChatMessage, error)
	SetMode(mode models.AIMode) error
	ToggleMic() (models.MediaState, error)
	ToggleCamera() (models.MediaState, error)
	StartShare(ctx context.Context) error
	StopShare() error
	Messages() ([]models.ChatMessage, error)
	State() room.State
	ShareLink(baseURL string) (string, error)
}

// Identity is the part of identity.Store the HTTP surface drives.
type Identity interface {
	Login(ctx context.Context, p identity.Profile) (*models.User, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (*models.User, error)
	Current() *models.User
}

// Handler holds the collaborators of every route.
type Handler struct {
	Hub      *chathub.ManagerService
	Rooms    Rooms
	Identity Identity
	Tokens   *TokenIssuer
	BaseURL  string
}

func NewHandler(hub *chathub.ManagerService, rooms Rooms, ident Identity, tokens *TokenIssuer, baseURL string) *Handler {
	return &Handler{Hub: hub, Rooms: rooms, Identity: ident, Tokens: tokens, BaseURL: baseURL}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	auth := r.Group("/auth")
	auth.POST("/login", h.Login)
	auth.GET("/me", h.Me)
	auth.POST("/logout", h.RequireAuth, h.Logout)

	rooms := r.Group("/rooms", h.RequireAuth)
	rooms.POST("", h.CreateRoom)
	rooms.POST("/join", h.JoinRoom)
	rooms.GET("/current", h.CurrentRoom)
	rooms.DELETE("/current", h.LeaveRoom)
	rooms.POST("/current/mic", h.ToggleMic)
	rooms.POST("/current/camera", h.ToggleCamera)
	rooms.POST("/current/share", h.StartShare)
	rooms.DELETE("/current/share", h.StopShare)
	rooms.PUT("/current/mode", h.SetMode)
	rooms.GET("/current/messages", h.Messages)
	rooms.POST("/current/messages", h.SendChat)

	r.GET("/ws", h.ServeWebSocket)
}

// NewRouter builds a gin engine with every route mounted.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	h.Register(r)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		validation *models.ValidationError
		mediaErr   *models.MediaAcquisitionError
	)
	switch {
	case errors.As(err, &validation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, models.ErrNotAuthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotInRoom):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyInRoom),
		errors.Is(err, models.ErrTurnInFlight),
		errors.Is(err, models.ErrTurnDiscarded),
		errors.Is(err, models.ErrSessionTerminated):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &mediaErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": mediaErr.Kind})
	default:
		slog.Error("request failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
