package handler

import (
	"net/http"

	"meetroom/backend/internal/models"
	"meetroom/backend/internal/room"

	"github.com/gin-gonic/gin"
)

type joinRequest struct {
	Code string `json:"code"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type chatRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type roomResponse struct {
	room.State
	Link string `json:"link,omitempty"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	h.enter(c, room.NewRoomID(), http.StatusCreated)
}

// JoinRoom accepts a bare code or a pasted room link.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	roomID, err := room.ParseRoomInput(req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	h.enter(c, roomID, http.StatusOK)
}

func (h *Handler) enter(c *gin.Context, roomID string, status int) {
	user, err := h.currentUser(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Rooms.EnterRoom(c.Request.Context(), roomID, user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, h.snapshot())
}

func (h *Handler) snapshot() roomResponse {
	resp := roomResponse{State: h.Rooms.State()}
	if resp.Session != nil {
		resp.Link, _ = h.Rooms.ShareLink(h.BaseURL)
	}
	return resp
}

func (h *Handler) CurrentRoom(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshot())
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	if err := h.Rooms.LeaveRoom(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleMic(c *gin.Context) {
	st, err := h.Rooms.ToggleMic()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) ToggleCamera(c *gin.Context) {
	st, err := h.Rooms.ToggleCamera()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// StartShare blocks until the browser answers the capture request.
func (h *Handler) StartShare(c *gin.Context) {
	if err := h.Rooms.StartShare(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Rooms.State().Media)
}

func (h *Handler) StopShare(c *gin.Context) {
	if err := h.Rooms.StopShare(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Rooms.State().Media)
}

func (h *Handler) SetMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	mode, err := models.ParseAIMode(req.Mode)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Rooms.SetMode(mode); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

func (h *Handler) Messages(c *gin.Context) {
	msgs, err := h.Rooms.Messages()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendChat runs one assistant turn and returns the reply.
func (h *Handler) SendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var mode models.AIMode
	if req.Mode != "" {
		m, err := models.ParseAIMode(req.Mode)
		if err != nil {
			writeError(c, err)
			return
		}
		mode = m
	}
	reply, err := h.Rooms.SendChat(c.Request.Context(), req.Text, mode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
