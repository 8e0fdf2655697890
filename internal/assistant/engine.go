// Package assistant turns a chat transcript and a new prompt into a single
// assistant reply. Collaborator failures never escape: the caller always gets
// a message back.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meetroom/backend/internal/config"
	"meetroom/backend/internal/models"

	"github.com/google/uuid"
)

// Role is the conversational role of a turn sent to the collaborator.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Tool is a grounding tool the collaborator may use.
type Tool string

const (
	ToolSearch Tool = "googleSearch"
	ToolMaps   Tool = "googleMaps"
)

type Turn struct {
	Role Role
	Text string
}

// Request is everything the collaborator needs for one completion.
type Request struct {
	Model             string
	Turns             []Turn
	Tools             []Tool
	RetrievalLocation *models.Location
	SystemInstruction string
}

type Response struct {
	Text              string
	GroundingMetadata *models.GroundingMetadata
}

// Collaborator is the hosted completion service.
type Collaborator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Profile is the fixed model and tool selection for an AIMode.
type Profile struct {
	Model         string
	Tools         []Tool
	LocationAware bool
}

var profiles = map[models.AIMode]Profile{
	models.ModeSearch: {Model: config.SearchModel, Tools: []Tool{ToolSearch}},
	models.ModeMaps:   {Model: config.MapsModel, Tools: []Tool{ToolMaps}, LocationAware: true},
}

// ProfileFor returns the profile for mode, falling back to the default mode.
func ProfileFor(mode models.AIMode) Profile {
	if p, ok := profiles[mode]; ok {
		return p
	}
	return profiles[models.DefaultMode]
}

// Fallbacks are the reply texts used when the collaborator gives nothing usable.
type Fallbacks struct {
	Empty  string
	Failed string
}

var defaultFallbacks = Fallbacks{
	Empty:  "I couldn't generate a text response.",
	Failed: "I encountered an error processing your request. Please try again.",
}

type Engine struct {
	collab    Collaborator
	timeout   time.Duration
	fallbacks Fallbacks
	now       func() time.Time
}

type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithFallbacks overrides the fallback texts. Empty fields keep the defaults.
func WithFallbacks(f Fallbacks) Option {
	return func(e *Engine) {
		if f.Empty != "" {
			e.fallbacks.Empty = f.Empty
		}
		if f.Failed != "" {
			e.fallbacks.Failed = f.Failed
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(collab Collaborator, opts ...Option) *Engine {
	e := &Engine{
		collab:    collab,
		timeout:   config.DefaultAssistantTimeout,
		fallbacks: defaultFallbacks,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildRequest converts history plus prompt into a collaborator request.
// System messages are dropped and the prompt becomes the final user turn.
func BuildRequest(history []models.ChatMessage, prompt string, mode models.AIMode, loc *models.Location) *Request {
	profile := ProfileFor(mode)

	turns := make([]Turn, 0, len(history)+1)
	for _, m := range history {
		switch m.Sender {
		case models.SenderSystem:
			continue
		case models.SenderUser:
			turns = append(turns, Turn{Role: RoleUser, Text: m.Text})
		default:
			turns = append(turns, Turn{Role: RoleModel, Text: m.Text})
		}
	}
	turns = append(turns, Turn{Role: RoleUser, Text: prompt})

	req := &Request{
		Model:             profile.Model,
		Turns:             turns,
		Tools:             append([]Tool(nil), profile.Tools...),
		SystemInstruction: config.SystemInstruction,
	}
	if profile.LocationAware && loc != nil {
		l := *loc
		req.RetrievalLocation = &l
	}
	return req
}

// SendTurn dispatches one turn and always returns an ai message.
func (e *Engine) SendTurn(ctx context.Context, history []models.ChatMessage, prompt string, mode models.AIMode, loc *models.Location) models.ChatMessage {
	req := BuildRequest(history, prompt, mode, loc)

	reply := models.ChatMessage{
		ID:            uuid.NewString(),
		Sender:        models.SenderAI,
		SenderName:    config.AssistantSenderName,
		IsMapResponse: mode == models.ModeMaps,
	}

	resp, err := e.generate(ctx, req)
	reply.Timestamp = e.now().UnixMilli()
	if err != nil {
		slog.Warn("assistant turn failed", "mode", mode, "model", req.Model, "err", err)
		reply.Text = e.fallbacks.Failed
		return reply
	}

	reply.Text = resp.Text
	if strings.TrimSpace(reply.Text) == "" {
		reply.Text = e.fallbacks.Empty
	}
	reply.GroundingMetadata = resp.GroundingMetadata.Sanitized()
	return reply
}

func (e *Engine) generate(ctx context.Context, req *Request) (resp *Response, err error) {
	if e.collab == nil {
		return nil, &models.AssistantError{Reason: "no collaborator configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, &models.AssistantError{Reason: "collaborator panicked"}
		}
	}()

	resp, err = e.collab.Generate(ctx, req)
	if err != nil {
		reason := "request failed"
		if ctx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		return nil, &models.AssistantError{Reason: reason, Err: err}
	}
	if resp == nil {
		return nil, &models.AssistantError{Reason: "malformed response"}
	}
	return resp, nil
}
