// Package room composes media, presence, chat and the assistant into the
// lifecycle of one meeting room at a time.
package room

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"meetroom/backend/internal/config"
	"meetroom/backend/internal/localization"
	"meetroom/backend/internal/media"
	"meetroom/backend/internal/models"
	"meetroom/backend/internal/presence"
	"meetroom/backend/internal/transcript"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TurnEngine produces one assistant reply per prompt.
type TurnEngine interface {
	SendTurn(ctx context.Context, history []models.ChatMessage, prompt string, mode models.AIMode, loc *models.Location) models.ChatMessage
}

// Presence is the room roster as seen by the controller.
type Presence interface {
	Join(ctx context.Context, roomID string, user models.User) error
	Leave(ctx context.Context, roomID string, user models.User) error
	SubscribeCount(ctx context.Context, roomID string, onChange func(count int)) func()
}

// Locator reports the device position once.
type Locator interface {
	Locate(ctx context.Context) (models.Location, error)
}

// Strings resolves user-visible text.
type Strings interface {
	GetString(lang, key string) string
	Format(lang, key string, args ...any) string
}

// Deps are the collaborators a Controller drives. Provider and Engine are
// required.
type Deps struct {
	Engine       TurnEngine
	Presence     Presence
	Provider     media.Provider
	Locator      Locator
	NewTransport func() media.PeerTransport
	Strings      Strings
	Language     string
	// OnLeave is told the room id after every completed leave.
	OnLeave func(roomID string)
}

// State is a snapshot of the current room for rendering.
type State struct {
	Session      *models.RoomSession `json:"session"`
	Media        models.MediaState   `json:"media"`
	Participants int                 `json:"participants"`
	Mode         models.AIMode       `json:"mode"`
	Busy         bool                `json:"busy"`
	Location     *models.Location    `json:"location,omitempty"`
	Fragment     string              `json:"fragment,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClockPeriod sets the clock event period. Zero disables the clock.
func WithClockPeriod(d time.Duration) Option {
	return func(c *Controller) { c.clockPeriod = d }
}

func WithNow(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns at most one room session at a time.
type Controller struct {
	deps        Deps
	clockPeriod time.Duration
	now         func() time.Time

	mu           sync.Mutex
	gen          uint64
	session      *models.RoomSession
	media        *media.Session
	transcript   *transcript.Transcript
	mode         models.AIMode
	busy         bool
	participants int
	location     *models.Location
	unsubscribe  func()
	stop         context.CancelFunc

	subsMu  sync.RWMutex
	subs    map[int]func(models.RoomEvent)
	nextSub int
}

// New checks the platform preconditions and returns an idle controller.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if deps.Provider == nil {
		return nil, models.ErrPlatformUnsupported
	}
	if deps.Engine == nil {
		return nil, errors.New("room controller requires a turn engine")
	}
	if deps.Language == "" {
		deps.Language = localization.DefaultLanguage
	}
	c := &Controller{
		deps:        deps,
		clockPeriod: config.ClockTickPeriod,
		now:         time.Now,
		mode:        models.DefaultMode,
		subs:        make(map[int]func(models.RoomEvent)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EnterRoom starts a session: media capture begins in the background, the
// user is announced to the roster, the count subscription starts and the
// transcript is seeded with a welcome message.
func (c *Controller) EnterRoom(ctx context.Context, roomID string, user models.User) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return &models.ValidationError{Field: "roomId"}
	}
	if user.ID == "" {
		return models.ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return models.ErrAlreadyInRoom
	}
	c.gen++
	gen := c.gen
	lifeCtx, stop := context.WithCancel(context.Background())
	c.session = &models.RoomSession{RoomID: roomID, LocalUser: user, JoinedAt: c.now()}
	c.transcript = transcript.New()
	c.mode = models.DefaultMode
	c.busy = false
	c.participants = presence.DisplayCount(0)
	c.location = nil
	c.stop = stop
	c.media = media.NewSession(media.Options{
		Provider:     c.deps.Provider,
		NewTransport: c.deps.NewTransport,
		Warning:      c.text(localization.KeyMediaWarning),
		OnChange:     func(st models.MediaState) { c.onMedia(gen, roomID, st) },
	})
	mediaSession := c.media
	c.mu.Unlock()

	slog.Info("entering room", "room_id", roomID, "user_id", user.ID)

	go c.acquireMedia(lifeCtx, mediaSession, roomID)
	if c.deps.Locator != nil {
		go c.locate(lifeCtx, gen, roomID)
	}

	if c.deps.Presence != nil {
		_ = c.deps.Presence.Join(ctx, roomID, user)
	}
	unsubscribe := func() {}
	if c.deps.Presence != nil {
		unsubscribe = c.deps.Presence.SubscribeCount(lifeCtx, roomID, func(n int) { c.onCount(gen, roomID, n) })
	}

	welcome := models.ChatMessage{
		ID:         config.WelcomeMessageID,
		Sender:     models.SenderSystem,
		SenderName: config.SystemSenderName,
		Text:       c.format(localization.KeyWelcome, roomID),
		Timestamp:  c.now().UnixMilli(),
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		unsubscribe()
		// a leave that ran during Join found nothing registered yet
		if c.deps.Presence != nil {
			_ = c.deps.Presence.Leave(ctx, roomID, user)
		}
		return models.ErrNotInRoom
	}
	c.unsubscribe = unsubscribe
	c.transcript.Append(welcome)
	session := *c.session
	c.mu.Unlock()

	if c.clockPeriod > 0 {
		go c.runClock(lifeCtx, roomID)
	}

	c.emit(models.EventEntered, roomID, session)
	c.emit(models.EventMessage, roomID, welcome)
	return nil
}

// LeaveRoom tears the session down in reverse order. Calling it outside a
// room does nothing.
func (c *Controller) LeaveRoom(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	session := *c.session
	unsubscribe := c.unsubscribe
	mediaSession := c.media
	stop := c.stop

	c.gen++
	c.session = nil
	c.media = nil
	c.transcript = nil
	c.busy = false
	c.location = nil
	c.unsubscribe = nil
	c.stop = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if c.deps.Presence != nil {
		_ = c.deps.Presence.Leave(ctx, session.RoomID, session.LocalUser)
	}
	if mediaSession != nil {
		mediaSession.Teardown()
	}
	if stop != nil {
		stop()
	}

	slog.Info("left room", "room_id", session.RoomID, "user_id", session.LocalUser.ID)
	if c.deps.OnLeave != nil {
		c.deps.OnLeave(session.RoomID)
	}
	c.emit(models.EventLeft, session.RoomID, nil)
	return nil
}

// SendChat appends the prompt, asks the assistant and appends the reply.
// Only one turn may be outstanding; a second call fails with
// ErrTurnInFlight. An empty mode uses the panel's current mode.
func (c *Controller) SendChat(ctx context.Context, text string, mode models.AIMode) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, &models.ValidationError{Field: "text"}
	}
	if mode != "" && !mode.Valid() {
		return models.ChatMessage{}, &models.ValidationError{Field: "mode", Reason: "unknown mode " + string(mode)}
	}

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return models.ChatMessage{}, models.ErrNotInRoom
	}
	if c.busy {
		c.mu.Unlock()
		return models.ChatMessage{}, models.ErrTurnInFlight
	}
	if mode == "" {
		mode = c.mode
	}
	tr := c.transcript
	history := tr.All()
	prompt := models.ChatMessage{
		ID:         uuid.NewString(),
		Sender:     models.SenderUser,
		SenderName: config.UserSenderName,
		Text:       text,
		Timestamp:  c.now().UnixMilli(),
	}
	tr.Append(prompt)
	c.busy = true
	gen := c.gen
	roomID := c.session.RoomID
	var loc *models.Location
	if c.location != nil {
		l := *c.location
		loc = &l
	}
	c.mu.Unlock()

	c.emit(models.EventMessage, roomID, prompt)
	c.emit(models.EventBusy, roomID, true)

	reply := c.deps.Engine.SendTurn(ctx, history, text, mode, loc)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		slog.Info("discarding assistant reply for a room that was left", "room_id", roomID)
		return models.ChatMessage{}, models.ErrTurnDiscarded
	}
	if reply.ID == "" || !tr.Append(reply) {
		reply.ID = uuid.NewString()
		tr.Append(reply)
	}
	c.busy = false
	c.mu.Unlock()

	c.emit(models.EventMessage, roomID, reply)
	c.emit(models.EventBusy, roomID, false)
	return reply, nil
}

// SetMode changes the assistant mode for later turns.
func (c *Controller) SetMode(mode models.AIMode) error {
	if !mode.Valid() {
		return &models.ValidationError{Field: "mode", Reason: "unknown mode " + string(mode)}
	}
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return models.ErrNotInRoom
	}
	c.mode = mode
	roomID := c.session.RoomID
	c.mu.Unlock()

	c.emit(models.EventMode, roomID, mode)
	return nil
}

func (c *Controller) ToggleMic() (models.MediaState, error) {
	m, err := c.currentMedia()
	if err != nil {
		return models.MediaState{}, err
	}
	return m.ToggleMic(), nil
}

func (c *Controller) ToggleCamera() (models.MediaState, error) {
	m, err := c.currentMedia()
	if err != nil {
		return models.MediaState{}, err
	}
	return m.ToggleCamera(), nil
}

func (c *Controller) StartShare(ctx context.Context) error {
	m, err := c.currentMedia()
	if err != nil {
		return err
	}
	return m.StartShare(ctx)
}

func (c *Controller) StopShare() error {
	m, err := c.currentMedia()
	if err != nil {
		return err
	}
	m.StopShare()
	return nil
}

// Messages returns the transcript of the current room.
func (c *Controller) Messages() ([]models.ChatMessage, error) {
	c.mu.Lock()
	tr := c.transcript
	c.mu.Unlock()
	if tr == nil {
		return nil, models.ErrNotInRoom
	}
	return tr.All(), nil
}

// State returns a snapshot of the current room. Session is nil when idle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{Mode: c.mode, Busy: c.busy, Participants: c.participants}
	if c.session == nil {
		st.Participants = 0
		return st
	}
	s := *c.session
	st.Session = &s
	st.Fragment = Fragment(s.RoomID)
	if c.media != nil {
		st.Media = c.media.Snapshot()
	}
	if c.location != nil {
		l := *c.location
		st.Location = &l
	}
	return st
}

// ShareLink returns the absolute link to the current room.
func (c *Controller) ShareLink(baseURL string) (string, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return "", models.ErrNotInRoom
	}
	roomID := c.session.RoomID
	c.mu.Unlock()
	return Link(baseURL, roomID)
}

func (c *Controller) currentMedia() (*media.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.media == nil {
		return nil, models.ErrNotInRoom
	}
	return c.media, nil
}

func (c *Controller) acquireMedia(ctx context.Context, m *media.Session, roomID string) {
	if err := m.Acquire(ctx); err != nil {
		if st := m.Snapshot(); st.Warning != "" {
			c.emit(models.EventWarning, roomID, st.Warning)
		}
	}
}

func (c *Controller) locate(ctx context.Context, gen uint64, roomID string) {
	loc, err := c.deps.Locator.Locate(ctx)
	if err != nil {
		slog.Info("location unavailable", "room_id", roomID, "err", err)
		return
	}
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.location = &loc
	c.mu.Unlock()
}

func (c *Controller) onMedia(gen uint64, roomID string, st models.MediaState) {
	c.mu.Lock()
	current := gen == c.gen
	c.mu.Unlock()
	if !current && !st.Terminated {
		return
	}
	c.emit(models.EventMedia, roomID, st)
}

// onCount stores the latest roster size; counts are never accumulated.
func (c *Controller) onCount(gen uint64, roomID string, n int) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.participants = presence.DisplayCount(n)
	count := c.participants
	c.mu.Unlock()

	c.emit(models.EventParticipants, roomID, count)
}

func (c *Controller) runClock(ctx context.Context, roomID string) {
	ticker := time.NewTicker(c.clockPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.emit(models.EventClock, roomID, t)
		}
	}
}

func (c *Controller) text(key string) string {
	if c.deps.Strings == nil {
		return key
	}
	return c.deps.Strings.GetString(c.deps.Language, key)
}

func (c *Controller) format(key string, args ...any) string {
	if c.deps.Strings == nil {
		return key
	}
	return c.deps.Strings.Format(c.deps.Language, key, args...)
}
