package controllers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/killallgit/deckchat/pkg/chat"
	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/loading"
	"github.com/killallgit/deckchat/pkg/logger"
	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/stream"
	"github.com/killallgit/deckchat/pkg/transport"
)

// State of the chat controller
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
	// StateError accepts sends like StateIdle; it only records that the last
	// turn or lookup failed
	StateError State = "error"
)

var (
	ErrEmptyMessage          = errors.New("message content cannot be empty")
	ErrSessionNotInitialized = errors.New("session not initialized")
	ErrTurnInProgress        = errors.New("a generation is already in progress")
	ErrDisposed              = errors.New("chat controller disposed")
)

// SessionLoader fetches persisted sessions
type SessionLoader interface {
	GetSession(ctx context.Context, id string) (*session.Session, error)
}

// ContextBridge supplies the pinned slides for a request and clears them
// after a turn completes
type ContextBridge interface {
	Capture() *deck.SlideContext
	Clear()
	Pinned() []int
}

// Snapshot is a consistent copy of the controller's visible state
type Snapshot struct {
	SessionID   string
	State       State
	Messages    []chat.Message
	LoadingText string
	Error       string
	Replacement *deck.ReplacementInfo
	Feedback    string
	Pinned      []int
}

// Option configures a ChatController
type Option func(*ChatController)

// WithMetrics records turn outcomes on rec
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *ChatController) { c.metrics = rec }
}

// WithLoadingInterval sets how often the loading text rotates
func WithLoadingInterval(d time.Duration) Option {
	return func(c *ChatController) { c.interval = d }
}

// WithOnChange registers fn to receive a snapshot after every state change.
// fn runs without the controller lock held and may call back into it.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *ChatController) { c.onChange = fn }
}

// turn is one send-to-terminal-event cycle
type turn struct {
	id      string
	cancel  transport.CancelFunc
	rotator *loading.Rotator
	context *deck.SlideContext
	started time.Time
	done    chan struct{}
}

// ChatController drives a chat session: it sends user requests, applies the
// streamed events to the transcript and the deck, and guarantees at most one
// generation in flight. The sink and bridge are called with the controller
// lock held and must not call back into the controller.
type ChatController struct {
	transport transport.Transport
	sessions  SessionLoader
	sink      deck.Sink
	bridge    ContextBridge
	store     *chat.Store
	metrics   *metrics.Recorder
	interval  time.Duration
	onChange  func(Snapshot)
	log       *logger.ComponentLogger

	mu          sync.Mutex
	sessionID   string
	state       State
	turn        *turn
	loadingText string
	errText     string
	replacement *deck.ReplacementInfo
	loadSeq     int
	disposed    bool
}

// NewChatController wires a controller. sink and bridge may be nil when the
// caller has no deck view or selection.
func NewChatController(tr transport.Transport, sessions SessionLoader, sink deck.Sink, bridge ContextBridge, opts ...Option) *ChatController {
	c := &ChatController{
		transport: tr,
		sessions:  sessions,
		sink:      sink,
		bridge:    bridge,
		store:     chat.NewStore(),
		interval:  loading.DefaultInterval,
		state:     StateIdle,
		log:       logger.WithComponent("chat_controller"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadSession switches to session id, abandoning any turn in flight, and
// restores its history. A session the server does not know yet starts empty.
func (c *ChatController) LoadSession(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.finishLocked(metrics.OutcomeCancelled)
	c.state = StateIdle
	c.errText = ""
	c.replacement = nil
	c.sessionID = ""
	c.loadSeq++
	seq := c.loadSeq
	c.store.ReplaceAll(nil)
	c.mu.Unlock()
	c.notify()

	s, err := c.sessions.GetSession(ctx, id)

	c.mu.Lock()
	if c.disposed || seq != c.loadSeq {
		// A later LoadSession or Dispose took over
		c.mu.Unlock()
		return nil
	}

	c.sessionID = id
	// A send attempted while loading may have left an error behind
	c.state = StateIdle
	c.errText = ""
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.log.Debug("No stored history for session", "session_id", id)
	case err != nil:
		c.log.Error("Failed to load session history", "session_id", id, "error", err)
		c.state = StateError
		c.errText = err.Error()
	default:
		c.store.ReplaceAll(s.Transcript())
		if s.SlideDeck != nil && c.sink != nil {
			c.sink.Apply(s.SlideDeck, s.RawHTML)
		}
		c.log.Debug("Session loaded", "session_id", id, "messages", len(s.Messages))
	}
	c.mu.Unlock()
	c.notify()

	if errors.Is(err, session.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Send starts a generation turn for text. The user message is in the
// transcript by the time Send returns.
func (c *ChatController) Send(text string) error {
	content := strings.TrimSpace(text)

	c.mu.Lock()
	switch {
	case c.disposed:
		c.mu.Unlock()
		return ErrDisposed
	case content == "":
		c.mu.Unlock()
		return ErrEmptyMessage
	case c.turn != nil:
		c.mu.Unlock()
		return ErrTurnInProgress
	case c.sessionID == "":
		c.state = StateError
		c.errText = ErrSessionNotInitialized.Error()
		c.mu.Unlock()
		c.notify()
		return ErrSessionNotInitialized
	}

	c.store.Append(chat.NewUserMessage(content))

	t := &turn{
		id:      uuid.NewString(),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	if c.bridge != nil {
		t.context = c.bridge.Capture()
	}
	t.rotator = loading.NewRotator(c.interval, func(index int) {
		c.tick(t, index)
	})

	c.turn = t
	c.state = StateSending
	c.errText = ""
	c.replacement = nil

	req := transport.Request{
		SessionID:    c.sessionID,
		Message:      content,
		SlideContext: t.context,
	}
	c.mu.Unlock()

	pinned := 0
	if t.context != nil {
		pinned = len(t.context.Indices)
	}
	c.log.Info("Turn started", "turn_id", t.id, "session_id", req.SessionID, "pinned", pinned)

	t.rotator.Start()
	cancel := c.transport.Open(context.Background(), req, &turnHandler{controller: c, turn: t})

	c.mu.Lock()
	if c.turn == t {
		t.cancel = cancel
		c.mu.Unlock()
	} else {
		// Cancelled or disposed before the transport handle came back
		c.mu.Unlock()
		cancel()
	}
	c.notify()

	return nil
}

// Cancel abandons the turn in flight without reporting an error.
// It does nothing when no turn is active.
func (c *ChatController) Cancel() {
	c.mu.Lock()
	if c.turn == nil {
		c.mu.Unlock()
		return
	}
	c.log.Info("Turn cancelled", "turn_id", c.turn.id)
	c.finishLocked(metrics.OutcomeCancelled)
	c.state = StateIdle
	c.mu.Unlock()
	c.notify()
}

// DismissReplacement hides the replacement feedback of the last turn
func (c *ChatController) DismissReplacement() {
	c.mu.Lock()
	if c.replacement == nil {
		c.mu.Unlock()
		return
	}
	c.replacement = nil
	c.mu.Unlock()
	c.notify()
}

// Dispose cancels any turn and stops the controller for good
func (c *ChatController) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	c.finishLocked(metrics.OutcomeCancelled)
	c.state = StateIdle
}

// Wait blocks until no turn is in flight or ctx is done
func (c *ChatController) Wait(ctx context.Context) error {
	c.mu.Lock()
	t := c.turn
	c.mu.Unlock()

	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ChatController) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *ChatController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:   c.sessionID,
		State:       c.state,
		Messages:    c.store.Snapshot(),
		LoadingText: c.loadingText,
		Error:       c.errText,
	}
	if c.replacement != nil {
		info := *c.replacement
		snap.Replacement = &info
		snap.Feedback = deck.Feedback(info)
	}
	if c.bridge != nil {
		snap.Pinned = c.bridge.Pinned()
	}
	return snap
}

func (c *ChatController) tick(t *turn, index int) {
	c.mu.Lock()
	if c.turn != t {
		c.mu.Unlock()
		return
	}
	c.loadingText = loading.Message(index)
	c.mu.Unlock()
	c.notify()
}

func (c *ChatController) handleEvent(t *turn, event stream.Event) {
	c.mu.Lock()
	if c.turn != t {
		c.mu.Unlock()
		c.log.Debug("Dropping event for finished turn", "turn_id", t.id, "type", event.Kind())
		return
	}

	switch e := event.(type) {
	case stream.StartEvent:
		c.log.Debug("Generation started", "turn_id", t.id, "message", e.Message)
	case stream.ProgressEvent:
		c.log.Debug("Generation progress", "turn_id", t.id, "message", e.Message)
	case stream.AssistantEvent:
		if e.Content != "" {
			c.store.Append(chat.NewAssistantMessage(e.Content))
		}
	case stream.ToolCallEvent:
		c.store.Append(chat.NewToolCallMessage(e.ToolName, e.ToolInput))
		c.loadingText = loading.ToolStatus(e.ToolName)
	case stream.ToolResultEvent:
		c.store.Append(chat.NewToolResultMessage(e.ToolName, e.ToolOutput))
	case stream.CompleteEvent:
		c.completeLocked(t, e)
	case stream.ErrorEvent:
		msg := e.Message
		if msg == "" {
			msg = "generation failed"
		}
		c.failLocked(t, msg)
	case stream.UnknownEvent:
		c.log.Debug("Ignoring unknown event", "turn_id", t.id, "type", e.Type)
	}
	c.mu.Unlock()
	c.notify()
}

func (c *ChatController) handleError(t *turn, err error) {
	c.mu.Lock()
	if c.turn != t {
		c.mu.Unlock()
		return
	}
	c.failLocked(t, err.Error())
	c.mu.Unlock()
	c.notify()
}

func (c *ChatController) completeLocked(t *turn, e stream.CompleteEvent) {
	c.finishLocked(metrics.OutcomeCompleted)
	c.state = StateIdle

	if e.Slides != nil && c.sink != nil {
		c.sink.Apply(e.Slides, e.RawHTML)
	}
	if c.bridge != nil {
		c.bridge.Clear()
	}

	switch {
	case e.ReplacementInfo != nil && !t.context.Empty():
		info := *e.ReplacementInfo
		c.replacement = &info
	case e.ReplacementInfo != nil:
		c.log.Debug("Discarding replacement info for unscoped turn", "turn_id", t.id)
	}

	c.log.Info("Turn completed", "turn_id", t.id, "slides", e.Slides.Len(), "elapsed", time.Since(t.started))
}

func (c *ChatController) failLocked(t *turn, msg string) {
	c.finishLocked(metrics.OutcomeFailed)
	c.state = StateError
	c.errText = msg
	c.log.Error("Turn failed", "turn_id", t.id, "error", msg)
}

// finishLocked tears down the active turn, if any
func (c *ChatController) finishLocked(outcome string) {
	t := c.turn
	if t == nil {
		return
	}
	c.turn = nil
	c.loadingText = ""

	t.rotator.Stop()
	if t.cancel != nil {
		t.cancel()
	}
	close(t.done)
	c.metrics.TurnFinished(outcome, time.Since(t.started))
}

func (c *ChatController) notify() {
	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}

// turnHandler routes transport callbacks to the turn that opened them
type turnHandler struct {
	controller *ChatController
	turn       *turn
}

func (h *turnHandler) OnEvent(event stream.Event) {
	h.controller.handleEvent(h.turn, event)
}

func (h *turnHandler) OnError(err error) {
	h.controller.handleError(h.turn, err)
}

var _ stream.Handler = (*turnHandler)(nil)
