package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/deckchat/pkg/controllers"
	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/logger"
	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/selection"
	"github.com/killallgit/deckchat/pkg/transport"
)

var log = logger.WithComponent("tui")

// Options wires the app to the backend
type Options struct {
	Transport       transport.Transport
	Sessions        controllers.SessionLoader
	Metrics         *metrics.Recorder
	LoadingInterval time.Duration
}

// App is the interactive chat screen. All fields except the controller
// are owned by the event loop goroutine.
type App struct {
	screen     tcell.Screen
	controller *controllers.ChatController
	holder     *deck.Holder
	pins       *selection.Store

	input  InputField
	scroll int
	notice string
	quit   bool
}

// NewApp builds an app drawing on screen. The screen must already be initialized.
func NewApp(screen tcell.Screen, opts Options) *App {
	a := &App{
		screen: screen,
		holder: deck.NewHolder(),
		input:  NewInputField(0),
		notice: helpText,
	}
	a.pins = selection.NewStore(a.holder)
	a.holder.OnApply(func(d *deck.SlideDeck) { a.pins.Prune(d.Len()) })

	ctrlOpts := []controllers.Option{
		controllers.WithMetrics(opts.Metrics),
		controllers.WithOnChange(func(s controllers.Snapshot) { a.post(NewSnapshotEvent(s)) }),
	}
	if opts.LoadingInterval > 0 {
		ctrlOpts = append(ctrlOpts, controllers.WithLoadingInterval(opts.LoadingInterval))
	}
	a.controller = controllers.NewChatController(opts.Transport, opts.Sessions, a.holder, selection.NewBridge(a.pins), ctrlOpts...)
	return a
}

// Controller exposes the underlying chat controller
func (a *App) Controller() *controllers.ChatController {
	return a.controller
}

// LoadSession loads id without blocking the event loop
func (a *App) LoadSession(ctx context.Context, id string) {
	go func() {
		err := a.controller.LoadSession(ctx, id)
		a.post(NewSessionLoadedEvent(id, err))
	}()
}

// Run processes screen events until the user quits or ctx is cancelled.
// sessionID, when set, is loaded first.
func (a *App) Run(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.controller.Dispose()

	go func() {
		<-ctx.Done()
		a.post(newQuitEvent())
	}()

	if sessionID != "" {
		a.LoadSession(ctx, sessionID)
	}

	a.draw()
	for !a.quit {
		ev := a.screen.PollEvent()
		if ev == nil {
			break
		}
		a.handleEvent(ctx, ev)
		if !a.quit {
			a.draw()
		}
	}
	return nil
}

func (a *App) post(ev tcell.Event) {
	if err := a.screen.PostEvent(ev); err != nil {
		log.Debug("Dropped screen event", "error", err)
	}
}

func (a *App) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		a.handleKey(ctx, ev)
	case *SnapshotEvent:
		// redrawn by the loop
	case *SessionLoadedEvent:
		if ev.Err != nil {
			a.notice = "failed to load session: " + ev.Err.Error()
			log.Warn("Session load failed", "session_id", ev.SessionID, "error", ev.Err)
		} else if a.controller.SessionID() == ev.SessionID {
			a.notice = "Session " + ev.SessionID
		}
	case *quitEvent:
		a.quit = true
	}
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		a.quit = true
	case tcell.KeyEscape:
		a.controller.Cancel()
	case tcell.KeyEnter:
		a.submit(ctx)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.input = a.input.DeleteBackward()
	case tcell.KeyLeft:
		a.input = a.input.MoveLeft()
	case tcell.KeyRight:
		a.input = a.input.MoveRight()
	case tcell.KeyPgUp:
		a.scroll += 5
	case tcell.KeyPgDn:
		a.scroll -= 5
		if a.scroll < 0 {
			a.scroll = 0
		}
	case tcell.KeyRune:
		a.input = a.input.InsertRune(ev.Rune())
	}
}

func (a *App) submit(ctx context.Context) {
	line := strings.TrimSpace(a.input.Content)
	if cmd, ok := parseCommand(line); ok {
		a.input = a.input.Clear()
		a.notice = a.runCommand(ctx, cmd)
		return
	}

	err := a.controller.Send(line)
	switch {
	case err == nil:
		a.input = a.input.Clear()
		a.scroll = 0
		a.notice = ""
	case errors.Is(err, controllers.ErrEmptyMessage):
	case errors.Is(err, controllers.ErrTurnInProgress):
		a.notice = "Still generating. Press Esc to cancel."
	default:
		a.notice = err.Error()
	}
}

func (a *App) draw() {
	width, height := a.screen.Size()
	messages, alert, input, status := NewLayout(width, height).CalculateAreas()
	snap := a.controller.Snapshot()

	a.screen.Clear()
	RenderMessages(a.screen, snap.Messages, messages, a.scroll)
	RenderAlert(a.screen, snap, a.notice, alert)
	RenderInput(a.screen, a.input, input, snap.State != controllers.StateSending)
	RenderStatus(a.screen, snap, a.holder.Current().Len(), status)
	a.screen.Show()
}
