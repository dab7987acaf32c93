package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/stream"
	"github.com/killallgit/deckchat/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu        sync.Mutex
	requests  []transport.Request
	handlers  []stream.Handler
	cancelled int
}

func (f *fakeTransport) Open(_ context.Context, req transport.Request, h stream.Handler) transport.CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.handlers = append(f.handlers, h)
	return func() {
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
	}
}

func (f *fakeTransport) last() (transport.Request, stream.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.requests)
	if n == 0 {
		return transport.Request{}, nil
	}
	return f.requests[n-1], f.handlers[n-1]
}

func (f *fakeTransport) opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeSessions struct {
	sessions map[string]*session.Session
}

func (f fakeSessions) GetSession(_ context.Context, id string) (*session.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, session.ErrSessionNotFound
}

func threeSlideDeck() *deck.SlideDeck {
	return &deck.SlideDeck{Slides: []deck.Slide{
		{HTML: "<section>one</section>"},
		{HTML: "<section>two</section>"},
		{HTML: "<section>three</section>"},
	}}
}

func newTestApp(t *testing.T) (*App, *fakeTransport, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 20)
	t.Cleanup(screen.Fini)

	tr := &fakeTransport{}
	sessions := fakeSessions{sessions: map[string]*session.Session{
		"s-deck": {ID: "s-deck", SlideDeck: threeSlideDeck()},
	}}
	app := NewApp(screen, Options{Transport: tr, Sessions: sessions, LoadingInterval: time.Hour})
	t.Cleanup(app.controller.Dispose)
	return app, tr, screen
}

func typeLine(app *App, line string) {
	for _, r := range line {
		app.handleEvent(context.Background(), tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	app.handleEvent(context.Background(), tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
}

func screenText(screen tcell.SimulationScreen) string {
	cells, width, height := screen.GetContents()
	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			runes := cells[y*width+x].Runes
			if len(runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(runes[0])
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func TestAppSendsAndRendersTurn(t *testing.T) {
	app, tr, screen := newTestApp(t)
	require.NoError(t, app.controller.LoadSession(context.Background(), "s-new"))

	typeLine(app, "Create 3 slides")

	req, h := tr.last()
	require.NotNil(t, h)
	assert.Equal(t, "s-new", req.SessionID)
	assert.Equal(t, "Create 3 slides", req.Message)
	assert.Empty(t, app.input.Content)

	app.draw()
	text := screenText(screen)
	assert.Contains(t, text, "You: Create 3 slides")
	assert.Contains(t, text, "… ")
	assert.Contains(t, text, "Session: s-new | sending")

	h.OnEvent(stream.AssistantEvent{Content: "Here is your deck"})
	h.OnEvent(stream.CompleteEvent{Slides: threeSlideDeck()})

	app.draw()
	text = screenText(screen)
	assert.Contains(t, text, "Assistant: Here is your deck")
	assert.Contains(t, text, "Session: s-new | idle | Slides: 3")
	assert.NotContains(t, text, "… ")
}

func TestAppRejectsSecondSendWhileGenerating(t *testing.T) {
	app, tr, _ := newTestApp(t)
	require.NoError(t, app.controller.LoadSession(context.Background(), "s-new"))

	typeLine(app, "first")
	typeLine(app, "second")

	assert.Equal(t, 1, tr.opened())
	assert.Equal(t, "second", app.input.Content)
	assert.Contains(t, app.notice, "Esc")
}

func TestAppEscapeCancelsTurn(t *testing.T) {
	app, tr, screen := newTestApp(t)
	require.NoError(t, app.controller.LoadSession(context.Background(), "s-new"))

	typeLine(app, "make it blue")
	app.handleEvent(context.Background(), tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone))

	assert.Equal(t, 1, tr.cancelled)
	app.draw()
	text := screenText(screen)
	assert.Contains(t, text, "| idle |")
	assert.NotContains(t, text, "✗")
}

func TestAppPinCommands(t *testing.T) {
	app, tr, screen := newTestApp(t)
	require.NoError(t, app.controller.LoadSession(context.Background(), "s-deck"))

	typeLine(app, "/pin 1 3")
	assert.Equal(t, []int{0, 2}, app.pins.Indices())
	assert.Equal(t, "Pinned slides 1,3", app.notice)

	app.draw()
	assert.Contains(t, screenText(screen), "Pinned: 1,3")

	typeLine(app, "/pin 9")
	assert.Equal(t, "slide 9 is not in the deck", app.notice)
	assert.Equal(t, []int{0, 2}, app.pins.Indices())

	typeLine(app, "merge these")
	req, _ := tr.last()
	require.NotNil(t, req.SlideContext)
	assert.Equal(t, []int{0, 2}, req.SlideContext.Indices)
	assert.Equal(t, []string{"<section>one</section>", "<section>three</section>"}, req.SlideContext.SlideHTMLs)

	typeLine(app, "/unpin")
	assert.Empty(t, app.pins.Indices())
}

func TestAppReplacementFeedbackAndDismiss(t *testing.T) {
	app, tr, screen := newTestApp(t)
	require.NoError(t, app.controller.LoadSession(context.Background(), "s-deck"))

	typeLine(app, "/pin 2,3")
	typeLine(app, "merge")
	_, h := tr.last()

	merged := &deck.SlideDeck{Slides: []deck.Slide{{HTML: "a"}, {HTML: "b"}}}
	h.OnEvent(stream.CompleteEvent{
		Slides:          merged,
		ReplacementInfo: &deck.ReplacementInfo{OriginalCount: 2, ReplacementCount: 1},
	})

	app.draw()
	text := screenText(screen)
	assert.Contains(t, text, "✓ ")
	assert.Contains(t, text, "Slides: 2")
	assert.NotContains(t, text, "Pinned:")

	typeLine(app, "/dismiss")
	app.draw()
	assert.NotContains(t, screenText(screen), "✓ ")
}

func TestAppShowsSendWithoutSessionError(t *testing.T) {
	app, tr, screen := newTestApp(t)

	typeLine(app, "hello")

	assert.Zero(t, tr.opened())
	app.draw()
	assert.Contains(t, screenText(screen), "✗ ")
}

func TestAppCtrlCQuits(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.handleEvent(context.Background(), tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone))

	assert.True(t, app.quit)
}

func TestAppRunLoop(t *testing.T) {
	app, tr, screen := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, "s-deck") }()

	require.Eventually(t, func() bool {
		return app.controller.SessionID() == "s-deck"
	}, time.Second, 10*time.Millisecond)

	for _, r := range "hi" {
		screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	require.Eventually(t, func() bool { return tr.opened() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(screenText(screen), "You: hi")
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, tr.cancelled)
}
