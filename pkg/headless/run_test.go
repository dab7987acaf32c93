package headless_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/headless"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/stream"
	"github.com/killallgit/deckchat/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport replays a fixed event list on its own goroutine
type scriptedTransport struct {
	events []stream.Event
	err    error
	got    chan transport.Request
}

func (s *scriptedTransport) Open(ctx context.Context, req transport.Request, h stream.Handler) transport.CancelFunc {
	s.got <- req
	go func() {
		for _, e := range s.events {
			h.OnEvent(e)
		}
		if s.err != nil {
			h.OnError(s.err)
		}
	}()
	return func() {}
}

type staticSessions struct {
	session *session.Session
}

func (s staticSessions) GetSession(ctx context.Context, id string) (*session.Session, error) {
	if s.session == nil {
		return nil, session.ErrSessionNotFound
	}
	return s.session, nil
}

func slides(n int) *deck.SlideDeck {
	d := &deck.SlideDeck{}
	for i := 0; i < n; i++ {
		d.Slides = append(d.Slides, deck.Slide{HTML: "<div>slide</div>"})
	}
	return d
}

func TestRunHeadlessPrintsTurn(t *testing.T) {
	raw := "<html><body><div>slide</div></body></html>"
	tr := &scriptedTransport{
		got: make(chan transport.Request, 1),
		events: []stream.Event{
			stream.StartEvent{},
			stream.ToolCallEvent{ToolName: "search", ToolInput: map[string]any{"q": "revenue"}},
			stream.ToolResultEvent{ToolName: "search", ToolOutput: "Revenue grew\n12%"},
			stream.AssistantEvent{Content: "Here are your slides."},
			stream.CompleteEvent{Slides: slides(3), RawHTML: &raw},
		},
	}

	var out bytes.Buffer
	err := headless.RunHeadless(context.Background(), "Create 3 slides", headless.Options{
		Transport:       tr,
		Sessions:        staticSessions{},
		SessionID:       "s-1",
		ShowHTML:        true,
		Out:             &out,
		LoadingInterval: time.Hour,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "you> Create 3 slides")
	assert.Contains(t, text, "... Reading your request...")
	assert.Contains(t, text, "-> search q=revenue")
	assert.Contains(t, text, "<- search: Revenue grew 12%")
	assert.Contains(t, text, "Here are your slides.")
	assert.Contains(t, text, "body")
	assert.Contains(t, text, "[Session: s-1, Slides: 3]")

	req := <-tr.got
	assert.Nil(t, req.SlideContext)
}

func TestRunHeadlessWithPins(t *testing.T) {
	net := -1
	tr := &scriptedTransport{
		got: make(chan transport.Request, 1),
		events: []stream.Event{
			stream.CompleteEvent{
				Slides:          slides(2),
				ReplacementInfo: &deck.ReplacementInfo{OriginalCount: 2, ReplacementCount: 1, NetChange: &net},
			},
		},
	}
	history := &session.Session{
		ID:        "s-1",
		Messages:  []session.Message{{Role: "user", Content: "earlier prompt"}},
		SlideDeck: slides(3),
	}

	var out bytes.Buffer
	err := headless.RunHeadless(context.Background(), "merge these", headless.Options{
		Transport:       tr,
		Sessions:        staticSessions{session: history},
		SessionID:       "s-1",
		Pins:            []int{1, 2},
		Out:             &out,
		LoadingInterval: time.Hour,
	})
	require.NoError(t, err)

	req := <-tr.got
	require.NotNil(t, req.SlideContext)
	assert.Equal(t, []int{1, 2}, req.SlideContext.Indices)

	text := out.String()
	assert.NotContains(t, text, "earlier prompt", "history is not reprinted")
	assert.Contains(t, text, "condensed 2 slides into 1 (-1)")
	assert.Contains(t, text, "Slides: 2]")
}

func TestRunHeadlessReportsFailure(t *testing.T) {
	tr := &scriptedTransport{
		got:    make(chan transport.Request, 1),
		events: []stream.Event{stream.AssistantEvent{Content: "partial"}},
		err:    errors.New("connection reset"),
	}

	var out bytes.Buffer
	err := headless.RunHeadless(context.Background(), "Create 3 slides", headless.Options{
		Transport: tr,
		Sessions:  staticSessions{},
		SessionID: "s-1",
		Out:       &out,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, out.String(), "partial")
	assert.Contains(t, out.String(), "error: connection reset")
}

func TestRunHeadlessValidatesInput(t *testing.T) {
	err := headless.RunHeadless(context.Background(), "   ", headless.Options{SessionID: "s"})
	assert.ErrorContains(t, err, "prompt cannot be empty")

	err = headless.RunHeadless(context.Background(), "hi", headless.Options{})
	assert.ErrorContains(t, err, "session id is required")
}
