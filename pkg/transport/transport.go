package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/killallgit/deckchat/pkg/config"
	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/logger"
	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/stream"
)

// ErrStreamClosed is reported when a response ends before a complete or error event
var ErrStreamClosed = errors.New("stream closed before a terminal event")

// ErrNotEventStream is returned when the live endpoint answers with a body
// that is not text/event-stream
var ErrNotEventStream = errors.New("response is not an event stream")

// Request is the body of one generation request
type Request struct {
	SessionID    string             `json:"session_id"`
	Message      string             `json:"message"`
	SlideContext *deck.SlideContext `json:"slide_context,omitempty"`
}

// CancelFunc aborts an open request. It is safe to call more than once and
// never blocks.
type CancelFunc func()

// Transport opens generation requests and feeds their events to a handler.
// Handler calls for one request happen on a single goroutine in emission
// order. Once the returned CancelFunc has been called the handler hears
// nothing more, and cancellation itself is never reported as an error.
type Transport interface {
	Open(ctx context.Context, req Request, handler stream.Handler) CancelFunc
}

// HTTPError is a non-2xx answer from the chat endpoints
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("chat request failed with status: %d", e.StatusCode)
	}
	return fmt.Sprintf("chat request failed with status %d: %s", e.StatusCode, e.Body)
}

// Options configures the HTTP transports
type Options struct {
	BaseURL       string
	Token         string
	Client        *http.Client
	PollInterval  time.Duration
	MaxRecordSize int
	Metrics       *metrics.Recorder
}

var log = logger.WithComponent("transport")

// New builds the transport selected by cfg.Transport.Mode
func New(cfg *config.Config, rec *metrics.Recorder) (Transport, error) {
	base := Options{
		BaseURL:       cfg.API.BaseURL,
		Token:         cfg.API.Token,
		PollInterval:  cfg.Transport.PollInterval,
		MaxRecordSize: cfg.Transport.MaxRecordSize,
		Metrics:       rec,
	}

	// Streams stay open for the whole turn, so only the polling client gets a timeout
	liveOpts := base
	liveOpts.Client = &http.Client{}
	pollOpts := base
	pollOpts.Client = &http.Client{Timeout: cfg.API.Timeout}

	switch cfg.Transport.Mode {
	case config.TransportSSE:
		return NewSSE(liveOpts), nil
	case config.TransportPoll:
		return NewPolling(pollOpts), nil
	case config.TransportAuto, "":
		return NewAuto(NewSSE(liveOpts), NewPolling(pollOpts), rec), nil
	default:
		return nil, fmt.Errorf("unknown transport mode: %s", cfg.Transport.Mode)
	}
}

// open runs fn on its own goroutine and hands back an idempotent cancel
func open(ctx context.Context, handler stream.Handler, rec *metrics.Recorder, fn func(ctx context.Context, d *delivery)) CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	d := &delivery{ctx: ctx, handler: handler, metrics: rec}

	go func() {
		defer cancel()
		fn(ctx, d)
	}()

	var once sync.Once
	return func() { once.Do(cancel) }
}

// delivery forwards decoded events for one request and enforces that
// nothing follows the terminal event or a cancellation
type delivery struct {
	ctx     context.Context
	handler stream.Handler
	metrics *metrics.Recorder
	events  int
	done    bool
}

// emit reports whether the request is still accepting events
func (d *delivery) emit(event stream.Event) bool {
	if d.done || d.ctx.Err() != nil {
		return false
	}
	d.events++
	d.metrics.EventReceived(string(metricKind(event)))
	d.handler.OnEvent(event)
	if stream.IsTerminal(event) {
		d.done = true
		return false
	}
	return true
}

// metricKind keeps server-chosen type names out of metric labels
func metricKind(event stream.Event) stream.Kind {
	if _, ok := event.(stream.UnknownEvent); ok {
		return stream.KindUnknown
	}
	return event.Kind()
}

// decode emits one raw record, dropping it if it cannot be parsed
func (d *delivery) decode(data []byte) bool {
	event, err := stream.Decode(data)
	if err != nil {
		log.Warn("Dropping malformed stream record", "error", err, "size", len(data))
		return d.drop()
	}
	return d.emit(event)
}

// drop counts a record that could not be delivered
func (d *delivery) drop() bool {
	d.metrics.RecordDropped()
	return !d.done && d.ctx.Err() == nil
}

func (d *delivery) fail(err error) {
	if err == nil || d.done || d.ctx.Err() != nil {
		return
	}
	d.done = true
	d.handler.OnError(err)
}

func setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func newHTTPError(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
