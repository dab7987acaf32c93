package transport

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/stream"
)

// Auto prefers the live transport and switches to polling for good once the
// streaming endpoint turns out to be unavailable
type Auto struct {
	live    *SSETransport
	poll    *PollingTransport
	metrics *metrics.Recorder
	polling atomic.Bool
}

// NewAuto combines a live and a polling transport
func NewAuto(live *SSETransport, poll *PollingTransport, rec *metrics.Recorder) *Auto {
	return &Auto{live: live, poll: poll, metrics: rec}
}

// Polling reports whether the fallback has been engaged
func (a *Auto) Polling() bool {
	return a.polling.Load()
}

// Open implements Transport
func (a *Auto) Open(ctx context.Context, req Request, handler stream.Handler) CancelFunc {
	return open(ctx, handler, a.metrics, func(ctx context.Context, d *delivery) {
		if !a.polling.Load() {
			err := a.live.stream(ctx, req, d)
			if err == nil || d.events > 0 || !streamUnavailable(err) {
				d.fail(err)
				return
			}

			if a.polling.CompareAndSwap(false, true) {
				log.Info("Streaming endpoint unavailable, switching to polling", "error", err)
				a.metrics.TransportFallback()
			}
		}
		d.fail(a.poll.stream(ctx, req, d))
	})
}

// streamUnavailable reports whether err means the server cannot stream at all
func streamUnavailable(err error) bool {
	if errors.Is(err, ErrNotEventStream) {
		return true
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch httpErr.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	default:
		return false
	}
}

var _ Transport = (*Auto)(nil)
