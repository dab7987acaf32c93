package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/killallgit/deckchat/pkg/stream"
)

// PollingTransport submits a request to the async endpoint and then pulls
// its events page by page. Used where streaming responses are unavailable.
type PollingTransport struct {
	baseURL  string
	token    string
	client   *http.Client
	interval time.Duration
	opts     Options
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type pollResponse struct {
	Events []json.RawMessage `json:"events"`
	Next   int               `json:"next"`
	Done   bool              `json:"done"`
}

// NewPolling creates the polling transport
func NewPolling(opts Options) *PollingTransport {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &PollingTransport{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		client:   client,
		interval: interval,
		opts:     opts,
	}
}

// Open implements Transport
func (t *PollingTransport) Open(ctx context.Context, req Request, handler stream.Handler) CancelFunc {
	return open(ctx, handler, t.opts.Metrics, func(ctx context.Context, d *delivery) {
		d.fail(t.stream(ctx, req, d))
	})
}

func (t *PollingTransport) stream(ctx context.Context, req Request, d *delivery) error {
	requestID, err := t.submit(ctx, req)
	if err != nil {
		return err
	}

	log.Debug("Polling request submitted", "request_id", requestID, "session_id", req.SessionID)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	after := 0
	for {
		page, err := t.fetch(ctx, requestID, after)
		if err != nil {
			return err
		}

		for _, raw := range page.Events {
			if !d.decode(raw) {
				return nil
			}
		}

		if page.Next > after {
			after = page.Next
		} else {
			after += len(page.Events)
		}

		if page.Done {
			return ErrStreamClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *PollingTransport) submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/chat/async", t.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create submit request: %w", err)
	}
	setHeaders(httpReq, t.token)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to submit chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newHTTPError(resp)
	}

	var submitted submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if submitted.RequestID == "" {
		return "", errors.New("submit response carried no request_id")
	}
	return submitted.RequestID, nil
}

func (t *PollingTransport) fetch(ctx context.Context, requestID string, after int) (*pollResponse, error) {
	endpoint := fmt.Sprintf("%s/api/chat/poll/%s?after=%d", t.baseURL, url.PathEscape(requestID), after)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}
	setHeaders(httpReq, t.token)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to poll chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp)
	}

	var page pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}
	return &page, nil
}

var _ Transport = (*PollingTransport)(nil)
