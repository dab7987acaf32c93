package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/killallgit/deckchat/pkg/stream"
)

// SSETransport posts a request to the live streaming endpoint and decodes
// the text/event-stream response
type SSETransport struct {
	baseURL       string
	token         string
	client        *http.Client
	maxRecordSize int
	opts          Options
}

// NewSSE creates the live transport
func NewSSE(opts Options) *SSETransport {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	maxRecordSize := opts.MaxRecordSize
	if maxRecordSize <= 0 {
		maxRecordSize = stream.DefaultMaxRecordSize
	}
	return &SSETransport{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		token:         opts.Token,
		client:        client,
		maxRecordSize: maxRecordSize,
		opts:          opts,
	}
}

// Open implements Transport
func (t *SSETransport) Open(ctx context.Context, req Request, handler stream.Handler) CancelFunc {
	return open(ctx, handler, t.opts.Metrics, func(ctx context.Context, d *delivery) {
		d.fail(t.stream(ctx, req, d))
	})
}

// stream returns nil once a terminal event was delivered
func (t *SSETransport) stream(ctx context.Context, req Request, d *delivery) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode chat request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat/stream", t.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	setHeaders(httpReq, t.token)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType != "text/event-stream" {
		return fmt.Errorf("%w: content type %q", ErrNotEventStream, contentType)
	}

	log.Debug("Stream opened", "session_id", req.SessionID, "has_context", req.SlideContext != nil)

	scanner := stream.NewScanner(resp.Body, t.maxRecordSize)
	for scanner.Scan() {
		if scanner.Oversized() {
			log.Warn("Dropping oversized stream record", "limit", t.maxRecordSize)
			if !d.drop() {
				return nil
			}
			continue
		}
		if !d.decode(scanner.Data()) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}
	return ErrStreamClosed
}

var _ Transport = (*SSETransport)(nil)
