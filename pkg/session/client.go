package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/killallgit/deckchat/pkg/config"
)

// ErrSessionNotFound is returned when the server has no record of a session
var ErrSessionNotFound = errors.New("session not found")

// APIError is a non-2xx answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status: %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewFromConfig creates a client for the configured API
func NewFromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	var created Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions", req, &created); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &created, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(id), nil, &s); err != nil {
		return nil, sessionError("get", id, err)
	}
	return &s, nil
}

func (c *Client) RenameSession(ctx context.Context, id, title string) (*Session, error) {
	var s Session
	if err := c.doJSON(ctx, http.MethodPatch, sessionPath(id), renameRequest{Title: title}, &s); err != nil {
		return nil, sessionError("rename", id, err)
	}
	return &s, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, sessionPath(id), nil, nil); err != nil {
		return sessionError("delete", id, err)
	}
	return nil
}

func (c *Client) ListProfiles(ctx context.Context) ([]Profile, error) {
	var resp profilesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/profiles", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return resp.Profiles, nil
}

// UploadImage sends r as a multipart file upload
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/images", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var image Image
	if err := c.do(req, &image); err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	return &image, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readAPIError prefers the server's detail or error field over the raw body
func readAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Detail != "":
			apiErr.Message = payload.Detail
		case payload.Error != "":
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

func sessionPath(id string) string {
	return "/api/sessions/" + url.PathEscape(id)
}

func sessionError(op, id string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("failed to %s session %s: %w", op, id, ErrSessionNotFound)
	}
	return fmt.Errorf("failed to %s session %s: %w", op, id, err)
}
