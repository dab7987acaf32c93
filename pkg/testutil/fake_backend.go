package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/stream"
	"github.com/killallgit/deckchat/pkg/transport"
)

// FakeBackend is an in-memory slide generation API served over HTTP.
// Turns are scripted as raw stream records and consumed in order.
type FakeBackend struct {
	*httptest.Server

	mu         sync.Mutex
	sessions   map[string]*session.Session
	profiles   []session.Profile
	turns      [][]string
	requests   []transport.Request
	pending    map[string][]string
	noStream   bool
	eventDelay time.Duration
}

// NewFakeBackend starts a backend. Callers must Close it.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		sessions: make(map[string]*session.Session),
		pending:  make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", b.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", b.getSession)
	mux.HandleFunc("PATCH /api/sessions/{id}", b.renameSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", b.deleteSession)
	mux.HandleFunc("POST /api/images", b.uploadImage)
	mux.HandleFunc("GET /api/profiles", b.listProfiles)
	mux.HandleFunc("POST /api/chat/stream", b.streamChat)
	mux.HandleFunc("POST /api/chat/async", b.submitChat)
	mux.HandleFunc("GET /api/chat/poll/{id}", b.pollChat)

	b.Server = httptest.NewServer(mux)
	return b
}

// AddSession stores s so it can be fetched and chatted in
func (b *FakeBackend) AddSession(s *session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.ID] = s
}

// Session returns a copy of the stored session
func (b *FakeBackend) Session(id string) (session.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[id]
	if !ok {
		return session.Session{}, false
	}
	out := *s
	out.Messages = append([]session.Message(nil), s.Messages...)
	return out, true
}

func (b *FakeBackend) SetProfiles(profiles ...session.Profile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profiles = profiles
}

// QueueTurn scripts the records returned for the next chat request
func (b *FakeBackend) QueueTurn(records ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, records)
}

// DisableStreaming makes the streaming endpoint answer 404
func (b *FakeBackend) DisableStreaming() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noStream = true
}

// SetEventDelay pauses between streamed records
func (b *FakeBackend) SetEventDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eventDelay = d
}

// Requests returns every chat request received so far
func (b *FakeBackend) Requests() []transport.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]transport.Request(nil), b.requests...)
}

func (b *FakeBackend) createSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	s := &session.Session{
		ID:        uuid.NewString(),
		Title:     req.Title,
		ProfileID: req.ProfileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.AddSession(s)
	writeJSON(w, http.StatusCreated, s)
}

func (b *FakeBackend) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := b.Session(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (b *FakeBackend) renameSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	s, ok := b.sessions[r.PathValue("id")]
	if ok {
		s.Title = req.Title
		s.UpdatedAt = time.Now().UTC()
	}
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	got, _ := b.Session(r.PathValue("id"))
	writeJSON(w, http.StatusOK, got)
}

func (b *FakeBackend) uploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.NewString()
	writeJSON(w, http.StatusCreated, session.Image{
		ID:       id,
		Filename: header.Filename,
		URL:      b.URL + "/images/" + id,
		Size:     size,
	})
}

func (b *FakeBackend) deleteSession(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	_, ok := b.sessions[r.PathValue("id")]
	delete(b.sessions, r.PathValue("id"))
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) listProfiles(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	profiles := append([]session.Profile{}, b.profiles...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (b *FakeBackend) streamChat(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	disabled, delay := b.noStream, b.eventDelay
	b.mu.Unlock()
	if disabled {
		http.NotFound(w, r)
		return
	}

	records, ok := b.acceptTurn(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for _, record := range records {
		if delay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(delay):
			}
		}
		fmt.Fprintf(w, "data: %s\n\n", record)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (b *FakeBackend) submitChat(w http.ResponseWriter, r *http.Request) {
	records, ok := b.acceptTurn(w, r)
	if !ok {
		return
	}

	id := uuid.NewString()
	b.mu.Lock()
	b.pending[id] = records
	b.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]string{"request_id": id})
}

func (b *FakeBackend) pollChat(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	records, ok := b.pending[r.PathValue("id")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown request")
		return
	}

	after, _ := strconv.Atoi(r.URL.Query().Get("after"))
	if after < 0 || after > len(records) {
		after = len(records)
	}

	events := make([]json.RawMessage, 0, len(records)-after)
	for _, record := range records[after:] {
		events = append(events, json.RawMessage(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"next":   len(records),
		"done":   true,
	})
}

// acceptTurn validates a chat request, records it, and applies the scripted
// turn to the stored session the way the real service persists history.
func (b *FakeBackend) acceptTurn(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req transport.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, req)

	records := []string{AssistantRecord("OK"), CompleteRecord(nil, nil)}
	if len(b.turns) > 0 {
		records = b.turns[0]
		b.turns = b.turns[1:]
	}

	if s, ok := b.sessions[req.SessionID]; ok {
		b.persistLocked(s, req.Message, records)
	}
	return records, true
}

func (b *FakeBackend) persistLocked(s *session.Session, message string, records []string) {
	now := time.Now().UTC()
	s.Messages = append(s.Messages, session.Message{Role: "user", Content: message, CreatedAt: now})

	for _, record := range records {
		event, err := stream.Decode([]byte(record))
		if err != nil {
			continue
		}
		switch e := event.(type) {
		case stream.AssistantEvent:
			s.Messages = append(s.Messages, session.Message{Role: "assistant", Content: e.Content, CreatedAt: now})
		case stream.CompleteEvent:
			if e.Slides != nil {
				s.SlideDeck = e.Slides
			}
			if e.RawHTML != nil {
				s.RawHTML = e.RawHTML
			}
		}
	}
	s.UpdatedAt = now
}

// AssistantRecord is a stream record carrying assistant text
func AssistantRecord(content string) string {
	return record(map[string]any{"type": "assistant", "content": content})
}

func ToolCallRecord(name string, input map[string]any) string {
	return record(map[string]any{"type": "tool_call", "tool_name": name, "tool_input": input})
}

func ToolResultRecord(name, output string) string {
	return record(map[string]any{"type": "tool_result", "tool_name": name, "tool_output": output})
}

// CompleteRecord ends a turn. Either argument may be nil.
func CompleteRecord(d *deck.SlideDeck, info *deck.ReplacementInfo) string {
	payload := map[string]any{"type": "complete"}
	if d != nil {
		payload["slides"] = d
	}
	if info != nil {
		payload["replacement_info"] = info
	}
	return record(payload)
}

func ErrorRecord(message string) string {
	return record(map[string]any{"type": "error", "message": message})
}

// Deck builds a deck with one slide per HTML fragment
func Deck(htmls ...string) *deck.SlideDeck {
	d := &deck.SlideDeck{}
	for i, html := range htmls {
		d.Slides = append(d.Slides, deck.Slide{ID: fmt.Sprintf("slide-%d", i+1), HTML: html})
	}
	return d
}

func record(payload map[string]any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("testutil: unencodable record: %v", err))
	}
	return string(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
