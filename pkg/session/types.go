package session

import (
	"encoding/json"
	"time"

	"github.com/killallgit/deckchat/pkg/chat"
	"github.com/killallgit/deckchat/pkg/deck"
)

// Session is a persisted conversation with its deck
type Session struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	ProfileID string          `json:"profile_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []Message       `json:"messages"`
	SlideDeck *deck.SlideDeck `json:"slide_deck,omitempty"`
	RawHTML   *string         `json:"raw_html,omitempty"`
}

// Message is a transcript entry as stored by the server. Tool details live
// in the free-form metadata bag.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type CreateSessionRequest struct {
	Title     string `json:"title,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

type renameRequest struct {
	Title string `json:"title"`
}

// Profile is a named generation preset
type Profile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"is_default"`
}

type profilesResponse struct {
	Profiles []Profile `json:"profiles"`
}

// Image is an uploaded asset slides can reference
type Image struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// ToChat converts a stored entry into a transcript Message
func (m Message) ToChat() chat.Message {
	msg := chat.Message{
		Role:      chat.Role(m.Role),
		Content:   m.Content,
		Timestamp: m.CreatedAt,
	}

	if call, ok := m.Metadata["tool_call"].(map[string]any); ok {
		name, _ := call["name"].(string)
		msg.ToolCall = &chat.ToolCall{
			Name:      name,
			Arguments: arguments(call["arguments"]),
		}
	}
	if id, ok := m.Metadata["tool_call_id"].(string); ok {
		msg.ToolCallID = id
	}

	return msg
}

// arguments accepts either an object or a JSON-encoded object
func arguments(v any) map[string]any {
	switch args := v.(type) {
	case map[string]any:
		return args
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(args), &decoded); err == nil {
			return decoded
		}
	}
	return nil
}

// Transcript converts stored history in order
func (s *Session) Transcript() []chat.Message {
	result := make([]chat.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		result = append(result, m.ToChat())
	}
	return result
}
