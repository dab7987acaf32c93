package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/killallgit/deckchat/pkg/deck"
)

// Kind is the wire value of an event's "type" field
type Kind string

const (
	KindStart      Kind = "start"
	KindProgress   Kind = "progress"
	KindAssistant  Kind = "assistant"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
	KindComplete   Kind = "complete"
	KindError      Kind = "error"

	// KindUnknown stands in for any unrecognised type where a bounded set
	// of kinds is needed
	KindUnknown Kind = "unknown"
)

// Event is one decoded stream record. The set of implementations is closed:
// StartEvent, ProgressEvent, AssistantEvent, ToolCallEvent, ToolResultEvent,
// CompleteEvent, ErrorEvent and UnknownEvent.
type Event interface {
	Kind() Kind
	sealed()
}

// StartEvent announces that generation has begun
type StartEvent struct {
	Message string
}

// ProgressEvent carries advisory status text
type ProgressEvent struct {
	Message string
}

// AssistantEvent is a textual reply fragment
type AssistantEvent struct {
	Content string
}

// ToolCallEvent reports that the agent invoked a tool
type ToolCallEvent struct {
	ToolName  string
	ToolInput map[string]any
}

// ToolResultEvent carries the output of a previously invoked tool
type ToolResultEvent struct {
	ToolName   string
	ToolOutput string
}

// CompleteEvent terminates a successful turn. Slides is nil when the turn
// did not produce a new deck.
type CompleteEvent struct {
	Slides          *deck.SlideDeck
	RawHTML         *string
	ReplacementInfo *deck.ReplacementInfo
}

// ErrorEvent terminates a failed turn
type ErrorEvent struct {
	Message string
}

// UnknownEvent is any record whose type is not recognised
type UnknownEvent struct {
	Type string
}

func (StartEvent) Kind() Kind      { return KindStart }
func (ProgressEvent) Kind() Kind   { return KindProgress }
func (AssistantEvent) Kind() Kind  { return KindAssistant }
func (ToolCallEvent) Kind() Kind   { return KindToolCall }
func (ToolResultEvent) Kind() Kind { return KindToolResult }
func (CompleteEvent) Kind() Kind   { return KindComplete }
func (ErrorEvent) Kind() Kind      { return KindError }
func (e UnknownEvent) Kind() Kind  { return Kind(e.Type) }

func (StartEvent) sealed()      {}
func (ProgressEvent) sealed()   {}
func (AssistantEvent) sealed()  {}
func (ToolCallEvent) sealed()   {}
func (ToolResultEvent) sealed() {}
func (CompleteEvent) sealed()   {}
func (ErrorEvent) sealed()      {}
func (UnknownEvent) sealed()    {}

// IsTerminal reports whether e ends its request
func IsTerminal(e Event) bool {
	switch e.(type) {
	case CompleteEvent, ErrorEvent:
		return true
	default:
		return false
	}
}

type envelope struct {
	Type            json.RawMessage       `json:"type"`
	Message         string                `json:"message"`
	Error           string                `json:"error"`
	Content         string                `json:"content"`
	ToolName        string                `json:"tool_name"`
	ToolInput       json.RawMessage       `json:"tool_input"`
	ToolOutput      json.RawMessage       `json:"tool_output"`
	Slides          json.RawMessage       `json:"slides"`
	RawHTML         *string               `json:"raw_html"`
	ReplacementInfo *deck.ReplacementInfo `json:"replacement_info"`
}

// Decode parses one record payload into an Event
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode stream event: %w", err)
	}

	kind := typeName(env.Type)
	switch Kind(kind) {
	case KindStart:
		return StartEvent{Message: env.Message}, nil
	case KindProgress:
		return ProgressEvent{Message: env.Message}, nil
	case KindAssistant:
		return AssistantEvent{Content: env.Content}, nil
	case KindToolCall:
		return ToolCallEvent{ToolName: env.ToolName, ToolInput: toolInput(env.ToolInput)}, nil
	case KindToolResult:
		return ToolResultEvent{ToolName: env.ToolName, ToolOutput: rawText(env.ToolOutput)}, nil
	case KindComplete:
		slides, err := decodeDeck(env.Slides)
		if err != nil {
			return nil, err
		}
		return CompleteEvent{
			Slides:          slides,
			RawHTML:         env.RawHTML,
			ReplacementInfo: env.ReplacementInfo,
		}, nil
	case KindError:
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return ErrorEvent{Message: msg}, nil
	default:
		return UnknownEvent{Type: kind}, nil
	}
}

// typeName returns the record type, or "" when it is absent or not a string
func typeName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// toolInput accepts an object or a JSON-encoded object. Anything else is
// kept under the "input" key.
func toolInput(raw json.RawMessage) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var args map[string]any
	if err := json.Unmarshal(trimmed, &args); err == nil {
		return args
	}

	var encoded string
	if err := json.Unmarshal(trimmed, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &args); err == nil {
			return args
		}
		return map[string]any{"input": encoded}
	}

	var other any
	json.Unmarshal(trimmed, &other)
	return map[string]any{"input": other}
}

// rawText returns JSON strings unquoted and any other JSON value verbatim
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// decodeDeck accepts either a deck object or a bare slide array
func decodeDeck(raw json.RawMessage) (*deck.SlideDeck, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var slides []deck.Slide
		if err := json.Unmarshal(trimmed, &slides); err != nil {
			return nil, fmt.Errorf("failed to decode slides: %w", err)
		}
		return &deck.SlideDeck{Slides: slides}, nil
	}

	var d deck.SlideDeck
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, fmt.Errorf("failed to decode slide deck: %w", err)
	}
	return &d, nil
}
