package chat

import (
	"strings"
	"time"
)

// Role identifies who produced a transcript entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one transcript entry
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// ToolCall is set on assistant entries that record a tool invocation
	ToolCall *ToolCall `json:"tool_call,omitempty"`
	// ToolCallID is the name of the tool a tool entry answers
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall describes a tool invocation made by the agent
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func NewUserMessage(content string) Message {
	return Message{
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

func NewAssistantMessage(content string) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewToolCallMessage records a tool invocation as an assistant entry
func NewToolCallMessage(name string, arguments map[string]any) Message {
	return Message{
		Role:      RoleAssistant,
		ToolCall:  &ToolCall{Name: name, Arguments: arguments},
		Timestamp: time.Now(),
	}
}

func NewToolResultMessage(toolName, output string) Message {
	return Message{
		Role:       RoleTool,
		Content:    output,
		ToolCallID: toolName,
		Timestamp:  time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

func (m Message) IsTool() bool {
	return m.Role == RoleTool
}

func (m Message) HasToolCall() bool {
	return m.ToolCall != nil
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" && m.ToolCall == nil
}
