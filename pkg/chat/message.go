package chat

import (
	"github.com/google/uuid"
)

// Kind identifies the role of a message. The set is closed: every message in a
// session is exactly one of the four kinds below.
type Kind string

const (
	KindSystem     Kind = "system"
	KindUser       Kind = "user"
	KindAssistant  Kind = "assistant"
	KindToolResult Kind = "tool_result"
)

// ToolCall represents a request emitted by the model to perform a side-effect.
// Compatible with OpenAI/MCP tool call schemas.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is a single entry in a conversation transcript.
// Messages are immutable once created: construct them via the New* functions
// and never modify the fields afterwards.
//
// Every message carries a unique ID assigned at construction. Identity (not
// value equality) is what distinguishes two structurally identical messages,
// which keeps subroutine merge-back well-defined even when a child produces
// content identical to an existing parent message.
type Message struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`

	// Metadata carries side-channel data attached by the producing source
	// (e.g. structured output, token usage).
	Metadata map[string]any `json:"metadata,omitempty"`

	// ToolCalls is populated on assistant messages that request side-effects.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and IsError are populated on tool result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// MessageOption configures optional message fields at construction.
type MessageOption func(*Message)

// WithMetadata attaches side-channel metadata to the message.
func WithMetadata(meta map[string]any) MessageOption {
	return func(m *Message) {
		m.Metadata = meta
	}
}

// WithToolCalls attaches tool call requests to an assistant message.
func WithToolCalls(calls ...ToolCall) MessageOption {
	return func(m *Message) {
		m.ToolCalls = append(m.ToolCalls, calls...)
	}
}

// NewSystem creates a system message.
func NewSystem(content string, opts ...MessageOption) Message {
	return newMessage(KindSystem, content, opts)
}

// NewUser creates a user message.
func NewUser(content string, opts ...MessageOption) Message {
	return newMessage(KindUser, content, opts)
}

// NewAssistant creates an assistant message.
func NewAssistant(content string, opts ...MessageOption) Message {
	return newMessage(KindAssistant, content, opts)
}

// NewToolResult creates a tool result message answering the given tool call.
// The result must already be serialized to a string by the caller.
func NewToolResult(toolCallID, result string, isError bool, opts ...MessageOption) Message {
	m := newMessage(KindToolResult, result, opts)
	m.ToolCallID = toolCallID
	m.IsError = isError
	return m
}

func newMessage(kind Kind, content string, opts []MessageOption) Message {
	m := Message{
		ID:      uuid.NewString(),
		Kind:    kind,
		Content: content,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}
