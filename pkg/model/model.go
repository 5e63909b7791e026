// Package model declares the generation capabilities the engine consumes.
// Provider-specific clients (OpenAI, Anthropic, local runtimes) live outside
// this module and plug in by implementing these interfaces.
package model

import (
	"context"

	"github.com/weftworks/loom/pkg/chat"
)

// Model produces the next assistant message for a conversation.
type Model interface {
	// Send generates one assistant message from the session transcript.
	// Implementations are expected to honor ctx cancellation; the engine
	// imposes no timeout of its own.
	Send(ctx context.Context, s *chat.Session) (chat.Message, error)
}

// Func adapts a plain function to the Model interface.
type Func func(ctx context.Context, s *chat.Session) (chat.Message, error)

// Send implements Model.
func (f Func) Send(ctx context.Context, s *chat.Session) (chat.Message, error) {
	return f(ctx, s)
}

// Delta is one partial update of a streamed assistant message.
type Delta struct {
	// Content is the text fragment added by this delta.
	Content string
	// Done marks the final delta of the stream.
	Done bool
	// Err reports a mid-stream failure; when set the stream is over.
	Err error
}

// Streamer is implemented by models that can emit partial message deltas.
// The channel is closed after the final delta.
type Streamer interface {
	SendStream(ctx context.Context, s *chat.Session) (<-chan Delta, error)
}

// ToolDef describes a callable tool to a model, in the shape providers expect
// (name, description, JSON-schema-like parameter map).
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCaller is implemented by models that accept tool definitions and may
// answer with tool calls instead of (or alongside) plain text.
type ToolCaller interface {
	SendWithTools(ctx context.Context, s *chat.Session, tools []ToolDef) (chat.Message, error)
}
