// Package observability defines the lifecycle events the engine emits while
// executing a template tree. Hosts register callbacks to feed logs, metrics,
// or traces; tests assert on recorded events instead of captured output.
package observability

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTemplateStart EventType = "template_start"
	EventTemplateEnd   EventType = "template_end"
	EventRetry         EventType = "retry"
	EventWarning       EventType = "warning"
	EventToolCall      EventType = "tool_call"
	EventToolReturn    EventType = "tool_return"
)

// Warning codes for soft failures. Execution continues after any of these.
const (
	WarnMaxIterations      = "loop_max_iterations"
	WarnNoExitCondition    = "loop_no_exit_condition"
	WarnValidationExceeded = "validation_attempts_exceeded"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TemplateEvent marks the start or end of one template execution.
type TemplateEvent struct {
	EventBase
	// Template is the template kind, e.g. "sequence", "user", "loop".
	Template string `json:"template"`
	// Duration is set on end events only.
	Duration time.Duration `json:"duration,omitempty"`
	// Err is set on end events when the execution failed.
	Err error `json:"-"`
}

// RetryEvent reports one failed validation attempt of a content source.
type RetryEvent struct {
	EventBase
	Source      string `json:"source"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	Instruction string `json:"instruction"`
}

// WarningEvent reports a soft failure that execution survives.
type WarningEvent struct {
	EventBase
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolEvent reports a tool dispatch or its result.
type ToolEvent struct {
	EventBase
	Tool    string `json:"tool"`
	CallID  string `json:"call_id"`
	Input   any    `json:"input,omitempty"`
	Output  any    `json:"output,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
}

// Hooks defines callbacks for engine observability. Any field may be nil.
type Hooks struct {
	OnTemplateStart func(context.Context, *TemplateEvent)
	OnTemplateEnd   func(context.Context, *TemplateEvent)
	OnRetry         func(context.Context, *RetryEvent)
	OnWarning       func(context.Context, *WarningEvent)
	OnToolCall      func(context.Context, *ToolEvent)
	OnToolReturn    func(context.Context, *ToolEvent)
}

func base(t EventType) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t}
}

// EmitTemplateStart invokes OnTemplateStart if registered.
func (h *Hooks) EmitTemplateStart(ctx context.Context, template string) {
	if h == nil || h.OnTemplateStart == nil {
		return
	}
	h.OnTemplateStart(ctx, &TemplateEvent{EventBase: base(EventTemplateStart), Template: template})
}

// EmitTemplateEnd invokes OnTemplateEnd if registered.
func (h *Hooks) EmitTemplateEnd(ctx context.Context, template string, d time.Duration, err error) {
	if h == nil || h.OnTemplateEnd == nil {
		return
	}
	h.OnTemplateEnd(ctx, &TemplateEvent{EventBase: base(EventTemplateEnd), Template: template, Duration: d, Err: err})
}

// EmitRetry invokes OnRetry if registered.
func (h *Hooks) EmitRetry(ctx context.Context, source string, attempt, max int, instruction string) {
	if h == nil || h.OnRetry == nil {
		return
	}
	h.OnRetry(ctx, &RetryEvent{EventBase: base(EventRetry), Source: source, Attempt: attempt, MaxAttempts: max, Instruction: instruction})
}

// EmitWarning invokes OnWarning if registered.
func (h *Hooks) EmitWarning(ctx context.Context, code, message string) {
	if h == nil || h.OnWarning == nil {
		return
	}
	h.OnWarning(ctx, &WarningEvent{EventBase: base(EventWarning), Code: code, Message: message})
}

// EmitToolCall invokes OnToolCall if registered.
func (h *Hooks) EmitToolCall(ctx context.Context, toolName, callID string, input any) {
	if h == nil || h.OnToolCall == nil {
		return
	}
	h.OnToolCall(ctx, &ToolEvent{EventBase: base(EventToolCall), Tool: toolName, CallID: callID, Input: input})
}

// EmitToolReturn invokes OnToolReturn if registered.
func (h *Hooks) EmitToolReturn(ctx context.Context, toolName, callID string, output any, isError bool) {
	if h == nil || h.OnToolReturn == nil {
		return
	}
	h.OnToolReturn(ctx, &ToolEvent{EventBase: base(EventToolReturn), Tool: toolName, CallID: callID, Output: output, IsError: isError})
}
