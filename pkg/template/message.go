package template

import (
	"context"
	"fmt"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/source"
	"github.com/weftworks/loom/pkg/tool"
	"github.com/weftworks/loom/pkg/validator"
)

// System appends one system message.
type System struct {
	src source.Source[string]
}

// NewSystem creates a system message template. The source is required:
// system content is authored, never defaulted at execution time.
func NewSystem(src source.Source[string]) *System {
	return &System{src: src}
}

// Execute implements Template.
func (t *System) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "system", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		if t.src == nil {
			return nil, &ConfigurationError{Template: "system", Detail: "no content source"}
		}
		out, err := t.src.Content(ctx, s)
		if err != nil {
			return nil, err
		}
		return appendWithVars(s, chat.NewSystem(out.Content, chat.WithMetadata(out.Metadata)), out.Vars), nil
	})
}

// User appends one user message. On validation failure it re-prompts: a
// system message describing the failure is appended, the source is invoked
// again, and a fresh user message is appended — layered on top of whatever
// internal retrying the source already does.
type User struct {
	src         source.Source[string]
	reprompt    validator.Validator
	maxAttempts int
	raiseError  bool
}

// UserOption configures a user template.
type UserOption func(*User)

// WithReprompt attaches the validator driving the re-prompt loop.
func WithReprompt(v validator.Validator) UserOption {
	return func(t *User) {
		t.reprompt = v
	}
}

// WithRepromptAttempts bounds the re-prompt loop (default 3).
func WithRepromptAttempts(n int) UserOption {
	return func(t *User) {
		if n < 1 {
			n = 1
		}
		t.maxAttempts = n
	}
}

// WithRepromptRaise controls the outcome of an exhausted re-prompt loop:
// true (default) fails the execution, false keeps the last answer with a
// warning.
func WithRepromptRaise(raise bool) UserOption {
	return func(t *User) {
		t.raiseError = raise
	}
}

// NewUser creates a user message template. A nil source defers to the
// execution-scoped default (see WithDefaults).
func NewUser(src source.Source[string], opts ...UserOption) *User {
	t := &User{
		src:         src,
		maxAttempts: source.DefaultMaxAttempts,
		raiseError:  true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute implements Template.
func (t *User) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "user", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		src := t.src
		if src == nil {
			src = defaultsFrom(ctx).User
		}
		if src == nil {
			return nil, &ConfigurationError{Template: "user", Detail: "no content source"}
		}

		out, err := src.Content(ctx, s)
		if err != nil {
			return nil, err
		}
		next := appendWithVars(s, chat.NewUser(out.Content, chat.WithMetadata(out.Metadata)), out.Vars)

		if t.reprompt == nil {
			return next, nil
		}

		hooks := observability.FromContext(ctx)
		content := out.Content
		for attempt := 1; ; attempt++ {
			res, err := t.reprompt.Validate(ctx, content, next)
			if err != nil {
				return nil, fmt.Errorf("user template: reprompt validator failed: %w", err)
			}
			if res.Valid {
				return next, nil
			}
			if attempt >= t.maxAttempts {
				if t.raiseError {
					return nil, &source.ValidationError{Source: "user", Attempts: t.maxAttempts, Instruction: res.Instruction}
				}
				hooks.EmitWarning(ctx, observability.WarnValidationExceeded,
					fmt.Sprintf("user input still invalid after %d prompt(s): %s", t.maxAttempts, res.Instruction))
				return next, nil
			}

			// Tell the user what was wrong, then ask again.
			next = next.AddMessage(chat.NewSystem("Your input was not accepted: " + res.Instruction))
			out, err = src.Content(ctx, next)
			if err != nil {
				return nil, err
			}
			content = out.Content
			next = appendWithVars(next, chat.NewUser(out.Content, chat.WithMetadata(out.Metadata)), out.Vars)
		}
	})
}

// Assistant appends one model-generated assistant message. When the message
// carries tool calls, each call is dispatched to the registry and answered
// with a tool result message; a failing call becomes an error-bearing tool
// result rather than aborting the session.
type Assistant struct {
	src   source.Source[source.Generated]
	tools *tool.Registry
}

// AssistantOption configures an assistant template.
type AssistantOption func(*Assistant)

// WithTools injects the registry used to execute the model's tool calls.
func WithTools(reg *tool.Registry) AssistantOption {
	return func(t *Assistant) {
		t.tools = reg
	}
}

// NewAssistant creates an assistant message template. A nil source defers to
// the execution-scoped default (see WithDefaults).
func NewAssistant(src source.Source[source.Generated], opts ...AssistantOption) *Assistant {
	t := &Assistant{src: src}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute implements Template.
func (t *Assistant) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "assistant", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		src := t.src
		if src == nil {
			src = defaultsFrom(ctx).Assistant
		}
		if src == nil {
			return nil, &ConfigurationError{Template: "assistant", Detail: "no content source"}
		}

		out, err := src.Content(ctx, s)
		if err != nil {
			return nil, err
		}

		msg := chat.NewAssistant(out.Content.Text,
			chat.WithMetadata(out.Metadata),
			chat.WithToolCalls(out.Content.ToolCalls...))
		next := appendWithVars(s, msg, out.Vars)

		for _, call := range out.Content.ToolCalls {
			next = next.AddMessage(t.dispatch(ctx, call))
		}
		return next, nil
	})
}

// dispatch executes one tool call. Failures are contained: the error text is
// recorded in the tool result and execution continues.
func (t *Assistant) dispatch(ctx context.Context, call chat.ToolCall) chat.Message {
	hooks := observability.FromContext(ctx)
	hooks.EmitToolCall(ctx, call.Name, call.ID, call.Args)

	if t.tools == nil {
		msg := fmt.Sprintf("no tool registry configured, cannot execute %q", call.Name)
		hooks.EmitToolReturn(ctx, call.Name, call.ID, msg, true)
		return chat.NewToolResult(call.ID, msg, true)
	}

	result, err := t.tools.Execute(ctx, call.Name, call.Args)
	if err != nil {
		terr := &ToolExecutionError{Tool: call.Name, CallID: call.ID, Err: err}
		hooks.EmitToolReturn(ctx, call.Name, call.ID, terr.Error(), true)
		observability.Logger(ctx).Warn("tool call failed", "tool", call.Name, "err", err)
		return chat.NewToolResult(call.ID, terr.Error(), true)
	}

	serialized := tool.Serialize(result)
	hooks.EmitToolReturn(ctx, call.Name, call.ID, serialized, false)
	return chat.NewToolResult(call.ID, serialized, false)
}

// ToolResult appends one tool result message from a source, answering a
// specific tool call. With no explicit call ID it answers the first call of
// the most recent assistant message.
type ToolResult struct {
	src    source.Source[string]
	callID string
}

// ToolResultOption configures a tool result template.
type ToolResultOption func(*ToolResult)

// ForCall pins the tool call this result answers.
func ForCall(callID string) ToolResultOption {
	return func(t *ToolResult) {
		t.callID = callID
	}
}

// NewToolResult creates a tool result message template.
func NewToolResult(src source.Source[string], opts ...ToolResultOption) *ToolResult {
	t := &ToolResult{src: src}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute implements Template.
func (t *ToolResult) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "tool_result", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		if t.src == nil {
			return nil, &ConfigurationError{Template: "tool_result", Detail: "no content source"}
		}
		out, err := t.src.Content(ctx, s)
		if err != nil {
			return nil, err
		}

		callID := t.callID
		if callID == "" {
			callID = lastPendingCallID(s)
		}
		return appendWithVars(s, chat.NewToolResult(callID, out.Content, false, chat.WithMetadata(out.Metadata)), out.Vars), nil
	})
}

func lastPendingCallID(s *chat.Session) string {
	msgs := s.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Kind == chat.KindAssistant && len(msgs[i].ToolCalls) > 0 {
			return msgs[i].ToolCalls[0].ID
		}
	}
	return ""
}

// appendWithVars appends the message and merges the source's side-channel
// vars into the session.
func appendWithVars(s *chat.Session, msg chat.Message, vars map[string]any) *chat.Session {
	next := s.AddMessage(msg)
	if len(vars) > 0 {
		next = next.WithVars(vars)
	}
	return next
}
