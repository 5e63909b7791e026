package loom

import (
	"context"
	"io"
	"log/slog"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/source"
	"github.com/weftworks/loom/pkg/template"
)

// Core types re-exported for consumers that only import the root package.
type (
	Session  = chat.Session
	Message  = chat.Message
	Template = template.Template
)

// Runner is the high-level entry point for the library. It binds a template
// tree to an execution environment: logger, lifecycle hooks, and the default
// content sources that message templates fall back to.
type Runner struct {
	hooks    []*observability.Hooks
	logger   *slog.Logger
	defaults template.Defaults
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger sets a structured logger for the run. Without it, logging is
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks registers lifecycle hooks. May be given more than once; all
// registered hook sets receive every event.
func WithHooks(hooks *observability.Hooks) Option {
	return func(r *Runner) {
		r.hooks = append(r.hooks, hooks)
	}
}

// WithUserSource sets the source used by user templates built without one.
func WithUserSource(src source.Source[string]) Option {
	return func(r *Runner) {
		r.defaults.User = src
	}
}

// WithAssistantSource sets the source used by assistant templates built
// without one.
func WithAssistantSource(src source.Source[source.Generated]) Option {
	return func(r *Runner) {
		r.defaults.Assistant = src
	}
}

// WithModel is shorthand for WithAssistantSource(source.NewModel(mdl)).
func WithModel(mdl model.Model) Option {
	return func(r *Runner) {
		r.defaults.Assistant = source.NewModel(mdl)
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run executes the template against the session and returns the resulting
// session. The input session is never modified; a nil session starts empty.
func (r *Runner) Run(ctx context.Context, tmpl template.Template, sess *chat.Session) (*chat.Session, error) {
	if sess == nil {
		sess = chat.NewSession()
	}
	ctx = observability.WithLogger(ctx, r.logger)
	ctx = observability.NewContext(ctx, observability.Combine(r.hooks...))
	ctx = template.WithDefaults(ctx, r.defaults)
	return tmpl.Execute(ctx, sess)
}

// Run is a convenience for one-shot execution without keeping a Runner.
func Run(ctx context.Context, tmpl template.Template, sess *chat.Session, opts ...Option) (*chat.Session, error) {
	return NewRunner(opts...).Run(ctx, tmpl, sess)
}

// System builds a system message template from fixed text. The text may carry
// ${var} placeholders resolved against the session at execution time.
func System(text string) template.Template {
	return template.NewSystem(source.NewStatic(text))
}

// User builds a user message template from fixed text.
func User(text string) template.Template {
	return template.NewUser(source.NewStatic(text))
}

// UserPrompt builds a user message template that reads interactively.
func UserPrompt(prompt string, opts ...source.CLIOption) template.Template {
	return template.NewUser(source.NewCLI(prompt, opts...))
}

// Ask builds a user message template that defers to the runner's default
// user source.
func Ask() template.Template {
	return template.NewUser(nil)
}

// Assistant builds an assistant message template backed by the given model.
func Assistant(mdl model.Model, opts ...template.AssistantOption) template.Template {
	return template.NewAssistant(source.NewModel(mdl), opts...)
}

// Reply builds an assistant message template that defers to the runner's
// default assistant source.
func Reply(opts ...template.AssistantOption) template.Template {
	return template.NewAssistant(nil, opts...)
}

// ToolResultMsg builds a tool result message template from fixed text.
func ToolResultMsg(text string, opts ...template.ToolResultOption) template.Template {
	return template.NewToolResult(source.NewStatic(text), opts...)
}

// Sequence composes templates to run in order.
func Sequence(children ...template.Template) template.Template {
	return template.NewSequence(children...)
}

// If builds a conditional template.
func If(pred func(*chat.Session) bool, then template.Template, opts ...template.ConditionalOption) (template.Template, error) {
	c, err := template.NewConditional(pred, then, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Transform builds a template applying a pure session function.
func Transform(fn func(ctx context.Context, s *chat.Session) (*chat.Session, error)) (template.Template, error) {
	t, err := template.NewTransform(fn)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Loop starts a loop builder.
func Loop() *template.LoopBuilder {
	return template.NewLoop()
}

// Subroutine starts a subroutine builder.
func Subroutine() *template.SubroutineBuilder {
	return template.NewSubroutine()
}

// NewSession creates an empty session, optionally seeded with variables.
func NewSession(vars map[string]any) *chat.Session {
	if vars == nil {
		return chat.NewSession()
	}
	return chat.NewSession(chat.WithSessionVars(vars))
}
