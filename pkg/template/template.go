// Package template implements the conversation step tree. Leaf templates
// append exactly one message pulled from a content source; composite
// templates own child templates and fold the session through them. Executing
// any template maps an immutable session to a new immutable session, so a
// caller can keep every intermediate state and no step can corrupt another's
// view.
package template

import (
	"context"
	"time"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/source"
)

// Template is a single conversation step: it takes a session and returns the
// session with the step's effect applied. Implementations never mutate the
// input session.
type Template interface {
	Execute(ctx context.Context, s *chat.Session) (*chat.Session, error)
}

// Func adapts a function to the Template interface.
type Func func(ctx context.Context, s *chat.Session) (*chat.Session, error)

// Execute implements Template.
func (f Func) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return f(ctx, s)
}

// run wraps a template body with start/end lifecycle events.
func run(ctx context.Context, kind string, s *chat.Session, body func(context.Context, *chat.Session) (*chat.Session, error)) (*chat.Session, error) {
	hooks := observability.FromContext(ctx)
	hooks.EmitTemplateStart(ctx, kind)
	started := time.Now()
	out, err := body(ctx, s)
	hooks.EmitTemplateEnd(ctx, kind, time.Since(started), err)
	return out, err
}

// Defaults supplies execution-scoped content sources for message templates
// declared without one. A construction-time source always takes priority.
// This lets one template tree run against different front-ends: a CLI source
// for the user slot in interactive runs, a scripted list in tests.
type Defaults struct {
	User      source.Source[string]
	Assistant source.Source[source.Generated]
}

type defaultsKey struct{}

// WithDefaults returns a context carrying execution-scoped source defaults.
func WithDefaults(ctx context.Context, d Defaults) context.Context {
	return context.WithValue(ctx, defaultsKey{}, d)
}

func defaultsFrom(ctx context.Context) Defaults {
	if d, ok := ctx.Value(defaultsKey{}).(Defaults); ok {
		return d
	}
	return Defaults{}
}
