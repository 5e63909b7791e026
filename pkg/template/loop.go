package template

import (
	"context"
	"fmt"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/observability"
)

// DefaultMaxIterations bounds loops whose exit predicate never fires.
const DefaultMaxIterations = 100

// Loop repeats its body until the exit predicate fires, checking the
// predicate before each iteration (the body may run zero times). Without a
// predicate it degrades to a single iteration with a warning, so a
// misconfigured loop never spins. Hitting the iteration bound is also a
// warning, not an error: everything produced so far is kept.
type Loop struct {
	body          Template
	exitIf        func(*chat.Session) bool
	maxIterations int
}

// LoopBuilder assembles a Loop. Build reports missing required fields, so
// an ill-formed loop surfaces at construction instead of mid-conversation.
type LoopBuilder struct {
	loop Loop
}

// NewLoop starts a loop builder.
func NewLoop() *LoopBuilder {
	return &LoopBuilder{loop: Loop{maxIterations: DefaultMaxIterations}}
}

// Body sets the owned body template (required).
func (b *LoopBuilder) Body(t Template) *LoopBuilder {
	b.loop.body = t
	return b
}

// ExitIf sets the exit predicate, evaluated before each iteration.
func (b *LoopBuilder) ExitIf(pred func(*chat.Session) bool) *LoopBuilder {
	b.loop.exitIf = pred
	return b
}

// MaxIterations overrides the iteration bound (default 100).
func (b *LoopBuilder) MaxIterations(n int) *LoopBuilder {
	b.loop.maxIterations = n
	return b
}

// Build validates and returns the immutable loop.
func (b *LoopBuilder) Build() (*Loop, error) {
	if b.loop.body == nil {
		return nil, &StructuralError{Template: "loop", Detail: "body is required"}
	}
	if b.loop.maxIterations < 1 {
		return nil, &StructuralError{Template: "loop", Detail: fmt.Sprintf("max iterations must be positive, got %d", b.loop.maxIterations)}
	}
	loop := b.loop
	return &loop, nil
}

// Execute implements Template.
func (t *Loop) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "loop", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		hooks := observability.FromContext(ctx)

		if t.exitIf == nil {
			hooks.EmitWarning(ctx, observability.WarnNoExitCondition,
				"loop has no exit condition, running body once")
			return t.body.Execute(ctx, s)
		}

		current := s
		for i := 0; i < t.maxIterations; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if t.exitIf(current) {
				return current, nil
			}
			next, err := t.body.Execute(ctx, current)
			if err != nil {
				return nil, err
			}
			current = next
		}

		hooks.EmitWarning(ctx, observability.WarnMaxIterations,
			fmt.Sprintf("loop reached %d iterations before the exit condition fired", t.maxIterations))
		observability.Logger(ctx).Warn("loop hit iteration bound", "max_iterations", t.maxIterations)
		return current, nil
	})
}
