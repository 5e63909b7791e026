package template

import (
	"context"

	"github.com/weftworks/loom/pkg/chat"
)

// Sequence folds the session through its children in insertion order.
// An empty sequence is the identity template.
type Sequence struct {
	children []Template
}

// NewSequence creates a sequence over the given children.
func NewSequence(children ...Template) *Sequence {
	return &Sequence{children: append([]Template(nil), children...)}
}

// Then returns a new sequence with more children appended. The receiver is
// unchanged, matching the immutability of the rest of the tree.
func (t *Sequence) Then(children ...Template) *Sequence {
	combined := make([]Template, 0, len(t.children)+len(children))
	combined = append(combined, t.children...)
	combined = append(combined, children...)
	return &Sequence{children: combined}
}

// Execute implements Template.
func (t *Sequence) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "sequence", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		current := s
		for _, child := range t.children {
			next, err := child.Execute(ctx, current)
			if err != nil {
				return nil, err
			}
			current = next
		}
		return current, nil
	})
}

// Conditional evaluates its predicate against the session as it stands at
// execute time and runs the matching branch. A false predicate with no else
// branch passes the session through unchanged.
type Conditional struct {
	predicate func(*chat.Session) bool
	then      Template
	otherwise Template
}

// ConditionalOption configures a conditional template.
type ConditionalOption func(*Conditional)

// WithElse sets the branch taken when the predicate is false.
func WithElse(t Template) ConditionalOption {
	return func(c *Conditional) {
		c.otherwise = t
	}
}

// NewConditional creates a conditional template. Predicate and then-branch
// are required.
func NewConditional(predicate func(*chat.Session) bool, then Template, opts ...ConditionalOption) (*Conditional, error) {
	if predicate == nil {
		return nil, &StructuralError{Template: "conditional", Detail: "predicate is required"}
	}
	if then == nil {
		return nil, &StructuralError{Template: "conditional", Detail: "then branch is required"}
	}
	c := &Conditional{predicate: predicate, then: then}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Execute implements Template.
func (t *Conditional) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "conditional", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		if t.predicate(s) {
			return t.then.Execute(ctx, s)
		}
		if t.otherwise != nil {
			return t.otherwise.Execute(ctx, s)
		}
		return s, nil
	})
}

// Transform applies a pure session-to-session function: typically editing
// vars between steps without emitting messages.
type Transform struct {
	fn func(ctx context.Context, s *chat.Session) (*chat.Session, error)
}

// NewTransform creates a transform template.
func NewTransform(fn func(ctx context.Context, s *chat.Session) (*chat.Session, error)) (*Transform, error) {
	if fn == nil {
		return nil, &StructuralError{Template: "transform", Detail: "function is required"}
	}
	return &Transform{fn: fn}, nil
}

// Execute implements Template.
func (t *Transform) Execute(ctx context.Context, s *chat.Session) (*chat.Session, error) {
	return run(ctx, "transform", s, func(ctx context.Context, s *chat.Session) (*chat.Session, error) {
		next, err := t.fn(ctx, s)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = s
		}
		return next, nil
	})
}
