package template

import (
	"context"

	"github.com/weftworks/loom/pkg/chat"
)

// InitFunc derives the child session a subroutine runs against.
type InitFunc func(parent *chat.Session) *chat.Session

// SquashFunc reconciles the finished child session back into the parent.
type SquashFunc func(parent, child *chat.Session) *chat.Session

// Subroutine runs its children against a derived child session and squashes
// the result back into the parent. Variables flow one direction at a time:
// down at init, up at squash; parent and child never share mutable state.
type Subroutine struct {
	children       []Template
	init           InitFunc
	squash         SquashFunc
	isolated       bool
	retainMessages bool
}

// SubroutineBuilder assembles a Subroutine.
type SubroutineBuilder struct {
	sub Subroutine
}

// NewSubroutine starts a subroutine builder.
func NewSubroutine() *SubroutineBuilder {
	return &SubroutineBuilder{sub: Subroutine{retainMessages: true}}
}

// Add appends child templates (at least one is required).
func (b *SubroutineBuilder) Add(children ...Template) *SubroutineBuilder {
	b.sub.children = append(b.sub.children, children...)
	return b
}

// Isolated makes the child start from a brand-new empty session and keeps
// its variables out of the parent at squash time.
func (b *SubroutineBuilder) Isolated() *SubroutineBuilder {
	b.sub.isolated = true
	return b
}

// RetainMessages controls whether the child's new messages are merged back
// into the parent (default true). Disabling it keeps only variable effects.
func (b *SubroutineBuilder) RetainMessages(retain bool) *SubroutineBuilder {
	b.sub.retainMessages = retain
	return b
}

// Init overrides how the child session is derived from the parent.
func (b *SubroutineBuilder) Init(fn InitFunc) *SubroutineBuilder {
	b.sub.init = fn
	return b
}

// Squash overrides how the child session is merged back into the parent.
func (b *SubroutineBuilder) Squash(fn SquashFunc) *SubroutineBuilder {
	b.sub.squash = fn
	return b
}

// Build validates and returns the immutable subroutine.
func (b *SubroutineBuilder) Build() (*Subroutine, error) {
	if len(b.sub.children) == 0 {
		return nil, &StructuralError{Template: "subroutine", Detail: "at least one child template is required"}
	}
	sub := b.sub
	sub.children = append([]Template(nil), b.sub.children...)
	return &sub, nil
}

// Execute implements Template.
func (t *Subroutine) Execute(ctx context.Context, parent *chat.Session) (*chat.Session, error) {
	return run(ctx, "subroutine", parent, func(ctx context.Context, parent *chat.Session) (*chat.Session, error) {
		child := t.deriveChild(parent)

		for _, tmpl := range t.children {
			next, err := tmpl.Execute(ctx, child)
			if err != nil {
				return nil, err
			}
			child = next
		}

		if t.squash != nil {
			return t.squash(parent, child), nil
		}
		return t.defaultSquash(parent, child), nil
	})
}

func (t *Subroutine) deriveChild(parent *chat.Session) *chat.Session {
	if t.init != nil {
		return t.init(parent)
	}
	if t.isolated {
		return chat.NewSession()
	}
	return chat.NewSession(
		chat.WithMessages(parent.Messages()...),
		chat.WithSessionVars(parent.Vars()),
	)
}

// defaultSquash appends the child's new messages to the parent, using message
// identity (not value equality) to decide what is new: a parent message the
// child still carries is never duplicated, while two structurally identical
// messages produced inside the child both count as new. Unless isolated, the
// child's vars are then shallow-merged over the parent's.
func (t *Subroutine) defaultSquash(parent, child *chat.Session) *chat.Session {
	result := parent

	if t.retainMessages {
		seen := make(map[string]struct{}, parent.Len())
		for _, msg := range parent.Messages() {
			seen[msg.ID] = struct{}{}
		}
		for _, msg := range child.Messages() {
			if _, ok := seen[msg.ID]; !ok {
				result = result.AddMessage(msg)
			}
		}
	}

	if !t.isolated {
		result = result.WithVars(child.Vars())
	}
	return result
}
