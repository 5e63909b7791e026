// Package validator judges content produced by sources. A validator is a
// cheap, deterministic predicate; the expensive, non-deterministic production
// of content stays in pkg/source, which retries production under a bound
// whenever a validator rejects.
package validator

import (
	"context"

	"github.com/weftworks/loom/pkg/chat"
)

// Result is the outcome of one validation pass.
type Result struct {
	Valid bool
	// Instruction tells the producer how to fix the content. Only set on
	// invalid results; it is fed back to generative sources between retries.
	Instruction string
}

// OK returns a passing result.
func OK() Result {
	return Result{Valid: true}
}

// Fail returns a failing result with a corrective instruction.
func Fail(instruction string) Result {
	return Result{Valid: false, Instruction: instruction}
}

// Validator judges a piece of content in the context of a session.
// The returned error reports a failure of the validator itself (e.g. a judge
// model call failing), not invalid content.
type Validator interface {
	Validate(ctx context.Context, content string, s *chat.Session) (Result, error)
}

// Func adapts a plain function to the Validator interface.
type Func func(ctx context.Context, content string, s *chat.Session) (Result, error)

// Validate implements Validator.
func (f Func) Validate(ctx context.Context, content string, s *chat.Session) (Result, error) {
	return f(ctx, content, s)
}
