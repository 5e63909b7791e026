package validator

import (
	"context"
	"strings"

	"github.com/weftworks/loom/pkg/chat"
)

// All combines validators with AND semantics: content passes only if every
// child passes. On failure the instruction concatenates every failing child's
// instruction, so the producer can fix all problems in one retry.
func All(validators ...Validator) Validator {
	return Func(func(ctx context.Context, content string, s *chat.Session) (Result, error) {
		var failures []string
		for _, v := range validators {
			res, err := v.Validate(ctx, content, s)
			if err != nil {
				return Result{}, err
			}
			if !res.Valid {
				failures = append(failures, res.Instruction)
			}
		}
		if len(failures) > 0 {
			return Fail(strings.Join(failures, "; ")), nil
		}
		return OK(), nil
	})
}

// Any combines validators with OR semantics: content passes as soon as one
// child passes (children after the first pass are not consulted). On failure
// the instruction lists every child's instruction behind a preamble.
func Any(validators ...Validator) Validator {
	return Func(func(ctx context.Context, content string, s *chat.Session) (Result, error) {
		var failures []string
		for _, v := range validators {
			res, err := v.Validate(ctx, content, s)
			if err != nil {
				return Result{}, err
			}
			if res.Valid {
				return OK(), nil
			}
			failures = append(failures, res.Instruction)
		}
		return Fail("content must satisfy at least one of: " + strings.Join(failures, "; ")), nil
	})
}
