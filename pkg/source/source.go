// Package source supplies message content to templates. Every source wraps
// the same bounded-retry validation protocol: produce content, judge it with
// an optional validator, and retry production until it passes or the attempt
// budget runs out. Production is the expensive, possibly non-deterministic
// half (a model call, a terminal read); judging stays cheap and composable in
// pkg/validator.
package source

import (
	"context"
	"fmt"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/validator"
)

// DefaultMaxAttempts bounds content production when no explicit budget is
// configured.
const DefaultMaxAttempts = 3

// Output carries produced content plus side-channel data for the consuming
// template.
type Output[T any] struct {
	Content T
	// Vars are values the source wants merged into the session variables
	// (e.g. structured output under its key).
	Vars map[string]any
	// Metadata is attached to the message the template appends.
	Metadata map[string]any
}

// Source supplies content of type T given the current session.
type Source[T any] interface {
	Content(ctx context.Context, s *chat.Session) (Output[T], error)
}

// Generated is the output of a generative source: the assistant text plus
// any tool calls or structured data the model produced alongside it.
type Generated struct {
	Text       string
	ToolCalls  []chat.ToolCall
	Structured map[string]any
}

// ValidationError reports content that failed validation after exhausting
// its attempt budget with RaiseError enabled.
type ValidationError struct {
	Source      string
	Attempts    int
	Instruction string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("source %s: content invalid after %d attempt(s): %s", e.Source, e.Attempts, e.Instruction)
}

// config holds the retry-protocol settings shared by all sources.
type config struct {
	validator   validator.Validator
	maxAttempts int
	raiseError  bool
}

func defaultConfig() config {
	return config{
		maxAttempts: DefaultMaxAttempts,
		raiseError:  true,
	}
}

// Option configures a source's retry protocol.
type Option func(*config)

// WithValidator attaches a validator; without one every production attempt
// is accepted as-is.
func WithValidator(v validator.Validator) Option {
	return func(c *config) {
		c.validator = v
	}
}

// WithMaxAttempts bounds production attempts (default 3). Values below 1 are
// clamped to 1.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.maxAttempts = n
	}
}

// WithRaiseError controls what happens when attempts run out: true (the
// default) raises a *ValidationError, false returns the last invalid content
// and emits a warning.
func WithRaiseError(raise bool) Option {
	return func(c *config) {
		c.raiseError = raise
	}
}

// produceFunc runs one production attempt. It returns the output plus the
// textual form submitted to the validator.
type produceFunc[T any] func(ctx context.Context, s *chat.Session, attempt int) (Output[T], string, error)

// resolve runs the bounded-retry validation protocol. Each attempt invokes
// produce afresh, so generative sources regenerate rather than re-judging the
// same output. Production errors abort immediately; only validator rejection
// consumes the retry budget.
func resolve[T any](ctx context.Context, s *chat.Session, name string, cfg config, produce produceFunc[T]) (Output[T], error) {
	hooks := observability.FromContext(ctx)
	logger := observability.Logger(ctx)

	var out Output[T]
	var lastInstruction string

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		var text string
		var err error
		out, text, err = produce(ctx, s, attempt)
		if err != nil {
			return out, err
		}

		if cfg.validator == nil {
			return out, nil
		}

		res, err := cfg.validator.Validate(ctx, text, s)
		if err != nil {
			return out, fmt.Errorf("source %s: validator failed: %w", name, err)
		}
		if res.Valid {
			return out, nil
		}

		lastInstruction = res.Instruction
		if attempt < cfg.maxAttempts {
			hooks.EmitRetry(ctx, name, attempt, cfg.maxAttempts, res.Instruction)
			logger.Debug("content rejected, retrying",
				"source", name, "attempt", attempt, "instruction", res.Instruction)
		}
	}

	if cfg.raiseError {
		return out, &ValidationError{Source: name, Attempts: cfg.maxAttempts, Instruction: lastInstruction}
	}

	hooks.EmitWarning(ctx, observability.WarnValidationExceeded,
		fmt.Sprintf("source %s: returning invalid content after %d attempt(s): %s", name, cfg.maxAttempts, lastInstruction))
	logger.Warn("validation attempts exhausted, keeping last content",
		"source", name, "attempts", cfg.maxAttempts, "instruction", lastInstruction)
	return out, nil
}

// AsGenerated lifts a plain text source into a Generated source so that
// assistant templates can consume static or callback content.
func AsGenerated(src Source[string]) Source[Generated] {
	return generatedAdapter{src: src}
}

type generatedAdapter struct {
	src Source[string]
}

func (a generatedAdapter) Content(ctx context.Context, s *chat.Session) (Output[Generated], error) {
	out, err := a.src.Content(ctx, s)
	if err != nil {
		return Output[Generated]{}, err
	}
	return Output[Generated]{
		Content:  Generated{Text: out.Content},
		Vars:     out.Vars,
		Metadata: out.Metadata,
	}, nil
}
