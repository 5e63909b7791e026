package observability

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey int

const (
	hooksKey ctxKey = iota
	loggerKey
)

// NewContext returns a context carrying the given hooks. Templates and
// sources read hooks from the execution context, so one registration at the
// top of an Execute call covers the whole tree.
func NewContext(ctx context.Context, h *Hooks) context.Context {
	return context.WithValue(ctx, hooksKey, h)
}

// FromContext returns the hooks carried by ctx. The result is never nil;
// with no registration every Emit* call is a no-op.
func FromContext(ctx context.Context) *Hooks {
	if h, ok := ctx.Value(hooksKey).(*Hooks); ok && h != nil {
		return h
	}
	return &Hooks{}
}

// WithLogger returns a context carrying a structured logger for the
// execution.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger returns the logger carried by ctx, or a discard logger.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
