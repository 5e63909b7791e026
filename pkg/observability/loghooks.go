package observability

import (
	"context"
	"log/slog"
)

// LogHooks returns hooks that forward every event to the given logger at
// debug level, warnings at warn level.
func LogHooks(logger *slog.Logger) *Hooks {
	return &Hooks{
		OnTemplateStart: func(ctx context.Context, ev *TemplateEvent) {
			logger.DebugContext(ctx, "template start", "template", ev.Template)
		},
		OnTemplateEnd: func(ctx context.Context, ev *TemplateEvent) {
			if ev.Err != nil {
				logger.DebugContext(ctx, "template end", "template", ev.Template, "duration", ev.Duration, "error", ev.Err)
				return
			}
			logger.DebugContext(ctx, "template end", "template", ev.Template, "duration", ev.Duration)
		},
		OnRetry: func(ctx context.Context, ev *RetryEvent) {
			logger.DebugContext(ctx, "validation retry", "source", ev.Source, "attempt", ev.Attempt, "max_attempts", ev.MaxAttempts, "instruction", ev.Instruction)
		},
		OnWarning: func(ctx context.Context, ev *WarningEvent) {
			logger.WarnContext(ctx, ev.Message, "code", ev.Code)
		},
		OnToolCall: func(ctx context.Context, ev *ToolEvent) {
			logger.DebugContext(ctx, "tool call", "tool", ev.Tool, "call_id", ev.CallID)
		},
		OnToolReturn: func(ctx context.Context, ev *ToolEvent) {
			logger.DebugContext(ctx, "tool return", "tool", ev.Tool, "call_id", ev.CallID, "is_error", ev.IsError)
		},
	}
}
