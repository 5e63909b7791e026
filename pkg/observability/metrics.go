package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes engine activity as Prometheus collectors.
// Wire it in by combining Metrics.Hooks() with any other hooks the host uses.
type Metrics struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	warnings   *prometheus.CounterVec
	toolCalls  *prometheus.CounterVec
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_template_executions_total",
			Help: "Completed template executions, by template kind and outcome.",
		}, []string{"template", "error"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loom_template_duration_seconds",
			Help:    "Duration of template executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"template"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_validation_retries_total",
			Help: "Content validation retries, by source kind.",
		}, []string{"source"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_warnings_total",
			Help: "Soft failures surfaced as warnings, by code.",
		}, []string{"code"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_tool_calls_total",
			Help: "Tool executions dispatched by assistant templates.",
		}, []string{"tool", "error"}),
	}
	reg.MustRegister(m.executions, m.duration, m.retries, m.warnings, m.toolCalls)
	return m
}

// Hooks returns hooks that feed the collectors.
func (m *Metrics) Hooks() *Hooks {
	return &Hooks{
		OnTemplateEnd: func(_ context.Context, e *TemplateEvent) {
			m.executions.WithLabelValues(e.Template, strconv.FormatBool(e.Err != nil)).Inc()
			m.duration.WithLabelValues(e.Template).Observe(e.Duration.Seconds())
		},
		OnRetry: func(_ context.Context, e *RetryEvent) {
			m.retries.WithLabelValues(e.Source).Inc()
		},
		OnWarning: func(_ context.Context, e *WarningEvent) {
			m.warnings.WithLabelValues(e.Code).Inc()
		},
		OnToolReturn: func(_ context.Context, e *ToolEvent) {
			m.toolCalls.WithLabelValues(e.Tool, strconv.FormatBool(e.IsError)).Inc()
		},
	}
}

// Combine merges several hooks into one; every registered callback of every
// input is invoked, in argument order.
func Combine(hooks ...*Hooks) *Hooks {
	out := &Hooks{}
	out.OnTemplateStart = func(ctx context.Context, e *TemplateEvent) {
		for _, h := range hooks {
			if h != nil && h.OnTemplateStart != nil {
				h.OnTemplateStart(ctx, e)
			}
		}
	}
	out.OnTemplateEnd = func(ctx context.Context, e *TemplateEvent) {
		for _, h := range hooks {
			if h != nil && h.OnTemplateEnd != nil {
				h.OnTemplateEnd(ctx, e)
			}
		}
	}
	out.OnRetry = func(ctx context.Context, e *RetryEvent) {
		for _, h := range hooks {
			if h != nil && h.OnRetry != nil {
				h.OnRetry(ctx, e)
			}
		}
	}
	out.OnWarning = func(ctx context.Context, e *WarningEvent) {
		for _, h := range hooks {
			if h != nil && h.OnWarning != nil {
				h.OnWarning(ctx, e)
			}
		}
	}
	out.OnToolCall = func(ctx context.Context, e *ToolEvent) {
		for _, h := range hooks {
			if h != nil && h.OnToolCall != nil {
				h.OnToolCall(ctx, e)
			}
		}
	}
	out.OnToolReturn = func(ctx context.Context, e *ToolEvent) {
		for _, h := range hooks {
			if h != nil && h.OnToolReturn != nil {
				h.OnToolReturn(ctx, e)
			}
		}
	}
	return out
}
