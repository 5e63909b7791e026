package observability

import (
	"context"
	"sync"
)

// Recorder collects emitted events for inspection. It is safe for concurrent
// use and intended primarily for tests and the CLI's verbose mode.
type Recorder struct {
	mu          sync.Mutex
	templates   []*TemplateEvent
	retries     []*RetryEvent
	warnings    []*WarningEvent
	toolEvents  []*ToolEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hooks returns a Hooks value that appends every event to the recorder.
func (r *Recorder) Hooks() *Hooks {
	return &Hooks{
		OnTemplateStart: func(_ context.Context, e *TemplateEvent) { r.addTemplate(e) },
		OnTemplateEnd:   func(_ context.Context, e *TemplateEvent) { r.addTemplate(e) },
		OnRetry: func(_ context.Context, e *RetryEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.retries = append(r.retries, e)
		},
		OnWarning: func(_ context.Context, e *WarningEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.warnings = append(r.warnings, e)
		},
		OnToolCall: func(_ context.Context, e *ToolEvent) { r.addTool(e) },
		OnToolReturn: func(_ context.Context, e *ToolEvent) { r.addTool(e) },
	}
}

func (r *Recorder) addTemplate(e *TemplateEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = append(r.templates, e)
}

func (r *Recorder) addTool(e *ToolEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolEvents = append(r.toolEvents, e)
}

// Templates returns the recorded template start/end events in order.
func (r *Recorder) Templates() []*TemplateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*TemplateEvent(nil), r.templates...)
}

// Retries returns the recorded retry events in order.
func (r *Recorder) Retries() []*RetryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*RetryEvent(nil), r.retries...)
}

// Warnings returns the recorded warning events in order.
func (r *Recorder) Warnings() []*WarningEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*WarningEvent(nil), r.warnings...)
}

// WarningCodes returns just the codes of recorded warnings, in order.
func (r *Recorder) WarningCodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, len(r.warnings))
	for i, w := range r.warnings {
		codes[i] = w.Code
	}
	return codes
}

// ToolEvents returns the recorded tool call/return events in order.
func (r *Recorder) ToolEvents() []*ToolEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*ToolEvent(nil), r.toolEvents...)
}
