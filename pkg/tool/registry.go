// Package tool manages the side-effect handlers available to assistant
// templates. The engine never performs side-effects itself; it dispatches
// tool calls produced by the model to handlers registered here.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Func is the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
type Func func(ctx context.Context, args map[string]any) (any, error)

// ErrNotFound is returned when a tool call names an unregistered tool.
var ErrNotFound = fmt.Errorf("tool not found")

// Registry manages the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Func
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Func),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

// Names returns the registered tool names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Execute looks up a tool by name and executes it.
// Returns ErrNotFound (wrapped) if the tool is not registered.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return fn(ctx, args)
}

// Serialize renders a tool result as the string stored in a tool result
// message. Strings pass through; everything else is JSON-encoded, falling
// back to fmt formatting for unencodable values.
func Serialize(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
