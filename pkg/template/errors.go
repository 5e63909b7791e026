package template

import "fmt"

// ConfigurationError reports a template missing a required collaborator
// (content source, tool registry target, predicate). It is fatal and never
// retried.
type ConfigurationError struct {
	Template string
	Detail   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s template misconfigured: %s", e.Template, e.Detail)
}

// StructuralError reports an ill-formed template tree (e.g. a loop without a
// body) detected when the tree is built. It is fatal.
type StructuralError struct {
	Template string
	Detail   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid %s template: %s", e.Template, e.Detail)
}

// ToolExecutionError reports a failed tool call. It never escapes Execute:
// the assistant template converts it into an error-bearing tool result
// message and continues.
type ToolExecutionError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q (call %s) failed: %v", e.Tool, e.CallID, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
