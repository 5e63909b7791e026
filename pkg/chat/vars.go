package chat

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\$\{([^}]*)\}`)

// Interpolate replaces every ${dotted.path} placeholder in text with the value
// found at that path in vars. Unresolved paths render as empty strings; a
// missing variable is never an error.
func Interpolate(text string, vars map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		val, ok := lookupPath(vars, path)
		if !ok || val == nil {
			return ""
		}
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", val)
	})
}

// lookupPath resolves a dotted path by recursive key lookup through nested
// map[string]any values.
func lookupPath(vars map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	keys := strings.Split(path, ".")
	var current any = vars
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
