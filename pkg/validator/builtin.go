package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/weftworks/loom/pkg/chat"
)

// Match validates content against a regular expression.
// The pattern is compiled once at construction; an invalid pattern is a
// programming error and panics, like regexp.MustCompile.
func Match(pattern string) Validator {
	re := regexp.MustCompile(pattern)
	return Func(func(_ context.Context, content string, _ *chat.Session) (Result, error) {
		if re.MatchString(content) {
			return OK(), nil
		}
		return Fail(fmt.Sprintf("content must match the pattern %q", pattern)), nil
	})
}

// Length validates content length in runes. A max of 0 means unbounded.
func Length(min, max int) Validator {
	return Func(func(_ context.Context, content string, _ *chat.Session) (Result, error) {
		n := len([]rune(content))
		if n < min {
			return Fail(fmt.Sprintf("content must be at least %d characters, got %d", min, n)), nil
		}
		if max > 0 && n > max {
			return Fail(fmt.Sprintf("content must be at most %d characters, got %d", max, n)), nil
		}
		return OK(), nil
	})
}

// Contains validates that content includes at least one of the keywords
// (case-insensitive).
func Contains(keywords ...string) Validator {
	return Func(func(_ context.Context, content string, _ *chat.Session) (Result, error) {
		lowered := strings.ToLower(content)
		for _, kw := range keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				return OK(), nil
			}
		}
		return Fail(fmt.Sprintf("content must mention one of: %s", strings.Join(keywords, ", "))), nil
	})
}

// Excludes validates that content includes none of the keywords
// (case-insensitive).
func Excludes(keywords ...string) Validator {
	return Func(func(_ context.Context, content string, _ *chat.Session) (Result, error) {
		lowered := strings.ToLower(content)
		for _, kw := range keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				return Fail(fmt.Sprintf("content must not mention %q", kw)), nil
			}
		}
		return OK(), nil
	})
}

// JSON validates that content is a well-formed JSON document.
func JSON() Validator {
	return Func(func(_ context.Context, content string, _ *chat.Session) (Result, error) {
		if json.Valid([]byte(content)) {
			return OK(), nil
		}
		return Fail("content must be a valid JSON document"), nil
	})
}
