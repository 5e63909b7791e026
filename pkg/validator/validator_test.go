package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftworks/loom/pkg/chat"
)

func validate(t *testing.T, v Validator, content string) Result {
	t.Helper()
	res, err := v.Validate(context.Background(), content, chat.NewSession())
	require.NoError(t, err)
	return res
}

func TestMatch(t *testing.T) {
	v := Match(`^\d+$`)
	require.True(t, validate(t, v, "12345").Valid)

	res := validate(t, v, "not a number")
	require.False(t, res.Valid)
	require.Contains(t, res.Instruction, "pattern")
}

func TestLength(t *testing.T) {
	v := Length(3, 5)
	require.False(t, validate(t, v, "ab").Valid)
	require.True(t, validate(t, v, "abc").Valid)
	require.True(t, validate(t, v, "abcde").Valid)
	require.False(t, validate(t, v, "abcdef").Valid)

	unbounded := Length(1, 0)
	require.True(t, validate(t, unbounded, "any length goes here").Valid)
}

func TestContainsAndExcludes(t *testing.T) {
	require.True(t, validate(t, Contains("go", "rust"), "I like Go").Valid)
	require.False(t, validate(t, Contains("go", "rust"), "I like C").Valid)

	require.True(t, validate(t, Excludes("secret"), "all public").Valid)
	require.False(t, validate(t, Excludes("secret"), "the SECRET plan").Valid)
}

func TestJSON(t *testing.T) {
	require.True(t, validate(t, JSON(), `{"a": 1}`).Valid)
	require.False(t, validate(t, JSON(), `{"a": `).Valid)
}

func TestAll(t *testing.T) {
	pass := Func(func(_ context.Context, _ string, _ *chat.Session) (Result, error) { return OK(), nil })
	failA := Func(func(_ context.Context, _ string, _ *chat.Session) (Result, error) { return Fail("a failed"), nil })
	failB := Func(func(_ context.Context, _ string, _ *chat.Session) (Result, error) { return Fail("b failed"), nil })

	require.True(t, validate(t, All(pass, pass), "x").Valid)

	res := validate(t, All(pass, failA, failB), "x")
	require.False(t, res.Valid)
	require.Contains(t, res.Instruction, "a failed")
	require.Contains(t, res.Instruction, "b failed")
}

func TestAny(t *testing.T) {
	calls := 0
	pass := Func(func(_ context.Context, _ string, _ *chat.Session) (Result, error) {
		calls++
		return OK(), nil
	})
	fail := Func(func(_ context.Context, _ string, _ *chat.Session) (Result, error) { return Fail("nope"), nil })

	require.True(t, validate(t, Any(fail, pass), "x").Valid)

	// Short-circuit: the second pass validator must not run.
	calls = 0
	require.True(t, validate(t, Any(pass, pass), "x").Valid)
	require.Equal(t, 1, calls)

	res := validate(t, Any(fail, fail), "x")
	require.False(t, res.Valid)
	require.Contains(t, res.Instruction, "at least one of")
}
