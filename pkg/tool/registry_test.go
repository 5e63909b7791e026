package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry()
	r.Register("add", func(ctx context.Context, args map[string]any) (any, error) {
		return args["a"].(int) + args["b"].(int), nil
	})

	result, err := r.Execute(context.Background(), "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	require.Equal(t, 5, result)
}

func TestRegistry_ExecuteUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("f", func(ctx context.Context, args map[string]any) (any, error) { return "old", nil })
	r.Register("f", func(ctx context.Context, args map[string]any) (any, error) { return "new", nil })

	result, err := r.Execute(context.Background(), "f", nil)
	require.NoError(t, err)
	require.Equal(t, "new", result)
}

func TestSerialize(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"map", map[string]any{"ok": true}, `{"ok":true}`},
		{"number", 42, "42"},
		{"error", errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Serialize(tc.in); got != tc.want {
				t.Errorf("Serialize(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
