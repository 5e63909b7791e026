package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/validator"
)

func alwaysFail(instruction string) validator.Validator {
	return validator.Func(func(_ context.Context, _ string, _ *chat.Session) (validator.Result, error) {
		return validator.Fail(instruction), nil
	})
}

func passAfter(n int) validator.Validator {
	calls := 0
	return validator.Func(func(_ context.Context, _ string, _ *chat.Session) (validator.Result, error) {
		calls++
		if calls >= n {
			return validator.OK(), nil
		}
		return validator.Fail("not yet"), nil
	})
}

func TestStatic_Interpolates(t *testing.T) {
	sess := chat.NewSession(chat.WithSessionVars(map[string]any{
		"user": map[string]any{"name": "Ann"},
	}))

	out, err := NewStatic("Hello ${user.name}").Content(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, "Hello Ann", out.Content)
}

func TestStatic_UnresolvedPathIsEmpty(t *testing.T) {
	out, err := NewStatic("Hello ${user.name}").Content(context.Background(), chat.NewSession())
	require.NoError(t, err)
	require.Equal(t, "Hello ", out.Content)
}

func TestRetry_RaisesAfterMaxAttempts(t *testing.T) {
	src := NewStatic("bad content",
		WithValidator(alwaysFail("make it good")),
		WithMaxAttempts(3),
	)

	_, err := src.Content(context.Background(), chat.NewSession())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 3, verr.Attempts)
	require.Equal(t, "make it good", verr.Instruction)
}

func TestRetry_ReturnsInvalidContentWhenNotRaising(t *testing.T) {
	rec := observability.NewRecorder()
	ctx := observability.NewContext(context.Background(), rec.Hooks())

	src := NewStatic("bad content",
		WithValidator(alwaysFail("make it good")),
		WithMaxAttempts(2),
		WithRaiseError(false),
	)

	out, err := src.Content(ctx, chat.NewSession())
	require.NoError(t, err)
	require.Equal(t, "bad content", out.Content)

	// One retry event per non-final failed attempt, one warning on downgrade.
	require.Len(t, rec.Retries(), 1)
	require.Equal(t, []string{observability.WarnValidationExceeded}, rec.WarningCodes())
}

func TestRetry_SucceedsMidBudget(t *testing.T) {
	src := NewStatic("content", WithValidator(passAfter(2)), WithMaxAttempts(3))

	out, err := src.Content(context.Background(), chat.NewSession())
	require.NoError(t, err)
	require.Equal(t, "content", out.Content)
}

func TestModel_RegeneratesPerAttempt(t *testing.T) {
	calls := 0
	mdl := model.Func(func(_ context.Context, _ *chat.Session) (chat.Message, error) {
		calls++
		if calls < 3 {
			return chat.NewAssistant("draft"), nil
		}
		return chat.NewAssistant("final"), nil
	})

	accept := validator.Func(func(_ context.Context, content string, _ *chat.Session) (validator.Result, error) {
		if content == "final" {
			return validator.OK(), nil
		}
		return validator.Fail("try again"), nil
	})

	src := NewModel(mdl, WithValidator(accept), WithMaxAttempts(5))
	out, err := src.Content(context.Background(), chat.NewSession())
	require.NoError(t, err)
	require.Equal(t, "final", out.Content.Text)
	require.Equal(t, 3, calls, "each failed validation must trigger a fresh generation")
}

func TestModel_ProductionErrorAbortsImmediately(t *testing.T) {
	boom := errors.New("rate limited")
	mdl := model.Func(func(_ context.Context, _ *chat.Session) (chat.Message, error) {
		return chat.Message{}, boom
	})

	src := NewModel(mdl, WithValidator(alwaysFail("x")), WithMaxAttempts(3))
	_, err := src.Content(context.Background(), chat.NewSession())
	require.ErrorIs(t, err, boom)
}

func TestList_ServesInOrderThenExhausts(t *testing.T) {
	src := NewList([]string{"a", "b"})
	ctx := context.Background()
	sess := chat.NewSession()

	out, err := src.Content(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, "a", out.Content)

	out, err = src.Content(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, "b", out.Content)

	_, err = src.Content(ctx, sess)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestList_LoopsAround(t *testing.T) {
	src := NewList([]string{"a", "b"}, Looping())
	ctx := context.Background()
	sess := chat.NewSession()

	var got []string
	for range 5 {
		out, err := src.Content(ctx, sess)
		require.NoError(t, err)
		got = append(got, out.Content)
	}
	require.Equal(t, []string{"a", "b", "a", "b", "a"}, got)
}

func TestList_EmptyLoopFails(t *testing.T) {
	src := NewList(nil, Looping())
	_, err := src.Content(context.Background(), chat.NewSession())
	require.ErrorIs(t, err, ErrEmptyList)
}

func TestCallback(t *testing.T) {
	src := NewCallback(func(_ context.Context, s *chat.Session) (string, error) {
		name, _ := s.Var("name")
		return "hi " + name.(string), nil
	})

	sess := chat.NewSession(chat.WithSessionVars(map[string]any{"name": "Bo"}))
	out, err := src.Content(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, "hi Bo", out.Content)
}

func TestAsGenerated(t *testing.T) {
	src := AsGenerated(NewStatic("plain ${x}"))
	sess := chat.NewSession(chat.WithSessionVars(map[string]any{"x": "text"}))

	out, err := src.Content(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, "plain text", out.Content.Text)
	require.Empty(t, out.Content.ToolCalls)
}
