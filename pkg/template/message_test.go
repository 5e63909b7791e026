package template

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/source"
	"github.com/weftworks/loom/pkg/tool"
	"github.com/weftworks/loom/pkg/validator"
)

func TestSystem_AppendsMessage(t *testing.T) {
	tmpl := NewSystem(source.NewStatic("You help with ${topic}."))
	sess := chat.NewSession(chat.WithSessionVars(map[string]any{"topic": "Go"}))

	next, err := tmpl.Execute(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, 0, sess.Len(), "input session must stay unchanged")
	require.Equal(t, 1, next.Len())

	msg, _ := next.LastMessage()
	require.Equal(t, chat.KindSystem, msg.Kind)
	require.Equal(t, "You help with Go.", msg.Content)
}

func TestSystem_MissingSourceIsConfigurationError(t *testing.T) {
	_, err := NewSystem(nil).Execute(context.Background(), chat.NewSession())
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestUser_DefaultSourceFromContext(t *testing.T) {
	tmpl := NewUser(nil)
	ctx := WithDefaults(context.Background(), Defaults{User: source.NewStatic("from default")})

	next, err := tmpl.Execute(ctx, chat.NewSession())
	require.NoError(t, err)
	msg, _ := next.LastMessage()
	require.Equal(t, "from default", msg.Content)
}

func TestUser_ConstructionSourceWinsOverDefault(t *testing.T) {
	tmpl := NewUser(source.NewStatic("constructed"))
	ctx := WithDefaults(context.Background(), Defaults{User: source.NewStatic("default")})

	next, err := tmpl.Execute(ctx, chat.NewSession())
	require.NoError(t, err)
	msg, _ := next.LastMessage()
	require.Equal(t, "constructed", msg.Content)
}

func TestUser_MissingSourceIsConfigurationError(t *testing.T) {
	_, err := NewUser(nil).Execute(context.Background(), chat.NewSession())
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
}

func TestUser_RepromptAppendsSystemAndRetries(t *testing.T) {
	answers := source.NewList([]string{"bad", "bad again", "good"})
	accept := validator.Func(func(_ context.Context, content string, _ *chat.Session) (validator.Result, error) {
		if content == "good" {
			return validator.OK(), nil
		}
		return validator.Fail("say 'good'"), nil
	})

	tmpl := NewUser(answers, WithReprompt(accept), WithRepromptAttempts(3))
	next, err := tmpl.Execute(context.Background(), chat.NewSession())
	require.NoError(t, err)

	// user(bad), system(instruction), user(bad again), system, user(good)
	kinds := make([]chat.Kind, 0, next.Len())
	for _, m := range next.Messages() {
		kinds = append(kinds, m.Kind)
	}
	require.Equal(t, []chat.Kind{chat.KindUser, chat.KindSystem, chat.KindUser, chat.KindSystem, chat.KindUser}, kinds)

	last, _ := next.LastMessage()
	require.Equal(t, "good", last.Content)
}

func TestUser_RepromptExhaustedRaises(t *testing.T) {
	answers := source.NewList([]string{"bad", "bad", "bad"})
	reject := validator.Func(func(_ context.Context, _ string, _ *chat.Session) (validator.Result, error) {
		return validator.Fail("never good enough"), nil
	})

	tmpl := NewUser(answers, WithReprompt(reject), WithRepromptAttempts(3))
	_, err := tmpl.Execute(context.Background(), chat.NewSession())

	var verr *source.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 3, verr.Attempts)
}

func TestUser_RepromptExhaustedKeepsLastWhenNotRaising(t *testing.T) {
	rec := observability.NewRecorder()
	ctx := observability.NewContext(context.Background(), rec.Hooks())

	answers := source.NewList([]string{"bad one", "bad two"})
	reject := validator.Func(func(_ context.Context, _ string, _ *chat.Session) (validator.Result, error) {
		return validator.Fail("nope"), nil
	})

	tmpl := NewUser(answers, WithReprompt(reject), WithRepromptAttempts(2), WithRepromptRaise(false))
	next, err := tmpl.Execute(ctx, chat.NewSession())
	require.NoError(t, err)

	last, _ := next.LastMessage()
	require.Equal(t, "bad two", last.Content)
	require.Contains(t, rec.WarningCodes(), observability.WarnValidationExceeded)
}

func generatedSrc(text string, calls ...chat.ToolCall) source.Source[source.Generated] {
	return source.NewModel(model.Func(func(_ context.Context, _ *chat.Session) (chat.Message, error) {
		return chat.NewAssistant(text, chat.WithToolCalls(calls...)), nil
	}))
}

func TestAssistant_AppendsGeneratedMessage(t *testing.T) {
	tmpl := NewAssistant(generatedSrc("hello there"))

	next, err := tmpl.Execute(context.Background(), chat.NewSession())
	require.NoError(t, err)
	msg, _ := next.LastMessage()
	require.Equal(t, chat.KindAssistant, msg.Kind)
	require.Equal(t, "hello there", msg.Content)
}

func TestAssistant_ExecutesToolCalls(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register("lookup", func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"answer": args["q"]}, nil
	})
	reg.Register("failing", func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("backend down")
	})

	tmpl := NewAssistant(generatedSrc("working on it",
		chat.ToolCall{ID: "c1", Name: "lookup", Args: map[string]any{"q": "go"}},
		chat.ToolCall{ID: "c2", Name: "failing"},
	), WithTools(reg))

	rec := observability.NewRecorder()
	ctx := observability.NewContext(context.Background(), rec.Hooks())

	next, err := tmpl.Execute(ctx, chat.NewSession())
	require.NoError(t, err, "a failing tool call must not abort the session")

	msgs := next.Messages()
	require.Len(t, msgs, 3) // assistant + one result per call

	require.Equal(t, chat.KindToolResult, msgs[1].Kind)
	require.Equal(t, "c1", msgs[1].ToolCallID)
	require.False(t, msgs[1].IsError)
	require.JSONEq(t, `{"answer":"go"}`, msgs[1].Content)

	require.Equal(t, chat.KindToolResult, msgs[2].Kind)
	require.Equal(t, "c2", msgs[2].ToolCallID)
	require.True(t, msgs[2].IsError)
	require.Contains(t, msgs[2].Content, "backend down")

	require.Len(t, rec.ToolEvents(), 4) // call+return per dispatch
}

func TestAssistant_UnknownToolContained(t *testing.T) {
	tmpl := NewAssistant(generatedSrc("", chat.ToolCall{ID: "c1", Name: "ghost"}), WithTools(tool.NewRegistry()))

	next, err := tmpl.Execute(context.Background(), chat.NewSession())
	require.NoError(t, err)
	msgs := next.Messages()
	require.True(t, msgs[1].IsError)
}

func TestAssistant_NoRegistryContained(t *testing.T) {
	tmpl := NewAssistant(generatedSrc("", chat.ToolCall{ID: "c1", Name: "lookup"}))

	next, err := tmpl.Execute(context.Background(), chat.NewSession())
	require.NoError(t, err)
	last, _ := next.LastMessage()
	require.True(t, last.IsError)
	require.Contains(t, last.Content, "no tool registry")
}

func TestAssistant_MergesSourceVars(t *testing.T) {
	src, err := source.NewSchema(&schemaFake{}, map[string]any{
		"type":       "object",
		"properties": map[string]any{"city": map[string]any{"type": "string"}},
		"required":   []any{"city"},
	})
	require.NoError(t, err)

	tmpl := NewAssistant(src)
	next, err := tmpl.Execute(context.Background(), chat.NewSession())
	require.NoError(t, err)

	val, ok := next.Var("structured.city")
	require.True(t, ok)
	require.Equal(t, "Lisbon", val)
}

// schemaFake answers any tool offer with a fixed city payload.
type schemaFake struct{}

func (f *schemaFake) Send(_ context.Context, _ *chat.Session) (chat.Message, error) {
	return chat.NewAssistant(`{"city": "Lisbon"}`), nil
}

func (f *schemaFake) SendWithTools(_ context.Context, _ *chat.Session, tools []model.ToolDef) (chat.Message, error) {
	return chat.NewAssistant("", chat.WithToolCalls(chat.ToolCall{
		ID:   "call-1",
		Name: tools[0].Name,
		Args: map[string]any{"city": "Lisbon"},
	})), nil
}

func TestToolResult_AnswersLastPendingCall(t *testing.T) {
	sess := chat.NewSession().AddMessage(
		chat.NewAssistant("checking", chat.WithToolCalls(chat.ToolCall{ID: "call-9", Name: "probe"})))

	tmpl := NewToolResult(source.NewStatic("probe finished"))
	next, err := tmpl.Execute(context.Background(), sess)
	require.NoError(t, err)

	last, _ := next.LastMessage()
	require.Equal(t, chat.KindToolResult, last.Kind)
	require.Equal(t, "call-9", last.ToolCallID)
	require.Equal(t, "probe finished", last.Content)
}

func TestToolResult_ExplicitCallID(t *testing.T) {
	tmpl := NewToolResult(source.NewStatic("done"), ForCall("explicit-3"))
	next, err := tmpl.Execute(context.Background(), chat.NewSession())
	require.NoError(t, err)

	last, _ := next.LastMessage()
	require.Equal(t, "explicit-3", last.ToolCallID)
}

func TestMessageTemplates_EmitLifecycleEvents(t *testing.T) {
	rec := observability.NewRecorder()
	ctx := observability.NewContext(context.Background(), rec.Hooks())

	_, err := NewSystem(source.NewStatic("x")).Execute(ctx, chat.NewSession())
	require.NoError(t, err)

	events := rec.Templates()
	require.Len(t, events, 2)
	require.Equal(t, "system", events[0].Template)
	require.Equal(t, observability.EventTemplateStart, events[0].Type)
	require.Equal(t, observability.EventTemplateEnd, events[1].Type)
}

func ExampleNewSystem() {
	tmpl := NewSystem(source.NewStatic("Answer in ${lang}."))
	sess := chat.NewSession(chat.WithSessionVars(map[string]any{"lang": "French"}))

	next, _ := tmpl.Execute(context.Background(), sess)
	msg, _ := next.LastMessage()
	fmt.Println(msg.Content)
	// Output: Answer in French.
}
