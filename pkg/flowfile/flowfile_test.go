package flowfile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
	"github.com/weftworks/loom/pkg/source"
	"github.com/weftworks/loom/pkg/template"
)

func echoModel() model.Model {
	return model.Func(func(_ context.Context, s *chat.Session) (chat.Message, error) {
		last, _ := s.LastMessage()
		return chat.NewAssistant("echo: " + last.Content), nil
	})
}

func execFlow(t *testing.T, doc string) *chat.Session {
	t.Helper()

	flow, err := Parse([]byte(doc))
	require.NoError(t, err)
	tmpl, err := flow.Compile()
	require.NoError(t, err)

	ctx := template.WithDefaults(context.Background(), template.Defaults{
		User:      source.NewStatic("fallback question"),
		Assistant: source.NewModel(echoModel()),
	})
	sess, err := tmpl.Execute(ctx, flow.Session())
	require.NoError(t, err)
	return sess
}

func TestParse_RejectsEmptyFlow(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	require.Error(t, err)
}

func TestCompile_BasicConversation(t *testing.T) {
	sess := execFlow(t, `
name: basics
vars:
  topic: goroutines
steps:
  - system: "You explain ${topic}."
  - user: "Tell me about ${topic}."
  - assistant: {}
`)

	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, chat.KindSystem, msgs[0].Kind)
	require.Equal(t, "You explain goroutines.", msgs[0].Content)
	require.Equal(t, chat.KindUser, msgs[1].Kind)
	require.Equal(t, "Tell me about goroutines.", msgs[1].Content)
	require.Equal(t, chat.KindAssistant, msgs[2].Kind)
	require.Equal(t, "echo: Tell me about goroutines.", msgs[2].Content)
}

func TestCompile_UserFallsBackToDefaults(t *testing.T) {
	sess := execFlow(t, `
steps:
  - user: {}
`)

	last, _ := sess.LastMessage()
	require.Equal(t, "fallback question", last.Content)
}

func TestCompile_UserScript(t *testing.T) {
	sess := execFlow(t, `
steps:
  - user:
      script: [first, second]
  - user:
      script: []
`)
	// A second user step with its own (empty) script still decodes; the first
	// step serves from its list.
	first := sess.Messages()[0]
	require.Equal(t, "first", first.Content)
}

func TestCompile_LoopExitsOnVar(t *testing.T) {
	sess := execFlow(t, `
steps:
  - loop:
      max_iterations: 10
      exit_when_var: done
      body:
        - user: "ping"
        - set:
            done: true
`)

	require.Equal(t, 1, sess.Len(), "loop must stop after the exit var is set")
	done, ok := sess.Var("done")
	require.True(t, ok)
	require.Equal(t, true, done)
}

func TestCompile_IfBranches(t *testing.T) {
	thenSess := execFlow(t, `
vars:
  expert: true
steps:
  - if:
      when_var: expert
      then:
        - system: deep dive
      else:
        - system: keep it simple
`)
	msg, _ := thenSess.LastMessage()
	require.Equal(t, "deep dive", msg.Content)

	elseSess := execFlow(t, `
steps:
  - if:
      when_var: expert
      then:
        - system: deep dive
      else:
        - system: keep it simple
`)
	msg, _ = elseSess.LastMessage()
	require.Equal(t, "keep it simple", msg.Content)
}

func TestCompile_SubroutineIsolated(t *testing.T) {
	sess := execFlow(t, `
steps:
  - system: outer
  - subroutine:
      isolated: true
      steps:
        - system: inner
`)

	kinds := sess.MessagesByKind(chat.KindSystem)
	require.Len(t, kinds, 2)
	require.Equal(t, "outer", kinds[0].Content)
	require.Equal(t, "inner", kinds[1].Content)
}

func TestCompile_UnknownKind(t *testing.T) {
	flow, err := Parse([]byte("steps:\n  - teleport: {}\n"))
	require.NoError(t, err)
	_, err = flow.Compile()
	require.ErrorContains(t, err, `unknown step kind "teleport"`)
}

func TestCompile_RejectsUnknownConfigKeys(t *testing.T) {
	flow, err := Parse([]byte(`
steps:
  - loop:
      bodyy:
        - user: hi
`))
	require.NoError(t, err)
	_, err = flow.Compile()
	require.Error(t, err)
}

func TestSession_SeedsVars(t *testing.T) {
	flow, err := Parse([]byte("vars:\n  lang: fr\nsteps:\n  - system: x\n"))
	require.NoError(t, err)

	v, ok := flow.Session().Var("lang")
	require.True(t, ok)
	require.Equal(t, "fr", v)
}
