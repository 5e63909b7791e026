// Package cli implements the command-line session logic behind cmd/loom.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/weftworks/loom"
	"github.com/weftworks/loom/internal/logging"
	"github.com/weftworks/loom/internal/presentation/tui"
	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/flowfile"
	"github.com/weftworks/loom/pkg/model"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/source"
	"github.com/weftworks/loom/pkg/store"
)

// Options configures a command-line flow run.
type Options struct {
	Plain   bool
	Banner  bool
	Verbose bool
	Replies []string

	// SaveID, when set, persists the final session under this ID.
	SaveID   string
	StoreDir string
}

// RunFlow loads a flow file, executes it, and prints the transcript.
// Without scripted replies the assistant echoes the last user message, which
// keeps the command usable for flow development before a real model is wired.
func RunFlow(path string, opts Options) error {
	flow, err := LoadFlow(path)
	if err != nil {
		return err
	}
	tmpl, err := flow.Compile()
	if err != nil {
		return fmt.Errorf("compiling flow %q: %w", flow.Name, err)
	}

	if opts.Banner {
		tui.PrintBanner()
	}

	runOpts := []loom.Option{
		loom.WithModel(buildModel(opts.Replies)),
		loom.WithUserSource(source.NewCLI("> ")),
		loom.WithLogger(logging.NewNop()),
	}
	if opts.Verbose {
		logger := logging.New(slog.LevelDebug)
		runOpts = append(runOpts,
			loom.WithLogger(logger),
			loom.WithHooks(observability.LogHooks(logger)),
		)
	}

	sess, err := loom.Run(context.Background(), tmpl, flow.Session(), runOpts...)
	if err != nil {
		return fmt.Errorf("running flow %q: %w", flow.Name, err)
	}

	renderer := tui.NewRenderer(opts.Plain)
	for _, msg := range sess.Messages() {
		renderer.Print(msg)
	}

	if opts.SaveID != "" {
		if err := store.NewFileStore(opts.StoreDir).Save(context.Background(), opts.SaveID, sess); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	return nil
}

// LoadFlow reads and parses a flow file from disk.
func LoadFlow(path string) (*flowfile.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flow file: %w", err)
	}
	return flowfile.Parse(data)
}

func buildModel(replies []string) model.Model {
	if len(replies) > 0 {
		i := 0
		return model.Func(func(_ context.Context, _ *chat.Session) (chat.Message, error) {
			reply := replies[len(replies)-1]
			if i < len(replies) {
				reply = replies[i]
				i++
			}
			return chat.NewAssistant(reply), nil
		})
	}
	return model.Func(func(_ context.Context, s *chat.Session) (chat.Message, error) {
		users := s.MessagesByKind(chat.KindUser)
		if len(users) == 0 {
			return chat.NewAssistant("(nothing to respond to)"), nil
		}
		return chat.NewAssistant(users[len(users)-1].Content), nil
	})
}
