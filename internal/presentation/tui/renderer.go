package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/weftworks/loom/pkg/chat"
)

// Renderer pretty-prints transcript messages, using glamour for markdown in
// assistant output when stdout is a terminal.
type Renderer struct {
	markdown func(string) (string, error)
}

// NewRenderer creates a renderer. Markdown rendering is enabled only when
// plain is false and stdout is a terminal.
func NewRenderer(plain bool) *Renderer {
	r := &Renderer{}
	if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
		if g, err := glamour.NewTermRenderer(glamour.WithAutoStyle()); err == nil {
			r.markdown = g.Render
		}
	}
	return r
}

// Print writes one transcript message to stdout.
func (r *Renderer) Print(msg chat.Message) {
	switch msg.Kind {
	case chat.KindAssistant:
		content := msg.Content
		if r.markdown != nil {
			if rendered, err := r.markdown(content); err == nil {
				content = strings.TrimRight(rendered, "\n") + "\n"
			}
		}
		fmt.Printf("assistant: %s\n", content)
	case chat.KindToolResult:
		status := "ok"
		if msg.IsError {
			status = "error"
		}
		fmt.Printf("tool[%s] (%s): %s\n", msg.ToolCallID, status, msg.Content)
	default:
		fmt.Printf("%s: %s\n", msg.Kind, msg.Content)
	}
}
