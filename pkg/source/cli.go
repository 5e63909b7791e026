package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/weftworks/loom/pkg/chat"
)

// CLI reads content interactively from a terminal (or any reader).
// Empty input falls back to the configured default.
type CLI struct {
	prompt   string
	fallback string
	in       io.Reader
	out      io.Writer
	cfg      config

	scanner *bufio.Scanner
}

// CLIOption configures a CLI source.
type CLIOption func(*CLI)

// WithDefault sets the value used when the user submits an empty line.
func WithDefault(value string) CLIOption {
	return func(c *CLI) {
		c.fallback = value
	}
}

// WithReader overrides the input stream (default os.Stdin).
func WithReader(r io.Reader) CLIOption {
	return func(c *CLI) {
		c.in = r
	}
}

// WithWriter overrides the prompt destination (default os.Stdout).
func WithWriter(w io.Writer) CLIOption {
	return func(c *CLI) {
		c.out = w
	}
}

// WithCLIRetry applies retry-protocol options to the CLI source.
func WithCLIRetry(opts ...Option) CLIOption {
	return func(c *CLI) {
		for _, opt := range opts {
			opt(&c.cfg)
		}
	}
}

// NewCLI creates an interactive source that displays prompt before reading.
func NewCLI(prompt string, opts ...CLIOption) *CLI {
	c := &CLI{
		prompt: prompt,
		in:     os.Stdin,
		out:    os.Stdout,
		cfg:    defaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scanner = bufio.NewScanner(c.in)
	return c
}

// Content implements Source[string]. The read blocks the calling goroutine;
// callers wanting timeouts must wrap the context themselves.
func (c *CLI) Content(ctx context.Context, sess *chat.Session) (Output[string], error) {
	return resolve(ctx, sess, "cli", c.cfg, func(ctx context.Context, sess *chat.Session, _ int) (Output[string], string, error) {
		if err := ctx.Err(); err != nil {
			return Output[string]{}, "", err
		}
		if c.showPrompt() {
			fmt.Fprint(c.out, sess.Interpolate(c.prompt))
		}

		line, err := c.readLine()
		if err != nil {
			return Output[string]{}, "", err
		}
		if line == "" {
			line = c.fallback
		}
		return Output[string]{Content: line}, line, nil
	})
}

func (c *CLI) readLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}

// showPrompt suppresses the prompt when input is piped in, so scripted runs
// don't interleave prompts with output.
func (c *CLI) showPrompt() bool {
	if c.prompt == "" {
		return false
	}
	if f, ok := c.in.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return true
}
