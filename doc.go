/*
Package loom is a composable orchestration engine for multi-turn LLM
conversations. It separates what a conversation looks like (an immutable
Session of messages and variables) from how it unfolds (a tree of Templates)
and where content comes from (Sources with built-in validation and retry).

# Concept

Loom treats a conversation as a program: message templates are statements,
composite templates (sequence, loop, conditional, subroutine) are control
flow, and the session is the value threaded through them. Every execution
step takes a session and returns a new one; no template ever mutates its
input. This makes runs reproducible, forkable, and safe to retry.

# Key Features

  - Immutable Sessions: append-only message history plus a variable store,
    with ${dotted.path} interpolation in template text.
  - Validated Content: any source can carry a validator and a bounded retry
    budget; rejected content is regenerated with corrective feedback.
  - Composable Control Flow: loops with exit conditions and iteration caps,
    conditionals, and subroutines with isolated child sessions.
  - Tool Calling: assistant templates dispatch tool calls through a registry
    and record results as first-class messages.
  - Observability: lifecycle hooks, structured logging, and Prometheus
    metrics, all carried on the context rather than threaded by hand.

# Usage

Compose a template tree, then execute it with a Runner.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/weftworks/loom"
	)

	func main() {
		flow := loom.Sequence(
			loom.System("You are a concise Go tutor."),
			loom.User("Explain the empty struct in one sentence."),
			loom.Reply(),
		)

		sess, err := loom.Run(context.Background(), flow, nil,
			loom.WithModel(myModel{}),
		)
		if err != nil {
			log.Fatal(err)
		}

		for _, msg := range sess.Messages() {
			fmt.Printf("[%s] %s\n", msg.Kind, msg.Content)
		}
	}

The pkg/template package exposes the full template surface, including loops,
conditionals, and subroutines; pkg/source the content sources; pkg/validator
the validation layer; and pkg/flowfile a YAML front-end for declaring flows
in files.
*/
package loom
