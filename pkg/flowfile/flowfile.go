// Package flowfile compiles declarative YAML flow documents into template
// trees. It is the file-based front-end to the in-code builders: each step
// maps to one template, and nested step lists map to composite templates.
//
// A flow document looks like:
//
//	name: onboarding
//	vars:
//	  topic: Go
//	steps:
//	  - system: "You help with ${topic}."
//	  - user:
//	      prompt: "Question: "
//	      default: "What is a goroutine?"
//	  - assistant: {}
//	  - loop:
//	      exit_when_var: done
//	      max_iterations: 5
//	      body:
//	        - user: {}
//	        - assistant: {}
package flowfile

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/source"
	"github.com/weftworks/loom/pkg/template"
)

// Flow is a parsed flow document.
type Flow struct {
	Name  string         `yaml:"name"`
	Vars  map[string]any `yaml:"vars"`
	Steps []Step         `yaml:"steps"`
}

// Step is one entry of a steps list: a single-key map from step kind to its
// configuration.
type Step map[string]any

// Parse decodes a YAML flow document.
func Parse(data []byte) (*Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing flow: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("flow %q has no steps", f.Name)
	}
	return &f, nil
}

// Session creates the initial session seeded with the flow's vars.
func (f *Flow) Session() *chat.Session {
	return chat.NewSession(chat.WithSessionVars(f.Vars))
}

// Compile builds the template tree for the flow.
func (f *Flow) Compile() (template.Template, error) {
	return compileSteps(f.Steps)
}

func compileSteps(steps []Step) (template.Template, error) {
	children := make([]template.Template, 0, len(steps))
	for i, step := range steps {
		tmpl, err := compileStep(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		children = append(children, tmpl)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return template.NewSequence(children...), nil
}

func compileStep(step Step) (template.Template, error) {
	if len(step) != 1 {
		return nil, fmt.Errorf("a step must have exactly one kind, got %d keys", len(step))
	}
	for kind, raw := range step {
		switch kind {
		case "system":
			return compileSystem(raw)
		case "user":
			return compileUser(raw)
		case "assistant":
			return compileAssistant(raw)
		case "loop":
			return compileLoop(raw)
		case "if":
			return compileIf(raw)
		case "subroutine":
			return compileSubroutine(raw)
		case "set":
			return compileSet(raw)
		default:
			return nil, fmt.Errorf("unknown step kind %q", kind)
		}
	}
	return nil, fmt.Errorf("empty step")
}

type textConfig struct {
	Text string `mapstructure:"text"`
}

// textOf accepts both the shorthand scalar form (`- system: hello`) and the
// explicit map form (`- system: {text: hello}`).
func textOf(raw any) (string, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	var cfg textConfig
	if err := decode(raw, &cfg); err != nil {
		return "", err
	}
	return cfg.Text, nil
}

func compileSystem(raw any) (template.Template, error) {
	text, err := textOf(raw)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("system step needs text")
	}
	return template.NewSystem(source.NewStatic(text)), nil
}

type userConfig struct {
	Text    string   `mapstructure:"text"`
	Prompt  string   `mapstructure:"prompt"`
	Default string   `mapstructure:"default"`
	Script  []string `mapstructure:"script"`
}

func compileUser(raw any) (template.Template, error) {
	if s, ok := raw.(string); ok {
		return template.NewUser(source.NewStatic(s)), nil
	}
	var cfg userConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	switch {
	case cfg.Text != "":
		return template.NewUser(source.NewStatic(cfg.Text)), nil
	case len(cfg.Script) > 0:
		return template.NewUser(source.NewList(cfg.Script)), nil
	case cfg.Prompt != "":
		return template.NewUser(source.NewCLI(cfg.Prompt, source.WithDefault(cfg.Default))), nil
	default:
		// Source supplied at execution time via template.WithDefaults.
		return template.NewUser(nil), nil
	}
}

func compileAssistant(raw any) (template.Template, error) {
	text, err := textOf(raw)
	if err != nil {
		return nil, err
	}
	if text != "" {
		return template.NewAssistant(source.AsGenerated(source.NewStatic(text))), nil
	}
	return template.NewAssistant(nil), nil
}

type loopConfig struct {
	MaxIterations int    `mapstructure:"max_iterations"`
	ExitWhenVar   string `mapstructure:"exit_when_var"`
	Body          []Step `mapstructure:"body"`
}

func compileLoop(raw any) (template.Template, error) {
	var cfg loopConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	body, err := compileSteps(cfg.Body)
	if err != nil {
		return nil, fmt.Errorf("loop body: %w", err)
	}

	b := template.NewLoop().Body(body)
	if cfg.MaxIterations > 0 {
		b.MaxIterations(cfg.MaxIterations)
	}
	if cfg.ExitWhenVar != "" {
		b.ExitIf(varIsTruthy(cfg.ExitWhenVar))
	}
	loop, err := b.Build()
	if err != nil {
		return nil, err
	}
	return loop, nil
}

type ifConfig struct {
	WhenVar string `mapstructure:"when_var"`
	Then    []Step `mapstructure:"then"`
	Else    []Step `mapstructure:"else"`
}

func compileIf(raw any) (template.Template, error) {
	var cfg ifConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.WhenVar == "" {
		return nil, fmt.Errorf("if step needs when_var")
	}
	then, err := compileSteps(cfg.Then)
	if err != nil {
		return nil, fmt.Errorf("then branch: %w", err)
	}

	opts := []template.ConditionalOption{}
	if len(cfg.Else) > 0 {
		otherwise, err := compileSteps(cfg.Else)
		if err != nil {
			return nil, fmt.Errorf("else branch: %w", err)
		}
		opts = append(opts, template.WithElse(otherwise))
	}
	cond, err := template.NewConditional(varIsTruthy(cfg.WhenVar), then, opts...)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

type subroutineConfig struct {
	Isolated       bool   `mapstructure:"isolated"`
	RetainMessages *bool  `mapstructure:"retain_messages"`
	Steps          []Step `mapstructure:"steps"`
}

func compileSubroutine(raw any) (template.Template, error) {
	var cfg subroutineConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	children := make([]template.Template, 0, len(cfg.Steps))
	for i, step := range cfg.Steps {
		tmpl, err := compileStep(step)
		if err != nil {
			return nil, fmt.Errorf("subroutine step %d: %w", i+1, err)
		}
		children = append(children, tmpl)
	}

	b := template.NewSubroutine().Add(children...)
	if cfg.Isolated {
		b.Isolated()
	}
	if cfg.RetainMessages != nil {
		b.RetainMessages(*cfg.RetainMessages)
	}
	sub, err := b.Build()
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func compileSet(raw any) (template.Template, error) {
	var vars map[string]any
	switch m := raw.(type) {
	case map[string]any:
		vars = m
	case Step:
		vars = m
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("set step needs a non-empty map of vars")
	}
	tr, err := template.NewTransform(func(_ context.Context, s *chat.Session) (*chat.Session, error) {
		return s.WithVars(vars), nil
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func varIsTruthy(name string) func(*chat.Session) bool {
	return func(s *chat.Session) bool {
		v, ok := s.Var(name)
		if !ok || v == nil {
			return false
		}
		switch val := v.(type) {
		case bool:
			return val
		case string:
			return val != "" && val != "false"
		case int:
			return val != 0
		case float64:
			return val != 0
		default:
			return true
		}
	}
}

func decode(raw any, target any) error {
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid step config: %w", err)
	}
	return nil
}
