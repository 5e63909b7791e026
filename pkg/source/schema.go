package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mitchellh/mapstructure"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
	"github.com/weftworks/loom/pkg/observability"
	"github.com/weftworks/loom/pkg/validator"
)

// DefaultSchemaTool is the synthetic tool name offered to tool-calling
// models when no custom name is configured.
const DefaultSchemaTool = "emit_structured_output"

// Schema generates structured output constrained by a JSON-schema-like
// definition. Tool-calling models are asked to call a synthetic schema tool;
// other models are instructed to reply with a bare JSON object. Every
// attempt is validated against the schema, and after the attempt budget is
// spent the source falls back once to schema-less generation before giving
// up.
type Schema struct {
	mdl      model.Model
	schema   *openapi3.Schema
	rawJSON  string
	toolName string
	varKey   string
	fallback bool
	cfg      config
}

// SchemaOption configures a schema source.
type SchemaOption func(*Schema)

// WithToolName overrides the synthetic tool name offered to the model.
func WithToolName(name string) SchemaOption {
	return func(s *Schema) {
		s.toolName = name
	}
}

// WithVarKey sets the session variable key the structured output is exposed
// under (default "structured").
func WithVarKey(key string) SchemaOption {
	return func(s *Schema) {
		s.varKey = key
	}
}

// WithoutFallback disables the final schema-less generation attempt.
func WithoutFallback() SchemaOption {
	return func(s *Schema) {
		s.fallback = false
	}
}

// WithSchemaRetry applies retry-protocol options to the schema source.
func WithSchemaRetry(opts ...Option) SchemaOption {
	return func(s *Schema) {
		for _, opt := range opts {
			opt(&s.cfg)
		}
	}
}

// NewSchema creates a schema-constrained source. The schema is given as a
// JSON-schema-shaped map and compiled once at construction.
func NewSchema(mdl model.Model, schema map[string]any, opts ...SchemaOption) (*Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("schema is not serializable: %w", err)
	}
	compiled := &openapi3.Schema{}
	if err := compiled.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	s := &Schema{
		mdl:      mdl,
		schema:   compiled,
		rawJSON:  string(raw),
		toolName: DefaultSchemaTool,
		varKey:   "structured",
		fallback: true,
		cfg:      defaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Content implements Source[Generated].
func (s *Schema) Content(ctx context.Context, sess *chat.Session) (Output[Generated], error) {
	cfg := s.cfg
	cfg.validator = s.effectiveValidator()

	out, err := resolve(ctx, sess, "schema", cfg, s.produceConstrained)
	if err == nil {
		return out, nil
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || !s.fallback {
		return out, err
	}

	// Repeated mismatch: one schema-less generation before giving up.
	observability.Logger(ctx).Warn("structured generation failed, falling back to plain generation",
		"source", "schema", "attempts", verr.Attempts)
	fallbackCfg := cfg
	fallbackCfg.maxAttempts = 1
	return resolve(ctx, sess, "schema", fallbackCfg, s.producePlain)
}

// effectiveValidator chains the implicit schema check with any user
// validator, schema check first.
func (s *Schema) effectiveValidator() validator.Validator {
	schemaCheck := validator.Func(func(_ context.Context, content string, _ *chat.Session) (validator.Result, error) {
		var value any
		if err := json.Unmarshal([]byte(content), &value); err != nil {
			return validator.Fail("reply with a single JSON object matching the schema"), nil
		}
		if err := s.schema.VisitJSON(value); err != nil {
			return validator.Fail(fmt.Sprintf("output does not match the schema: %v", err)), nil
		}
		return validator.OK(), nil
	})
	if s.cfg.validator == nil {
		return schemaCheck
	}
	return validator.All(schemaCheck, s.cfg.validator)
}

func (s *Schema) produceConstrained(ctx context.Context, sess *chat.Session, _ int) (Output[Generated], string, error) {
	var msg chat.Message
	var err error
	if tc, ok := s.mdl.(model.ToolCaller); ok {
		msg, err = tc.SendWithTools(ctx, sess, []model.ToolDef{s.toolDef()})
	} else {
		msg, err = s.mdl.Send(ctx, s.withSchemaInstruction(sess))
	}
	if err != nil {
		return Output[Generated]{}, "", err
	}
	return s.buildOutput(msg)
}

func (s *Schema) producePlain(ctx context.Context, sess *chat.Session, _ int) (Output[Generated], string, error) {
	msg, err := s.mdl.Send(ctx, s.withSchemaInstruction(sess))
	if err != nil {
		return Output[Generated]{}, "", err
	}
	return s.buildOutput(msg)
}

// buildOutput extracts the structured payload: the matching tool call's args
// when present, otherwise the message content parsed as JSON.
func (s *Schema) buildOutput(msg chat.Message) (Output[Generated], string, error) {
	raw := msg.Content
	for _, call := range msg.ToolCalls {
		if call.Name == s.toolName {
			encoded, err := json.Marshal(call.Args)
			if err != nil {
				return Output[Generated]{}, "", fmt.Errorf("tool call args not serializable: %w", err)
			}
			raw = string(encoded)
			break
		}
	}

	var structured map[string]any
	_ = json.Unmarshal([]byte(raw), &structured)

	out := Output[Generated]{
		Content: Generated{
			Text:       raw,
			ToolCalls:  msg.ToolCalls,
			Structured: structured,
		},
		Metadata: msg.Metadata,
	}
	if structured != nil {
		out.Vars = map[string]any{s.varKey: structured}
	}
	return out, raw, nil
}

func (s *Schema) toolDef() model.ToolDef {
	var params map[string]any
	_ = json.Unmarshal([]byte(s.rawJSON), &params)
	return model.ToolDef{
		Name:        s.toolName,
		Description: "Emit the final structured output. Call this exactly once.",
		Parameters:  params,
	}
}

func (s *Schema) withSchemaInstruction(sess *chat.Session) *chat.Session {
	return sess.AddMessage(chat.NewSystem(
		"Respond with a single JSON object (no prose, no code fences) matching this JSON schema:\n" + s.rawJSON))
}

// Decode maps a source's structured output onto a typed Go struct.
func Decode(g Generated, target any) error {
	if g.Structured == nil {
		return fmt.Errorf("no structured output to decode")
	}
	return mapstructure.Decode(g.Structured, target)
}
