package source

import (
	"context"
	"io"
	"strings"

	"github.com/weftworks/loom/pkg/chat"
	"github.com/weftworks/loom/pkg/model"
)

// Model generates content with an injected model capability. A failed
// validation triggers a fresh generation call, not a re-check of the same
// output.
type Model struct {
	mdl  model.Model
	sink io.Writer
	cfg  config
}

// NewModel creates a generative source.
func NewModel(mdl model.Model, opts ...Option) *Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Model{mdl: mdl, cfg: cfg}
}

// NewStreamingModel creates a generative source that copies partial output to
// sink as it arrives, when the model implements model.Streamer. Models
// without streaming support fall back to a single Send call.
func NewStreamingModel(mdl model.Model, sink io.Writer, opts ...Option) *Model {
	m := NewModel(mdl, opts...)
	m.sink = sink
	return m
}

// Content implements Source[Generated].
func (m *Model) Content(ctx context.Context, sess *chat.Session) (Output[Generated], error) {
	return resolve(ctx, sess, "model", m.cfg, func(ctx context.Context, sess *chat.Session, _ int) (Output[Generated], string, error) {
		msg, err := m.generate(ctx, sess)
		if err != nil {
			return Output[Generated]{}, "", err
		}
		out := Output[Generated]{
			Content: Generated{
				Text:      msg.Content,
				ToolCalls: msg.ToolCalls,
			},
			Metadata: msg.Metadata,
		}
		return out, msg.Content, nil
	})
}

func (m *Model) generate(ctx context.Context, sess *chat.Session) (chat.Message, error) {
	streamer, ok := m.mdl.(model.Streamer)
	if m.sink == nil || !ok {
		return m.mdl.Send(ctx, sess)
	}

	deltas, err := streamer.SendStream(ctx, sess)
	if err != nil {
		return chat.Message{}, err
	}

	var text strings.Builder
	for delta := range deltas {
		if delta.Err != nil {
			return chat.Message{}, delta.Err
		}
		if delta.Content != "" {
			text.WriteString(delta.Content)
			io.WriteString(m.sink, delta.Content)
		}
		if delta.Done {
			break
		}
	}
	return chat.NewAssistant(text.String()), nil
}
