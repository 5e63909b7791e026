package source

import (
	"context"
	"errors"
	"sync"

	"github.com/weftworks/loom/pkg/chat"
)

// ErrExhausted is returned by a non-looping list source once every item has
// been served.
var ErrExhausted = errors.New("no more content in list source")

// ErrEmptyList is returned by a looping list source that was built with no
// items; looping cannot manufacture content out of nothing.
var ErrEmptyList = errors.New("list source has no items")

// Static serves a fixed text, interpolating ${dotted.path} placeholders
// against the session variables on every call.
type Static struct {
	text string
	cfg  config
}

// NewStatic creates a static text source.
func NewStatic(text string, opts ...Option) *Static {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Static{text: text, cfg: cfg}
}

// Content implements Source[string].
func (s *Static) Content(ctx context.Context, sess *chat.Session) (Output[string], error) {
	return resolve(ctx, sess, "static", s.cfg, func(_ context.Context, sess *chat.Session, _ int) (Output[string], string, error) {
		text := sess.Interpolate(s.text)
		return Output[string]{Content: text}, text, nil
	})
}

// List serves items in order, one per Content call. A non-looping list fails
// with ErrExhausted when it runs out; a looping list wraps around instead.
type List struct {
	items []string
	loop  bool
	cfg   config

	mu   sync.Mutex
	next int
}

// ListOption configures a list source.
type ListOption func(*List)

// Looping makes the list wrap around instead of exhausting.
func Looping() ListOption {
	return func(l *List) {
		l.loop = true
	}
}

// WithListRetry applies retry-protocol options to the list source.
func WithListRetry(opts ...Option) ListOption {
	return func(l *List) {
		for _, opt := range opts {
			opt(&l.cfg)
		}
	}
}

// NewList creates a sequential list source.
func NewList(items []string, opts ...ListOption) *List {
	l := &List{
		items: append([]string(nil), items...),
		cfg:   defaultConfig(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Content implements Source[string]. Items are interpolated like static text.
func (l *List) Content(ctx context.Context, sess *chat.Session) (Output[string], error) {
	return resolve(ctx, sess, "list", l.cfg, func(_ context.Context, sess *chat.Session, _ int) (Output[string], string, error) {
		item, err := l.take()
		if err != nil {
			return Output[string]{}, "", err
		}
		text := sess.Interpolate(item)
		return Output[string]{Content: text}, text, nil
	})
}

func (l *List) take() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		if l.loop {
			return "", ErrEmptyList
		}
		return "", ErrExhausted
	}
	if l.next >= len(l.items) {
		if !l.loop {
			return "", ErrExhausted
		}
		l.next = 0
	}
	item := l.items[l.next]
	l.next++
	return item, nil
}

// Callback wraps an arbitrary function of the session.
type Callback struct {
	fn  func(ctx context.Context, s *chat.Session) (string, error)
	cfg config
}

// NewCallback creates a callback source.
func NewCallback(fn func(ctx context.Context, s *chat.Session) (string, error), opts ...Option) *Callback {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Callback{fn: fn, cfg: cfg}
}

// Content implements Source[string].
func (c *Callback) Content(ctx context.Context, sess *chat.Session) (Output[string], error) {
	return resolve(ctx, sess, "callback", c.cfg, func(ctx context.Context, sess *chat.Session, _ int) (Output[string], string, error) {
		text, err := c.fn(ctx, sess)
		if err != nil {
			return Output[string]{}, "", err
		}
		return Output[string]{Content: text}, text, nil
	})
}
