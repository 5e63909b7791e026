package chat

import (
	"encoding/json"
)

// Session is an immutable, append-only conversation record: an ordered
// message transcript plus a variable store used for interpolation and
// inter-template data passing.
//
// Every mutating operation returns a new Session; the receiver is never
// modified. This makes it safe to hold onto any Session value indefinitely
// (e.g. the parent session while a subroutine runs against a derived child).
type Session struct {
	messages []Message
	vars     map[string]any
}

// SessionOption seeds a new session.
type SessionOption func(*Session)

// WithMessages seeds the session with an initial transcript.
func WithMessages(msgs ...Message) SessionOption {
	return func(s *Session) {
		s.messages = append(s.messages, msgs...)
	}
}

// WithSessionVars seeds the session variable store.
func WithSessionVars(vars map[string]any) SessionOption {
	return func(s *Session) {
		for k, v := range vars {
			s.vars[k] = v
		}
	}
}

// NewSession creates an empty session, optionally seeded.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		vars: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMessage returns a new session with the message appended.
func (s *Session) AddMessage(msg Message) *Session {
	next := s.clone()
	next.messages = append(next.messages, msg)
	return next
}

// AddMessages returns a new session with all messages appended in order.
func (s *Session) AddMessages(msgs ...Message) *Session {
	next := s.clone()
	next.messages = append(next.messages, msgs...)
	return next
}

// WithVars returns a new session with the given variables shallow-merged over
// the existing ones. Incoming keys win on conflict.
func (s *Session) WithVars(vars map[string]any) *Session {
	next := s.clone()
	for k, v := range vars {
		next.vars[k] = v
	}
	return next
}

// WithVar returns a new session with a single variable set.
func (s *Session) WithVar(key string, value any) *Session {
	return s.WithVars(map[string]any{key: value})
}

// Messages returns a copy of the transcript in order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (s *Session) Len() int {
	return len(s.messages)
}

// LastMessage returns the most recent message, if any.
func (s *Session) LastMessage() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// MessagesByKind returns all messages of the given kind, in transcript order.
func (s *Session) MessagesByKind(kind Kind) []Message {
	var out []Message
	for _, m := range s.messages {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// Vars returns a shallow copy of the variable store.
func (s *Session) Vars() map[string]any {
	out := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Var resolves a dotted path (e.g. "user.name") against the variable store.
func (s *Session) Var(path string) (any, bool) {
	return lookupPath(s.vars, path)
}

// Interpolate resolves ${dotted.path} references in text against the
// session's variables. Unresolved references become empty strings.
func (s *Session) Interpolate(text string) string {
	return Interpolate(text, s.vars)
}

// MarshalJSON serializes the session as {"messages": [...], "vars": {...}}.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Messages []Message      `json:"messages"`
		Vars     map[string]any `json:"vars"`
	}{
		Messages: s.messages,
		Vars:     s.vars,
	})
}

// UnmarshalJSON restores a session serialized by MarshalJSON.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw struct {
		Messages []Message      `json:"messages"`
		Vars     map[string]any `json:"vars"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.messages = raw.Messages
	s.vars = raw.Vars
	if s.vars == nil {
		s.vars = make(map[string]any)
	}
	return nil
}

// clone copies the transcript slice header and the top level of the var map.
// Message values themselves are immutable, so a shallow copy suffices.
func (s *Session) clone() *Session {
	next := &Session{
		messages: make([]Message, len(s.messages)),
		vars:     make(map[string]any, len(s.vars)),
	}
	copy(next.messages, s.messages)
	for k, v := range s.vars {
		next.vars[k] = v
	}
	return next
}
