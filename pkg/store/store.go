// Package store persists session transcripts between runs.
package store

import (
	"context"
	"errors"

	"github.com/weftworks/loom/pkg/chat"
)

// ErrNotFound is returned when no session exists under the given ID.
var ErrNotFound = errors.New("session not found")

// Store persists sessions by ID.
type Store interface {
	Save(ctx context.Context, id string, sess *chat.Session) error
	Load(ctx context.Context, id string) (*chat.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
