package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/weftworks/loom/pkg/chat"
)

// FileStore implements Store on the local filesystem, one JSON file per
// session.
type FileStore struct {
	basePath string
}

// NewFileStore creates a file store rooted at basePath. If basePath is empty,
// it defaults to ".loom/sessions".
func NewFileStore(basePath string) *FileStore {
	if basePath == "" {
		basePath = filepath.Join(".loom", "sessions")
	}
	return &FileStore{basePath: basePath}
}

// Save persists the session as an indented JSON file.
func (f *FileStore) Save(_ context.Context, id string, sess *chat.Session) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if err := os.MkdirAll(f.basePath, 0o755); err != nil {
		return fmt.Errorf("ensuring session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := os.WriteFile(f.path(id), data, 0o644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// Load reads a session back from disk.
func (f *FileStore) Load(_ context.Context, id string) (*chat.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var sess chat.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session file. Deleting a missing session is not an
// error.
func (f *FileStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if err := os.Remove(f.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting session file: %w", err)
	}
	return nil
}

// List returns the stored session IDs in sorted order.
func (f *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := entry.Name()
		ids = append(ids, name[:len(name)-len(".json")])
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.basePath, id+".json")
}
