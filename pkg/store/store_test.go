package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftworks/loom/pkg/chat"
)

func sampleSession() *chat.Session {
	return chat.NewSession(chat.WithSessionVars(map[string]any{"topic": "Go"})).
		AddMessage(chat.NewSystem("You are a tutor.")).
		AddMessage(chat.NewUser("What is a slice?"))
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"file":   NewFileStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sess := sampleSession()

			require.NoError(t, s.Save(ctx, "alpha", sess))

			loaded, err := s.Load(ctx, "alpha")
			require.NoError(t, err)
			require.Equal(t, sess.Len(), loaded.Len())

			orig := sess.Messages()
			got := loaded.Messages()
			for i := range orig {
				require.Equal(t, orig[i].ID, got[i].ID)
				require.Equal(t, orig[i].Kind, got[i].Kind)
				require.Equal(t, orig[i].Content, got[i].Content)
			}

			topic, ok := loaded.Var("topic")
			require.True(t, ok)
			require.Equal(t, "Go", topic)
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(context.Background(), "ghost")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "gone", sampleSession()))
			require.NoError(t, s.Delete(ctx, "gone"))
			require.NoError(t, s.Delete(ctx, "gone"))

			_, err := s.Load(ctx, "gone")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_ListSorted(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, "beta", sampleSession()))
			require.NoError(t, s.Save(ctx, "alpha", sampleSession()))

			ids, err := s.List(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"alpha", "beta"}, ids)
		})
	}
}

func TestFileStore_EmptyIDRejected(t *testing.T) {
	s := NewFileStore(t.TempDir())
	require.Error(t, s.Save(context.Background(), "", sampleSession()))
	_, err := s.Load(context.Background(), "")
	require.Error(t, err)
}
