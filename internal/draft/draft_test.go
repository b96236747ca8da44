package draft

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state", "draft.json"))
	require.NoError(t, err)
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newStore(t)

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	d := Draft{
		SessionID:   "sess-1",
		Category:    "cheating",
		Description: "half-written report",
	}
	require.NoError(t, store.Save(d))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "half-written report", got.Description)
	assert.False(t, got.SavedAt.IsZero())
}

func TestFileStoreClear(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(Draft{Description: "x"}))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear()) // clearing twice is fine

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptDraftTreatedAsAbsent(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.path, []byte("{not json"), 0o600))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	// The corrupt file is gone afterwards.
	_, statErr := os.Stat(store.path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEmptyDraftNotOfferedBack(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(Draft{SessionID: "sess-1"})) // scope alone is not content

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaverPersistsPeriodically(t *testing.T) {
	store := newStore(t)

	var mu sync.Mutex
	current := Draft{}
	saver := NewSaver(store, 10*time.Millisecond, func() Draft {
		mu.Lock()
		defer mu.Unlock()
		return current
	}, slog.New(slog.DiscardHandler))
	saver.Start()
	defer saver.Stop()

	// Nothing typed yet: nothing saved.
	time.Sleep(50 * time.Millisecond)
	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	mu.Lock()
	current.Description = "student seen passing notes"
	mu.Unlock()

	require.Eventually(t, func() bool {
		got, ok, err := store.Load()
		return err == nil && ok && got.Description == "student seen passing notes"
	}, 2*time.Second, 10*time.Millisecond)
}

type failingStore struct{ calls int }

func (f *failingStore) Load() (Draft, bool, error) { return Draft{}, false, nil }
func (f *failingStore) Save(Draft) error           { f.calls++; return os.ErrPermission }
func (f *failingStore) Clear() error               { return nil }

func TestSaverSwallowsFailures(t *testing.T) {
	store := &failingStore{}
	saver := NewSaver(store, time.Hour, func() Draft {
		return Draft{Description: "x"}
	}, slog.New(slog.DiscardHandler))

	// Must not panic or propagate.
	saver.Flush()
	saver.Flush()
	assert.Equal(t, 2, store.calls)
}
