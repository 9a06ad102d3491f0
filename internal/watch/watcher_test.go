package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changed <- struct{}{} })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0644))

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestRelevantIgnoresHiddenEntries(t *testing.T) {
	w := &Watcher{}
	assert.False(t, w.relevant(fsnotify.Event{Name: "/d/.rename_to_nfc-1.sh", Op: fsnotify.Create}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Rename}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Chmod}))
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), 0, nil)
	assert.Error(t, err)
}
