package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherCollapsesBurstIntoOneReload(t *testing.T) {
	dir := t.TempDir()
	var reloads int32
	w, err := NewSpellWatcher(dir, 50, func() {
		atomic.AddInt32(&reloads, 1)
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Simulate an editor save sequence: several rapid writes.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "files.yml"), []byte("id: files\n"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&reloads) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// The burst settles into a single reload.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&reloads))
}

func TestWatcherIgnoresNonSpellFiles(t *testing.T) {
	dir := t.TempDir()
	var reloads int32
	w, err := NewSpellWatcher(dir, 20, func() {
		atomic.AddInt32(&reloads, 1)
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&reloads))
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := NewSpellWatcher(filepath.Join(t.TempDir(), "missing"), 50, func() {})
	require.Error(t, err)
}
