package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevantEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		only  string
		want  bool
	}{
		{"yaml write in dir", fsnotify.Event{Name: "/d/a.yaml", Op: fsnotify.Write}, "", true},
		{"json create in dir", fsnotify.Event{Name: "/d/a.JSON", Op: fsnotify.Create}, "", true},
		{"other extension", fsnotify.Event{Name: "/d/a.txt", Op: fsnotify.Write}, "", false},
		{"chmod ignored", fsnotify.Event{Name: "/d/a.yaml", Op: fsnotify.Chmod}, "", false},
		{"watched file", fsnotify.Event{Name: "/d/tokens.yaml", Op: fsnotify.Write}, "/d/tokens.yaml", true},
		{"sibling file", fsnotify.Event{Name: "/d/other.yaml", Op: fsnotify.Write}, "/d/tokens.yaml", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevantEvent(tt.event, tt.only))
		})
	}
}

func TestWatchAndIndex_ReindexesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- id: a\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchAndIndex(ctx, path, func() { runs.Add(1) })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("- id: b\n"), 0o600))
	}

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.LessOrEqual(t, runs.Load(), int32(2))
}

func TestWatchAndIndex_MissingPath(t *testing.T) {
	err := watchAndIndex(context.Background(), filepath.Join(t.TempDir(), "missing"), func() {})
	assert.Error(t, err)
}
