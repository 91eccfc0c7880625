package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

type recordingImporter struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingImporter) ImportFiles(_ context.Context, paths []string) (*domain.ImportReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
	return &domain.ImportReport{Files: paths, Imported: 1}, nil
}

func (r *recordingImporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestNew(t *testing.T) {
	w := New(&recordingImporter{}, []string{"a/../doc.json"})

	require.Len(t, w.paths, 1)
	assert.True(t, filepath.IsAbs(w.paths[0]))
	assert.Equal(t, "doc.json", filepath.Base(w.paths[0]))
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestWithDebounce(t *testing.T) {
	assert.Equal(t, time.Second, New(nil, nil, WithDebounce(time.Second)).debounce)
	assert.Equal(t, DefaultDebounce, New(nil, nil, WithDebounce(0)).debounce)
}

func TestWatcher_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "structure.json")
	other := filepath.Join(dir, "notes.txt")
	w := New(&recordingImporter{}, []string{watched})

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create watched", fsnotify.Event{Name: watched, Op: fsnotify.Create}, true},
		{"write watched", fsnotify.Event{Name: watched, Op: fsnotify.Write}, true},
		{"rename watched", fsnotify.Event{Name: watched, Op: fsnotify.Rename}, true},
		{"write and chmod", fsnotify.Event{Name: watched, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: watched, Op: fsnotify.Chmod}, false},
		{"remove watched", fsnotify.Event{Name: watched, Op: fsnotify.Remove}, false},
		{"write other file", fsnotify.Event{Name: other, Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.handleFsEvent(tt.event))
		})
	}
}

func TestWatcher_Run_NoPaths(t *testing.T) {
	w := New(&recordingImporter{}, nil)
	assert.ErrorIs(t, w.Run(context.Background()), ErrNoPaths)
}

func TestWatcher_Run_MissingDirectory(t *testing.T) {
	w := New(&recordingImporter{}, []string{filepath.Join(t.TempDir(), "missing", "doc.json")})
	assert.Error(t, w.Run(context.Background()))
}

func TestWatcher_Run_ReimportsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "structure.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	importer := &recordingImporter{}
	reports := make(chan *domain.ImportReport, 4)
	w := New(importer, []string{path},
		WithDebounce(20*time.Millisecond),
		WithCallback(func(r *domain.ImportReport, err error) {
			assert.NoError(t, err)
			reports <- r
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(path, []byte(`{"chapters": []}`), 0o600))
		select {
		case r := <-reports:
			assert.Equal(t, []string{path}, r.Files)
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, importer.count(), 1)
}
