package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New("prompts", nil, 0, func([]string) {}, nil)
	assert.ErrorContains(t, err, "no files to watch")

	_, err = New("prompts", []string{"a.md"}, 0, nil, nil)
	assert.ErrorContains(t, err, "callback is required")

	w, err := New("prompts", []string{"a.md", ""}, 0, func([]string) {}, nil)
	require.NoError(t, err)
	assert.Len(t, w.Files(), 1)
	assert.True(t, filepath.IsAbs(w.Files()[0]))
	assert.Equal(t, defaultDebounce, w.debounce)
}

func TestFileWatcherReportsChangedFile(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "system.md")
	other := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(watched, []byte("v1"), 0600))

	var (
		mu      sync.Mutex
		changes [][]string
	)
	w, err := New("prompts", []string{watched}, 20*time.Millisecond, func(changed []string) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, changed)
	}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "second start fails")

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0600))
	require.NoError(t, os.WriteFile(watched, []byte("v2"), 0600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(watched, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{watched}, changes[0])
	mu.Unlock()
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New("tls", []string{filepath.Join(dir, "cert.pem")}, time.Millisecond, func([]string) {}, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop())
}
