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

func TestWatcher_Run(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "pipeline.cue")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("a"), 0o600))

	w, err := New([]string{watched}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, []string{watched}, w.Files())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	for i := range 3 {
		require.NoError(t, os.WriteFile(watched, []byte{byte('b' + i)}, 0o600))
	}
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "gone", "pipeline.cue")})
	require.NoError(t, err)

	err = w.Run(context.Background(), func(context.Context) error { return nil })
	assert.Error(t, err)
}
