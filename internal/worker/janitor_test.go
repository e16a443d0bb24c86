package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitorSweep(t *testing.T) {
	t.Run("removes stale entries and keeps fresh ones", func(t *testing.T) {
		dir := t.TempDir()

		stale := filepath.Join(dir, "old-job")
		require.NoError(t, os.MkdirAll(stale, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(stale, "clip.mp4"), []byte("x"), 0o644))
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		fresh := filepath.Join(dir, "new-job")
		require.NoError(t, os.MkdirAll(fresh, 0o755))

		j := NewJanitor(dir, time.Hour, 24*time.Hour)
		j.sweep(context.Background())

		assert.NoDirExists(t, stale)
		assert.DirExists(t, fresh)
	})

	t.Run("missing scratch root is not an error", func(t *testing.T) {
		j := NewJanitor(filepath.Join(t.TempDir(), "nope"), time.Hour, time.Hour)
		j.sweep(context.Background())
	})

	t.Run("start runs an initial sweep and stop waits", func(t *testing.T) {
		dir := t.TempDir()
		stale := filepath.Join(dir, "debris")
		require.NoError(t, os.MkdirAll(stale, 0o755))
		old := time.Now().Add(-2 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		j := NewJanitor(dir, time.Hour, time.Hour)
		j.Start(context.Background())
		j.Stop()

		assert.NoDirExists(t, stale)
	})
}

func TestPool(t *testing.T) {
	t.Run("rejects when queue is full", func(t *testing.T) {
		p := NewPool(0, 1) // no workers drain the queue

		ok := p.TryEnqueue(jobFunc(func(context.Context) error { return nil }))
		assert.True(t, ok)
		ok = p.TryEnqueue(jobFunc(func(context.Context) error { return nil }))
		assert.False(t, ok)
	})

	t.Run("processes queued jobs", func(t *testing.T) {
		p := NewPool(2, 4)
		p.Start()

		done := make(chan struct{}, 3)
		for i := 0; i < 3; i++ {
			ok := p.TryEnqueue(jobFunc(func(context.Context) error {
				done <- struct{}{}
				return nil
			}))
			require.True(t, ok)
		}

		for i := 0; i < 3; i++ {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("job was not processed")
			}
		}
		p.Stop()
	})
}

type jobFunc func(ctx context.Context) error

func (f jobFunc) Process(ctx context.Context) error { return f(ctx) }
