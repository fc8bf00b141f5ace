package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/romshark/msgextract/internal/watch"
)

func TestRun(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch.Run(ctx, root, watch.Options{
			Debounce: 20 * time.Millisecond,
			Ignore: func(path string) bool {
				return strings.HasSuffix(path, ".pot")
			},
		}, func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		})
	}()

	next := func(t *testing.T) []string {
		t.Helper()
		select {
		case c := <-calls:
			return c
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for run")
			return nil
		}
	}

	// waitFor skips batches until one contains path.
	waitFor := func(t *testing.T, path string) []string {
		t.Helper()
		for {
			if c := next(t); slices.Contains(c, path) {
				return c
			}
		}
	}

	require.Nil(t, next(t), "first run has no changes")

	ignored := filepath.Join(root, "messages.pot")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0o644))
	file := filepath.Join(root, "a.js")
	require.NoError(t, os.WriteFile(file, []byte("t('a')"), 0o644))
	require.NotContains(t, waitFor(t, file), ignored)

	dir := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(dir, 0o755))
	waitFor(t, dir)

	nested := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(nested, []byte("t('b')"), 0o644))
	waitFor(t, nested)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}
}

func TestRunMissingRoot(t *testing.T) {
	t.Parallel()
	err := watch.Run(context.Background(), filepath.Join(t.TempDir(), "missing"),
		watch.Options{}, func(context.Context, []string) error { return nil })
	require.Error(t, err)
}
