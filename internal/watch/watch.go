// Package watch re-runs a function whenever files in a directory tree change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/romshark/msgextract/internal/source"
)

// DefaultDebounce is the quiet period after the last change before fn re-runs.
const DefaultDebounce = 200 * time.Millisecond

type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Ignore reports whether changes of path are ignored, for example
	// the output file. Directories in source.IgnoredDirs are never watched.
	Ignore func(path string) bool

	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Run calls fn once and then again after every batch of changes under root
// until ctx is canceled. changed holds the sorted paths of a batch and is nil
// for the first call. Errors returned by fn are logged and don't stop Run.
func Run(
	ctx context.Context, root string, opts Options,
	fn func(ctx context.Context, changed []string) error,
) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()
	w := watcher{fsw: fw, ignore: opts.Ignore}
	if err := w.addTree(root); err != nil {
		return err
	}

	run := func(changed []string) {
		if err := fn(ctx, changed); err != nil && ctx.Err() == nil {
			log.Error("run failed", zap.Error(err))
		}
	}
	run(nil)

	pending := make(map[string]struct{})
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if e.Op == fsnotify.Chmod || w.ignored(e.Name) {
				continue
			}
			if e.Has(fsnotify.Create) {
				if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
					if err := w.addTree(e.Name); err != nil {
						log.Warn("watching new directory", zap.Error(err))
					}
				}
			}
			pending[e.Name] = struct{}{}
			fire = time.After(opts.Debounce)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)
			log.Debug("files changed", zap.Strings("paths", changed))
			run(changed)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

type watcher struct {
	fsw    *fsnotify.Watcher
	ignore func(string) bool
}

func (w watcher) ignored(path string) bool {
	return w.ignore != nil && w.ignore(path)
}

// addTree watches dir and all of its subdirectories.
func (w watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (source.IgnoredDirs[d.Name()] || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
