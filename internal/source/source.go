// Package source discovers and reads the input files of an extraction run.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/romshark/msgextract/catalog"
)

var ErrNoPatterns = errors.New("no file patterns")

// IgnoredDirs are never descended into.
var IgnoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
}

// Options configure Glob.
type Options struct {
	// Exclude holds additional gitignore style patterns of files to skip.
	Exclude []string

	// IgnoreGitignore disables honoring the .gitignore file in the root.
	IgnoreGitignore bool
}

// Glob returns the paths of all files under root matching any of the
// gitignore style patterns, for example `src/**/*.js` or `*.html`,
// in lexical order.
func Glob(root string, patterns []string, opts Options) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: %w", catalog.ErrConfig, ErrNoPatterns)
	}
	include := ignore.CompileIgnoreLines(patterns...)
	var exclude []*ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		exclude = append(exclude, ignore.CompileIgnoreLines(opts.Exclude...))
	}
	if !opts.IgnoreGitignore {
		if gi := loadGitignore(root); gi != nil {
			exclude = append(exclude, gi)
		}
	}
	excluded := func(rel string) bool {
		return slices.ContainsFunc(exclude, func(g *ignore.GitIgnore) bool {
			return g.MatchesPath(rel)
		})
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if IgnoredDirs[d.Name()] || excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if include.MatchesPath(rel) && !excluded(rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return paths, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	p := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(p); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(p)
	if err != nil {
		return nil
	}
	return gi
}

// File is a read input file.
type File struct {
	Path    string
	Content []byte
}

// Read reads the files at paths using up to workers concurrent reads
// (the number of CPUs if workers < 1) and returns them in the order of paths.
func Read(ctx context.Context, paths []string, workers int) ([]File, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	files := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(p)
			if err != nil {
				return &catalog.SourceError{Filename: p, Err: err}
			}
			files[i] = File{Path: p, Content: b}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
