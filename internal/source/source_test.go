package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/internal/source"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestGlob(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":              "dist/\n*.min.js\n",
		"src/app.js":              "",
		"src/app.min.js":          "",
		"src/components/a.ts":     "",
		"src/components/a.css":    "",
		"src/legacy/old.js":       "",
		"dist/bundle.js":          "",
		"node_modules/lib/x.js":   "",
		"index.html":              "",
		"templates/page.html":     "",
		"templates/skip/page.htm": "",
	})

	paths, err := source.Glob(root, []string{"*.js", "*.ts", "*.html"},
		source.Options{Exclude: []string{"src/legacy/"}})
	require.NoError(t, err)
	require.Equal(t, []string{
		"index.html",
		"src/app.js",
		"src/components/a.ts",
		"templates/page.html",
	}, rel(t, root, paths))

	paths, err = source.Glob(root, []string{"src/**/*.js"},
		source.Options{IgnoreGitignore: true})
	require.NoError(t, err)
	require.Equal(t, []string{
		"src/app.js", "src/app.min.js", "src/legacy/old.js",
	}, rel(t, root, paths))
}

func TestGlobNoPatterns(t *testing.T) {
	t.Parallel()
	_, err := source.Glob(t.TempDir(), nil, source.Options{})
	require.ErrorIs(t, err, source.ErrNoPatterns)
	require.ErrorIs(t, err, catalog.ErrConfig)
}

func TestRead(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": "a", "b.js": "b", "c.js": "c"})
	paths := []string{
		filepath.Join(root, "c.js"), filepath.Join(root, "a.js"), filepath.Join(root, "b.js"),
	}
	files, err := source.Read(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		require.Equal(t, paths[i], f.Path)
	}
	require.Equal(t, "c", string(files[0].Content))

	_, err = source.Read(context.Background(),
		append(paths, filepath.Join(root, "missing.js")), 0)
	var srcErr *catalog.SourceError
	require.True(t, errors.As(err, &srcErr))
	require.ErrorIs(t, err, os.ErrNotExist)
}
