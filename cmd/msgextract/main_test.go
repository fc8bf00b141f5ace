package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/romshark/msgextract/catalog"
)

const testConfig = `output: locale/messages.pot
headers:
  - name: Project-Id-Version
    value: example 1.0
js:
  - files: ["src/**/*.js"]
    extractors:
      - callee: ["t"]
        arguments:
          text: 0
          text_plural: 1
        comments:
          other_line_leading: true
html:
  - files: ["*.html"]
    extractors:
      - selector: h1
      - kind: interpolation
        extractors:
          - callee: ["t"]
`

func testSetup(t *testing.T, extra map[string]string) string {
	files := map[string]string{
		".msgextract.yaml": testConfig,
		"src/app.js": `// Shown in the toolbar.
t('Save');
t('File', 'Files');
`,
		"index.html": "<h1>Welcome</h1>\n<p>{{ t('Save') }}</p>\n",
	}
	for k, v := range extra {
		files[k] = v
	}
	return CreateSetup(t, files)
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var o, e bytes.Buffer
	err = run(context.Background(), args, &o, &e)
	return o.String(), e.String(), err
}

func TestExtract(t *testing.T) {
	t.Parallel()
	root := testSetup(t, nil)
	cfg := filepath.Join(root, ".msgextract.yaml")

	_, _, err := runCmd(t, "extract", "--config", cfg, "-q")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "locale", "messages.pot"))
	require.NoError(t, err)
	require.Equal(t, `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"
"Project-Id-Version: example 1.0\n"

#: src/app.js:3
msgid "File"
msgid_plural "Files"
msgstr[0] ""
msgstr[1] ""

#. Shown in the toolbar.
#: index.html:2
#: src/app.js:2
msgid "Save"
msgstr ""

#: index.html:1
msgid "Welcome"
msgstr ""
`, string(b))

	_, stderr, err := runCmd(t, "extract", "--config", cfg)
	require.NoError(t, err)
	require.Contains(t, stderr, "Unchanged:")
	require.Contains(t, stderr, "Messages:                3\n")
}

func TestExtractLocale(t *testing.T) {
	t.Parallel()
	root := testSetup(t, nil)
	out := filepath.Join(root, "de.po")
	_, _, err := runCmd(t, "extract", "-q",
		"--config", filepath.Join(root, ".msgextract.yaml"),
		"--locale", "de", "--output", out)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), `"Language: de\n"`)
	require.Contains(t, string(b), `"Plural-Forms: nplurals=2; plural=(n != 1);\n"`)
}

func TestExtractSourceErrors(t *testing.T) {
	t.Parallel()
	root := testSetup(t, map[string]string{"src/broken.js": "t('Broken'"})
	cfg := filepath.Join(root, ".msgextract.yaml")

	_, stderr, err := runCmd(t, "extract", "-q", "--config", cfg)
	require.ErrorIs(t, err, ErrSourceErrors)
	require.Contains(t, stderr, "SOURCE ERRORS (1):\n src/broken.js:")
	require.NoFileExists(t, filepath.Join(root, "locale", "messages.pot"))

	_, _, err = runCmd(t, "extract", "-q", "--config", cfg, "--keep-going")
	require.ErrorIs(t, err, ErrSourceErrors)
	b, err := os.ReadFile(filepath.Join(root, "locale", "messages.pot"))
	require.NoError(t, err)
	require.Contains(t, string(b), `msgid "Welcome"`)
	require.NotContains(t, string(b), `msgid "Broken"`)
}

func TestLint(t *testing.T) {
	t.Parallel()
	root := testSetup(t, nil)
	cfg := filepath.Join(root, ".msgextract.yaml")

	_, _, err := runCmd(t, "lint", "-q", "--config", cfg)
	require.ErrorIs(t, err, ErrOutdated, "missing catalog")

	_, _, err = runCmd(t, "extract", "-q", "--config", cfg)
	require.NoError(t, err)
	_, _, err = runCmd(t, "lint", "-q", "--config", cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.js"),
		[]byte("t('Save');\nt('Open');\n"), 0o644))
	stdout, _, err := runCmd(t, "lint", "-q", "--config", cfg)
	require.ErrorIs(t, err, ErrOutdated)
	require.Equal(t, "+ \"Open\"\n- \"File\"\n~ \"Save\"\n", stdout)
}

func TestLintLocaleTranslated(t *testing.T) {
	t.Parallel()
	root := testSetup(t, nil)
	cfg := filepath.Join(root, ".msgextract.yaml")
	out := filepath.Join(root, "de.po")
	args := []string{"--config", cfg, "--locale", "de", "--output", out}

	_, _, err := runCmd(t, append([]string{"extract", "-q"}, args...)...)
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	translated := strings.Replace(string(b),
		"msgid \"Welcome\"\nmsgstr \"\"", "msgid \"Welcome\"\nmsgstr \"Willkommen\"", 1)
	require.NotEqual(t, string(b), translated)
	require.NoError(t, os.WriteFile(out, []byte(translated), 0o644))

	_, _, err = runCmd(t, append([]string{"lint", "-q"}, args...)...)
	require.NoError(t, err)

	_, _, err = runCmd(t, append([]string{"extract", "-q"}, args...)...)
	require.NoError(t, err)
	b, err = os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, translated, string(b))
}

func TestPluralWarnings(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{
		`a.go:1, b.go:2: plural "many files" has no quantity placeholder`,
	}, pluralWarnings([]catalog.Message{
		{Text: "%d file", TextPlural: "%d files", Flags: []string{"go-format"}},
		{
			Text:       "one file",
			TextPlural: "many files",
			References: []string{"a.go:1", "b.go:2"},
			Flags:      []string{"go-format"},
		},
		{Text: "a file", TextPlural: "files"},
		{Text: "%s", Flags: []string{"go-format"}},
	}))
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()
	root := CreateSetup(t, map[string]string{".msgextract.yaml": "output: x.pot\n"})
	_, _, err := runCmd(t, "extract", "-q", "--config", filepath.Join(root, ".msgextract.yaml"))
	require.Error(t, err)

	_, _, err = runCmd(t, "extract", "-q", "--config", filepath.Join(root, "missing.yaml"))
	require.Error(t, err)

	_, _, err = runCmd(t, "extract", "-q", "-v")
	require.Error(t, err)

	_, _, err = runCmd(t, "unknown")
	require.Error(t, err)
}

func CreateSetup(t *testing.T, fileMap map[string]string) string {
	t.Helper()
	root := t.TempDir()

	for path, content := range fileMap {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("failed to create directories for %s: %v", fullPath, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write file %s: %v", fullPath, err)
		}
	}

	return root
}
