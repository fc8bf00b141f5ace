package content_test

import (
	"testing"

	"github.com/romshark/msgextract/content"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, expect, input string, opts content.Options) {
		t.Helper()
		require.Equal(t, expect, content.Normalize(input, opts))
	}

	trim := content.Options{TrimWhiteSpace: true}
	f(t, "", "", trim)
	f(t, "foo", "  foo \n", trim)
	f(t, "foo\nbar", "\n\n  foo\r\n\t bar\n\n", trim)

	trimPreserve := content.Options{TrimWhiteSpace: true, PreserveIndentation: true}
	f(t, "  foo\n    bar", "\n\r\n  foo\n    bar  \n\n", trimPreserve)
	f(t, "  foo", "  foo", trimPreserve)
	f(t, "    Hello", "   \n    Hello\n", trimPreserve)
	f(t, "\tx\n  y", " \t\n\n\tx\n  y\n", trimPreserve)

	deindent := content.Options{}
	f(t, "foo\nbar \n", "  foo\n\tbar \n", deindent)

	preserve := content.Options{PreserveIndentation: true}
	f(t, "\n  foo\n", "\r\n  foo\r", preserve)

	f(t, "foo bar", "\n  foo\n  bar\n", content.Options{
		TrimWhiteSpace: true, ReplaceNewLines: ptr(" "),
	})
	f(t, "foobar", "foo\nbar", content.Options{ReplaceNewLines: ptr("")})
	f(t, "foo\n  bar", `
		foo
		  bar
	`, content.Options{Dedent: true, PreserveIndentation: true})
}

func TestDedent(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, expect, input string) {
		t.Helper()
		require.Equal(t, expect, content.Dedent(input))
	}

	f(t, "", ``)
	f(t, "foo", `foo`)
	f(t, "foo", ` foo `)
	f(t, "foo\n\tbar", `foo
	bar`)
	f(t, "foo", `

		foo

`)
	f(t, "foo\nbar", `
		  foo
		  bar
	`)
	f(t, "foo\n\nbar", `
		foo

		bar
	`)
	f(t, "foo\n bar\nbazz", `
		foo
		 bar
		bazz
	`)
	f(t, "foo\n\t\t bar\n\t\tbazz", `foo
		 bar
		bazz
`)
}
