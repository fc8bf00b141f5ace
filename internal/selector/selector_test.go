package selector_test

import (
	"strings"
	"testing"

	"github.com/romshark/msgextract/internal/selector"
	"github.com/stretchr/testify/require"
)

type element struct {
	tag   string
	attrs map[string]string
}

func (e element) TagName() string { return e.tag }

func (e element) Attribute(name string) (string, bool) {
	for k, v := range e.attrs {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func el(tag string, attrs ...string) element {
	e := element{tag: tag, attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.attrs[attrs[i]] = attrs[i+1]
	}
	return e
}

func TestMatchAny(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, expect bool, sel string, e element) {
		t.Helper()
		set, err := selector.Parse(sel)
		require.NoError(t, err)
		require.Equal(t, expect, set.MatchAny(e))
	}

	f(t, true, "div", el("DIV"))
	f(t, false, "span", el("div"))
	f(t, true, "*", el("span"))
	f(t, true, "#main", el("div", "id", "main"))
	f(t, false, "#Main", el("div", "id", "main"))
	f(t, true, ".a.b", el("p", "class", "b  c a"))
	f(t, false, ".a.b", el("p", "class", "a"))
	f(t, true, "[translate]", el("p", "translate", ""))
	f(t, true, "[TRANSLATE]", el("p", "translate", ""))
	f(t, false, "[translate]", el("p"))
	f(t, true, "[lang=en]", el("p", "lang", "en"))
	f(t, true, `[title="a b"]`, el("p", "title", "a b"))
	f(t, false, "[lang=en]", el("p", "lang", "EN"))
	f(t, true, "[data-x^=foo]", el("p", "data-x", "foobar"))
	f(t, true, "[data-x$=bar]", el("p", "data-x", "foobar"))
	f(t, true, "[data-x*=ob]", el("p", "data-x", "foobar"))
	f(t, false, "[data-x*=zz]", el("p", "data-x", "foobar"))
	f(t, true, "[data-x=/^fo+b/]", el("p", "data-x", "foobar"))
	f(t, true, "[data-x=/^FOO/i]", el("p", "data-x", "foobar"))
	f(t, false, "[data-x=/^bar/]", el("p", "data-x", "foobar"))
	f(t, true, "a.link#x[href^='https:']", el("a",
		"class", "link", "id", "x", "href", "https://x"))
	f(t, true, "span, div[translate]", el("div", "translate", "yes"))
	f(t, false, "span, div[translate]", el("div"))
}

func TestMatchAll(t *testing.T) {
	t.Parallel()
	set := selector.MustParse("[translate], .i18n")
	require.True(t, set.MatchAll(el("p", "translate", "", "class", "i18n")))
	require.False(t, set.MatchAll(el("p", "translate", "")))
	require.True(t, set.MatchAny(el("p", "translate", "")))
	require.Panics(t, func() { selector.MustParse("div p") })
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	f := func(t *testing.T, expect error, sel string) {
		t.Helper()
		_, err := selector.Parse(sel)
		require.ErrorIs(t, err, expect)
	}

	f(t, selector.ErrEmpty, "")
	f(t, selector.ErrEmpty, "div,")
	f(t, selector.ErrMultiLevel, "div p")
	f(t, selector.ErrMultiLevel, "div > p")
	f(t, selector.ErrMultiLevel, "div+p")
	f(t, selector.ErrMultiLevel, "ul ~ li")
	f(t, selector.ErrSyntax, "[")
	f(t, selector.ErrSyntax, "[a~=b]")
	f(t, selector.ErrSyntax, "[a=")
	f(t, selector.ErrSyntax, "[a='b]")
	f(t, selector.ErrSyntax, "[a=/(/]")
	f(t, selector.ErrSyntax, "#a#b")
	f(t, selector.ErrSyntax, "div!")
}
