package jsparser_test

import (
	"context"
	"testing"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/jsparser"
	"github.com/stretchr/testify/require"
)

func comments(t *testing.T, opts jsparser.CommentOptions, src string) map[string][]string {
	t.Helper()
	x := callExtractor(t, []string{"t"}, jsparser.CallOptions{Comments: opts})
	m := map[string][]string{}
	for _, msg := range extract(t, "test.js", src, x) {
		m[msg.Text] = msg.Comments
	}
	return m
}

var allComments = jsparser.CommentOptions{
	OtherLineLeading: true,
	SameLineLeading:  true,
	SameLineTrailing: true,
}

func TestCommentPlacement(t *testing.T) {
	t.Parallel()
	src := `// other line
t('a'); // trailing
/* same line */ t('b');
/*
  multi
*/
t('c');
foo(); // belongs to foo
t('d');
const x = t('e'); // declaration
const y = cond
	// ternary
	? t('f')
	: t('g');
function z() {
	return t('h'); // return
}
`
	require.Equal(t, map[string][]string{
		"a": {"other line", "trailing"},
		"b": {"same line"},
		"c": nil,
		"d": nil,
		"e": {"declaration"},
		"f": {"ternary"},
		"g": nil,
		"h": {"return"},
	}, comments(t, allComments, src))
}

func TestCommentKinds(t *testing.T) {
	t.Parallel()
	src := `// above
/* before */ t('a'); // after
`
	f := func(t *testing.T, expect []string, opts jsparser.CommentOptions) {
		t.Helper()
		require.Equal(t, expect, comments(t, opts, src)["a"])
	}
	f(t, nil, jsparser.CommentOptions{})
	f(t, []string{"above"}, jsparser.CommentOptions{OtherLineLeading: true})
	f(t, []string{"before"}, jsparser.CommentOptions{SameLineLeading: true})
	f(t, []string{"after"}, jsparser.CommentOptions{SameLineTrailing: true})
	f(t, []string{"above", "before", "after"}, allComments)
}

func TestCommentListElements(t *testing.T) {
	t.Parallel()
	src := `foo(
	// first
	t('a'), // trailing a
	t('b') // trailing b
);
const list = [
	t('c'), // trailing c
	t('d'), t('e'), // shared
];
const obj = {
	key: t('f'), // trailing f
};
let p = t('g'), // trailing g
	q = t('h');
`
	require.Equal(t, map[string][]string{
		"a": {"first", "trailing a"},
		"b": {"trailing b"},
		"c": {"trailing c"},
		"d": nil,
		"e": nil,
		"f": {"trailing f"},
		"g": {"trailing g"},
		"h": nil,
	}, comments(t, allComments, src))
}

func TestCommentRegex(t *testing.T) {
	t.Parallel()
	src := `t('a'); // i18n: hello
t('b'); // unrelated
t('c'); // i18n:
`
	m := comments(t, jsparser.CommentOptions{
		SameLineTrailing: true, Regex: `^i18n:\s*(.*)$`,
	}, src)
	require.Equal(t, []string{"hello"}, m["a"])
	require.Nil(t, m["b"])
	require.Equal(t, []string{""}, m["c"])

	m = comments(t, jsparser.CommentOptions{
		SameLineTrailing: true, Regex: `^i18n`,
	}, src)
	require.Equal(t, []string{"i18n: hello"}, m["a"])
	require.Nil(t, m["b"])
}

func TestCommentsMergeAcrossUsages(t *testing.T) {
	t.Parallel()
	x := callExtractor(t, []string{"t"}, jsparser.CallOptions{Comments: allComments})
	b := catalog.NewBuilder(nil)
	p := jsparser.New(b, []jsparser.Extractor{x})
	ctx := context.Background()
	require.NoError(t, p.ParseString(ctx, "t('a'); // one\nt('a'); // two\n", "a.js",
		jsparser.ParseOptions{}))
	require.NoError(t, p.ParseString(ctx, "t('a'); // one\n", "b.js",
		jsparser.ParseOptions{}))
	m := b.Messages()
	require.Len(t, m, 1)
	require.Equal(t, []string{"one", "two"}, m[0].Comments)
	require.Equal(t, []string{"a.js:1", "a.js:2", "b.js:1"}, m[0].References)
}
