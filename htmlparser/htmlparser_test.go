package htmlparser_test

import (
	"context"
	"testing"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/htmlparser"
	"github.com/romshark/msgextract/internal/selector"
	"github.com/romshark/msgextract/jsparser"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, src string, x ...htmlparser.Extractor) []catalog.Message {
	t.Helper()
	b := catalog.NewBuilder(nil)
	p := htmlparser.New(b, x)
	err := p.ParseString(context.Background(), src, "test.html", htmlparser.ParseOptions{})
	require.NoError(t, err)
	return b.Messages()
}

// scriptParser returns a JS parser extracting calls to t
// with all comments.
func scriptParser(t *testing.T) *jsparser.Parser {
	t.Helper()
	x, err := jsparser.CallExpression([]string{"t"}, jsparser.CallOptions{
		Comments: jsparser.CommentOptions{
			OtherLineLeading: true,
			SameLineLeading:  true,
			SameLineTrailing: true,
		},
	})
	require.NoError(t, err)
	return jsparser.New(nil, []jsparser.Extractor{x})
}

func TestElementContent(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementContent("[translate]", htmlparser.ElementOptions{
		Attributes: htmlparser.AttributeNames{
			TextPlural: "translate-plural",
			Context:    "translate-context",
			Comment:    "translate-comment",
		},
	})
	require.NoError(t, err)
	m := extract(t, `<div>
	<p translate>Hello</p>
	<span translate translate-plural="Apples" translate-context="Fruit" translate-comment="Shop">
		Apple
	</span>
	<p translate>  Multi
		line  </p>
	<p>ignored</p>
	<p translate></p>
	<p translate>Hello <b>World</b></p>
</div>`, x)
	require.Equal(t, []catalog.Message{
		{Text: "Hello", References: []string{"test.html:2"}},
		{Text: "Hello <b>World</b>", References: []string{"test.html:9"}},
		{Text: "Multi\nline", References: []string{"test.html:6"}},
		{
			Text:       "Apple",
			TextPlural: "Apples",
			Context:    "Fruit",
			References: []string{"test.html:3"},
			Comments:   []string{"Shop"},
		},
	}, m)
}

func TestElementAttribute(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementAttribute("img, input[type=text]", "alt",
		htmlparser.ElementOptions{})
	require.NoError(t, err)
	m := extract(t, `<img alt="Tom &amp; Jerry" src="a.png">
<img src="b.png">
<input type="text" alt='Name'>
<input type="submit" alt="Ignored">`, x)
	require.Equal(t, []catalog.Message{
		{Text: "Name", References: []string{"test.html:3"}},
		{Text: "Tom & Jerry", References: []string{"test.html:1"}},
	}, m)
}

func TestElementConfigErrors(t *testing.T) {
	t.Parallel()
	_, err := htmlparser.ElementContent("div p", htmlparser.ElementOptions{})
	require.ErrorIs(t, err, catalog.ErrConfig)
	require.ErrorIs(t, err, selector.ErrMultiLevel)

	_, err = htmlparser.ElementContent("", htmlparser.ElementOptions{})
	require.ErrorIs(t, err, catalog.ErrConfig)

	_, err = htmlparser.ElementAttribute("img", "", htmlparser.ElementOptions{})
	require.ErrorIs(t, err, catalog.ErrConfig)

	_, err = htmlparser.EmbeddedJS("script", nil)
	require.ErrorIs(t, err, catalog.ErrConfig)

	_, err = htmlparser.EmbeddedAttributeJS("(", scriptParser(t))
	require.ErrorIs(t, err, catalog.ErrConfig)

	_, err = htmlparser.Interpolation(scriptParser(t), "{{", "")
	require.ErrorIs(t, err, catalog.ErrConfig)
}

func TestEmbeddedJS(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.EmbeddedJS("script", scriptParser(t))
	require.NoError(t, err)
	m := extract(t, `<p>Hi</p>
<script>
	t('from script'); // trailing
</script>
<script></script>`, x)
	require.Equal(t, []catalog.Message{{
		Text:       "from script",
		References: []string{"test.html:3"},
		Comments:   []string{"trailing"},
	}}, m)
}

func TestEmbeddedJSSyntaxError(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.EmbeddedJS("script", scriptParser(t))
	require.NoError(t, err)
	p := htmlparser.New(catalog.NewBuilder(nil), []htmlparser.Extractor{x})
	err = p.ParseString(context.Background(), "<p></p>\n<script>\nconst = ;\n</script>",
		"test.html", htmlparser.ParseOptions{})
	require.ErrorIs(t, err, jsparser.ErrSyntax)
	var srcErr *catalog.SourceError
	require.ErrorAs(t, err, &srcErr)
	require.Equal(t, 3, srcErr.Line)
}

func TestEmbeddedAttributeJS(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.EmbeddedAttributeJS("^:", scriptParser(t))
	require.NoError(t, err)
	m := extract(t, `<div title="t('static')"
	:title="t('bound')"
	:label="t(&quot;quoted&quot;)"
></div>`, x)
	require.Equal(t, []catalog.Message{
		{Text: "bound", References: []string{"test.html:2"}},
		{Text: "quoted", References: []string{"test.html:3"}},
	}, m)
}

func TestInterpolation(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.Interpolation(scriptParser(t), "{{", "}}")
	require.NoError(t, err)
	m := extract(t, `<p>{{ t('one') }}</p>
<p>
	{{
		// comment for two
		t('two')
	}}
	{{ /* same */ t('three') }} {{ }} {{ unclosed
</p>`, x)
	require.Equal(t, []catalog.Message{
		{Text: "one", References: []string{"test.html:1"}},
		{Text: "three", References: []string{"test.html:7"}, Comments: []string{"same"}},
		{Text: "two", References: []string{"test.html:5"}, Comments: []string{"comment for two"}},
	}, m)
}

func TestStatistics(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementContent("p", htmlparser.ElementOptions{})
	require.NoError(t, err)
	stats := new(catalog.Statistics)
	p := htmlparser.New(catalog.NewBuilder(stats), []htmlparser.Extractor{x})
	ctx := context.Background()
	require.NoError(t, p.ParseString(ctx, "<p>a</p>", "a.html", htmlparser.ParseOptions{}))
	require.NoError(t, p.ParseString(ctx, "<div>b</div>", "b.html", htmlparser.ParseOptions{}))
	require.Equal(t, int64(2), stats.ParsedFiles.Load())
	require.Equal(t, int64(1), stats.ParsedFilesWithMsgs.Load())
}

func TestNoExtractors(t *testing.T) {
	t.Parallel()
	p := htmlparser.New(catalog.NewBuilder(nil), nil)
	err := p.ParseString(context.Background(), "<p>a</p>", "a.html", htmlparser.ParseOptions{})
	require.ErrorIs(t, err, catalog.ErrNoExtractors)
}

func TestLineNumberStart(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementContent("p", htmlparser.ElementOptions{})
	require.NoError(t, err)
	b := catalog.NewBuilder(nil)
	p := htmlparser.New(b, []htmlparser.Extractor{x})
	require.NoError(t, p.ParseString(context.Background(), "\n<p>a</p>", "a.html",
		htmlparser.ParseOptions{LineNumberStart: 20}))
	require.Equal(t, []string{"a.html:21"}, b.Messages()[0].References)
}

func TestMalformedMarkup(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementContent("[translate]", htmlparser.ElementOptions{})
	require.NoError(t, err)
	f := func(t *testing.T, expect, input string) {
		t.Helper()
		require.Equal(t, []catalog.Message{
			{Text: expect, References: []string{"test.html:1"}},
		}, extract(t, input, x))
	}

	f(t, "Tom & Jerry", "<p translate>Tom & Jerry</p>")
	f(t, "Next >", "<p translate>Next ></p>")
	f(t, "a < b", "<p translate>a < b</p>")
	f(t, "x", "<p translate>x</p></div>")
	f(t, "x", "</span><p translate>x</p>")
	f(t, "open", "<div><p translate>open")
	f(t, "<b>bold", "<p translate><b>bold</p>")
}

func TestImpliedEndTags(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementContent("li", htmlparser.ElementOptions{})
	require.NoError(t, err)
	m := extract(t, "<ul>\n<li>One\n<li>Two\n</ul>", x)
	require.Equal(t, []catalog.Message{
		{Text: "One", References: []string{"test.html:2"}},
		{Text: "Two", References: []string{"test.html:3"}},
	}, m)
}

func TestInterpolationOperators(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.Interpolation(scriptParser(t), "{{", "}}")
	require.NoError(t, err)
	m := extract(t, `<p>{{ n > 5 ? t('big') : t('small') }}</p>
<p>{{ xs.map(x => t('arrow')) }}</p>
<p>{{ a && t('and') }} & {{ a < b || t('less') }}</p>
<script>const s = "{{ t('script') }}"</script>`, x)
	require.Equal(t, []catalog.Message{
		{Text: "and", References: []string{"test.html:3"}},
		{Text: "arrow", References: []string{"test.html:2"}},
		{Text: "big", References: []string{"test.html:1"}},
		{Text: "less", References: []string{"test.html:3"}},
		{Text: "small", References: []string{"test.html:1"}},
	}, m)
}

func TestNodeBudget(t *testing.T) {
	t.Parallel()
	x, err := htmlparser.ElementContent("p", htmlparser.ElementOptions{})
	require.NoError(t, err)
	p := htmlparser.New(catalog.NewBuilder(nil), []htmlparser.Extractor{x},
		htmlparser.WithNodeBudget(3))
	err = p.ParseString(context.Background(), "<div><p>a</p><p>b</p></div>", "a.html",
		htmlparser.ParseOptions{})
	require.ErrorIs(t, err, htmlparser.ErrBudgetExceeded)
}
