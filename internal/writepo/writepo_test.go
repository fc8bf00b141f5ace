package writepo_test

import (
	"bytes"
	"testing"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/gettext"
	"github.com/romshark/msgextract/internal/writepo"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func messages() []catalog.Message {
	return []catalog.Message{
		{Text: "Foo", References: []string{"b.js:2", "a.js:10", "a.js:1"}},
		{
			Text:       "Apple",
			TextPlural: "Apples",
			Context:    "Fruit",
			References: []string{"c.html:3"},
			Comments:   []string{"Shown in the basket", "Line one\nline two"},
		},
	}
}

func TestWriteTemplate(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, writepo.WriteTemplate(&buf, messages()))
	require.Equal(t, `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

#: a.js:1
#: a.js:10
#: b.js:2
msgid "Foo"
msgstr ""

#. Shown in the basket
#. Line one
#. line two
#: c.html:3
msgctxt "Fruit"
msgid "Apple"
msgid_plural "Apples"
msgstr[0] ""
msgstr[1] ""
`, buf.String())
}

func TestTemplateHeaders(t *testing.T) {
	t.Parallel()
	f := writepo.Template(nil,
		gettext.Header{Name: gettext.HeaderContentType, Value: "text/plain; charset=ISO-8859-1"},
		gettext.Header{Name: gettext.HeaderProjectIDVersion, Value: "app 1.0"},
	)
	require.Equal(t, gettext.Headers{
		{Name: gettext.HeaderContentType, Value: "text/plain; charset=ISO-8859-1"},
		{Name: gettext.HeaderProjectIDVersion, Value: "app 1.0"},
	}, f.Headers)
	require.True(t, f.IsTemplate())
}

func TestTemplateDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	m := messages()
	_ = writepo.Template(m)
	require.Equal(t, []string{"b.js:2", "a.js:10", "a.js:1"}, m[0].References)
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	f, err := writepo.Catalog(messages(), language.Russian)
	require.NoError(t, err)
	require.False(t, f.IsTemplate())
	v, ok := f.Headers.Get(gettext.HeaderPluralForms)
	require.True(t, ok)
	require.Contains(t, v, "nplurals=3;")
	require.Len(t, f.Messages[1].Msgstr, 3)
	require.Len(t, f.Messages[0].Msgstr, 1)

	// The written catalog decodes back into the same entries.
	var buf bytes.Buffer
	require.NoError(t, gettext.Encoder{}.Encode(&buf, f))
	d, err := gettext.Decoder{}.Decode("ru.po", &buf)
	require.NoError(t, err)
	require.Len(t, d.Messages, 2)
	require.Equal(t, "Fruit", d.Messages[1].Context())
	require.Equal(t, "Apples", d.Messages[1].MsgidPlural)
	require.Equal(t, []string{"a.js:1", "a.js:10", "b.js:2"}, d.Messages[0].References)
}

func TestCatalogUnsupportedLocale(t *testing.T) {
	t.Parallel()
	_, err := writepo.Catalog(messages(), language.Swahili)
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()
	generated, err := writepo.Catalog(messages(), language.Russian)
	require.NoError(t, err)
	existing := &gettext.File{
		HeadComments: []string{"Russian translation"},
		Headers: gettext.Headers{
			{Name: gettext.HeaderContentType, Value: gettext.DefaultContentType},
			{Name: gettext.HeaderLanguage, Value: "ru"},
			{Name: gettext.HeaderPluralForms, Value: "nplurals=2; plural=(n != 1);"},
			{Name: "PO-Revision-Date", Value: "2026-01-01"},
		},
		Messages: []gettext.Message{
			{
				TranslatorComments: []string{"checked"},
				References:         []string{"old.js:1"},
				Flags:              []string{"fuzzy"},
				Msgid:              "Foo",
				Msgstr:             []string{"Фу"},
			},
			{
				Msgctxt:     catalog.String("Fruit"),
				Msgid:       "Apple",
				MsgidPlural: "Apples",
				Msgstr:      []string{"Яблоко", "Яблока"},
			},
			{References: []string{"gone.js:1"}, Msgid: "Gone", Msgstr: []string{"Ушло"}},
			{Msgid: "Untranslated", Msgstr: []string{""}},
		},
	}

	f := writepo.Merge(generated, existing)
	require.Equal(t, []string{"Russian translation"}, f.HeadComments)
	require.Equal(t, gettext.Headers{
		{Name: gettext.HeaderContentType, Value: gettext.DefaultContentType},
		{Name: gettext.HeaderLanguage, Value: "ru"},
		{Name: gettext.HeaderPluralForms, Value: generated.Headers[2].Value},
		{Name: "PO-Revision-Date", Value: "2026-01-01"},
	}, f.Headers)
	require.Equal(t, []gettext.Message{
		{
			TranslatorComments: []string{"checked"},
			References:         []string{"a.js:1", "a.js:10", "b.js:2"},
			Flags:              []string{"fuzzy"},
			Msgid:              "Foo",
			Msgstr:             []string{"Фу"},
		},
		{
			ExtractedComments: []string{"Shown in the basket", "Line one\nline two"},
			References:        []string{"c.html:3"},
			Msgctxt:           catalog.String("Fruit"),
			Msgid:             "Apple",
			MsgidPlural:       "Apples",
			Msgstr:            []string{"Яблоко", "Яблока", ""},
		},
		{Obsolete: true, Msgid: "Gone", Msgstr: []string{"Ушло"}},
	}, f.Messages)

	require.Same(t, generated, writepo.Merge(generated, nil))
}
