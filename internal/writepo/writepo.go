// Package writepo converts extracted catalogs into gettext files.
package writepo

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/gettext"
	"github.com/romshark/msgextract/internal/plural"
	"golang.org/x/text/language"
)

// DefaultHeaders are the header entries of every written file
// unless overridden.
func DefaultHeaders() gettext.Headers {
	return gettext.Headers{
		{Name: gettext.HeaderContentType, Value: gettext.DefaultContentType},
	}
}

// Template returns the `.pot` representation of messages.
// Headers override DefaultHeaders.
func Template(messages []catalog.Message, headers ...gettext.Header) *gettext.File {
	f := &gettext.File{Headers: DefaultHeaders().Merge(headers...)}
	f.Messages = make([]gettext.Message, len(messages))
	for i, m := range messages {
		f.Messages[i] = message(m, 2)
	}
	return f
}

// Catalog returns the `.po` representation of messages for locale with
// one empty msgstr per plural form of the locale.
func Catalog(
	messages []catalog.Message, locale language.Tag, headers ...gettext.Header,
) (*gettext.File, error) {
	forms, err := plural.ByTag(locale)
	if err != nil {
		return nil, err
	}
	h := DefaultHeaders().Merge(
		gettext.Header{Name: gettext.HeaderLanguage, Value: locale.String()},
		gettext.Header{Name: gettext.HeaderPluralForms, Value: forms.Header()},
	)
	f := &gettext.File{Headers: h.Merge(headers...)}
	f.Messages = make([]gettext.Message, len(messages))
	for i, m := range messages {
		f.Messages[i] = message(m, forms.N)
	}
	return f, nil
}

// WriteTemplate writes the `.pot` representation of messages to w.
func WriteTemplate(w io.Writer, messages []catalog.Message, headers ...gettext.Header) error {
	if err := (gettext.Encoder{}).Encode(w, Template(messages, headers...)); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}

// message converts m. References are sorted, comments keep their order.
func message(m catalog.Message, nplurals int) gettext.Message {
	g := gettext.Message{
		Msgid:             m.Text,
		ExtractedComments: slices.Clone(m.Comments),
		References:        slices.Clone(m.References),
		Flags:             slices.Clone(m.Flags),
	}
	slices.SortFunc(g.References, strings.Compare)
	slices.Sort(g.Flags)
	if m.Context != "" {
		g.Msgctxt = &m.Context
	}
	if m.HasPlural() {
		g.MsgidPlural = m.TextPlural
		g.Msgstr = make([]string, max(nplurals, 1))
	} else {
		g.Msgstr = []string{""}
	}
	return g
}

// Merge returns generated with the translations of existing carried over.
// Messages are matched by msgctxt and msgid. Translated messages of existing
// that are no longer generated are appended as obsolete entries.
// Headers of existing are kept unless generated sets them.
func Merge(generated, existing *gettext.File) *gettext.File {
	if existing == nil {
		return generated
	}
	type key struct{ ctx, id string }
	keyOf := func(m gettext.Message) key { return key{m.Context(), m.Msgid} }

	prev := make(map[key]gettext.Message, len(existing.Messages))
	for _, m := range existing.Messages {
		if _, ok := prev[keyOf(m)]; !ok || !m.Obsolete {
			prev[keyOf(m)] = m
		}
	}

	f := &gettext.File{
		HeadComments: slices.Clone(existing.HeadComments),
		Headers:      existing.Headers.Merge(generated.Headers...),
		Messages:     make([]gettext.Message, 0, len(generated.Messages)),
	}
	used := make(map[key]bool, len(generated.Messages))
	for _, m := range generated.Messages {
		k := keyOf(m)
		used[k] = true
		if p, ok := prev[k]; ok {
			m.Msgstr = slices.Clone(m.Msgstr)
			copy(m.Msgstr, p.Msgstr)
			m.TranslatorComments = slices.Clone(p.TranslatorComments)
			if slices.Contains(p.Flags, FlagFuzzy) && !slices.Contains(m.Flags, FlagFuzzy) {
				m.Flags = append(slices.Clone(m.Flags), FlagFuzzy)
				slices.Sort(m.Flags)
			}
		}
		f.Messages = append(f.Messages, m)
	}
	for _, m := range existing.Messages {
		k := keyOf(m)
		if used[k] || !translated(m) {
			continue
		}
		used[k] = true
		m.Obsolete = true
		m.References, m.ExtractedComments = nil, nil
		f.Messages = append(f.Messages, m)
	}
	return f
}

// FlagFuzzy marks translations needing review.
const FlagFuzzy = "fuzzy"

func translated(m gettext.Message) bool {
	return slices.ContainsFunc(m.Msgstr, func(s string) bool { return s != "" })
}
