// Package plural provides gettext Plural-Forms information derived
// from the CLDR cardinal plural rules.
package plural

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/ar"
	"github.com/go-playground/locales/cs"
	"github.com/go-playground/locales/da"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fi"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/it"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/ko"
	"github.com/go-playground/locales/nl"
	"github.com/go-playground/locales/pl"
	"github.com/go-playground/locales/pt"
	"github.com/go-playground/locales/ru"
	"github.com/go-playground/locales/sv"
	"github.com/go-playground/locales/uk"
	"github.com/go-playground/locales/zh"
	"golang.org/x/text/language"
)

var ErrUnsupportedLocale = errors.New("unsupported locale")

// Forms describes the plural forms of integer quantities in a language.
type Forms struct {
	// N is the number of distinct forms (gettext nplurals).
	N int

	// Categories holds the CLDR category of every form in msgstr[n] order.
	Categories []locales.PluralRule

	// Expression is the C expression selecting the form index.
	Expression string
}

// Header returns the value of the gettext Plural-Forms header.
func (f Forms) Header() string {
	return fmt.Sprintf("nplurals=%d; plural=%s;", f.N, f.Expression)
}

var translators = map[string]func() locales.Translator{
	"ar": ar.New, "cs": cs.New, "da": da.New, "de": de.New, "en": en.New,
	"es": es.New, "fi": fi.New, "fr": fr.New, "it": it.New, "ja": ja.New,
	"ko": ko.New, "nl": nl.New, "pl": pl.New, "pt": pt.New, "ru": ru.New,
	"sv": sv.New, "uk": uk.New, "zh": zh.New,
}

// expressions holds gettext formulas for languages whose integer plural
// categories can't be expressed by the generic formulas.
var expressions = map[string]string{
	"ar": "(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5)",
	"cs": "(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2)",
	"pl": "(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
	"ru": "(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
	"uk": "(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2)",
}

// sampleSize is the number of integers evaluated to detect plural categories.
const sampleSize = 200

// ByTag returns the plural forms of the base language of tag.
func ByTag(tag language.Tag) (Forms, error) {
	base, _ := tag.Base()
	newTranslator, ok := translators[base.String()]
	if !ok {
		return Forms{}, fmt.Errorf("%w: %s", ErrUnsupportedLocale, tag)
	}
	t := newTranslator()

	var categories []locales.PluralRule
	var oneAt []int
	for n := range sampleSize {
		c := t.CardinalPluralRule(float64(n), 0)
		if !slices.Contains(categories, c) {
			categories = append(categories, c)
		}
		if c == locales.PluralRuleOne {
			oneAt = append(oneAt, n)
		}
	}
	// gettext formulas enumerate forms zero, one, two, few, many, other.
	slices.Sort(categories)

	f := Forms{N: len(categories), Categories: categories}
	switch expr, ok := expressions[base.String()]; {
	case ok:
		f.Expression = expr
	case f.N == 1:
		f.Expression = "0"
	case f.N == 2 && slices.Equal(oneAt, []int{1}):
		f.Expression = "(n != 1)"
	case f.N == 2 && slices.Equal(oneAt, []int{0, 1}):
		f.Expression = "(n > 1)"
	default:
		return Forms{}, fmt.Errorf("%w: no plural expression for %s", ErrUnsupportedLocale, tag)
	}
	return f, nil
}
