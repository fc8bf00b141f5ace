package htmlparser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/content"
	"github.com/romshark/msgextract/internal/selector"
)

// ScriptParser parses scripts embedded in markup.
type ScriptParser interface {
	Fragments(
		ctx context.Context, source []byte, filename string, lineStart int,
	) ([]catalog.Fragment, error)
}

// AttributeNames name the element attributes holding
// additional message fields. Empty names are not read.
type AttributeNames struct {
	TextPlural string
	Context    string
	Comment    string
}

// ElementOptions configure ElementContent and ElementAttribute.
type ElementOptions struct {
	Attributes AttributeNames

	// Content defaults to DefaultContentOptions if nil.
	Content *content.Options
}

// DefaultContentOptions collapse markup indentation.
var DefaultContentOptions = content.Options{TrimWhiteSpace: true}

func parseSelector(s string) (selector.Set, error) {
	set, err := selector.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrConfig, err)
	}
	return set, nil
}

// ElementContent returns an extractor using the content of elements
// matching sel as message text.
func ElementContent(sel string, opts ElementOptions) (Extractor, error) {
	return elementExtractor(sel, opts, func(n *Node, f *File) (string, bool) {
		return f.Content(n), true
	})
}

// ElementAttribute returns an extractor using the value of the attribute
// of elements matching sel as message text.
func ElementAttribute(sel, attribute string, opts ElementOptions) (Extractor, error) {
	if attribute == "" {
		return nil, fmt.Errorf("%w: empty attribute name", catalog.ErrConfig)
	}
	return elementExtractor(sel, opts, func(n *Node, _ *File) (string, bool) {
		return n.Attribute(attribute)
	})
}

func elementExtractor(
	sel string, opts ElementOptions, text func(*Node, *File) (string, bool),
) (Extractor, error) {
	set, err := parseSelector(sel)
	if err != nil {
		return nil, err
	}
	contentOpts := DefaultContentOptions
	if opts.Content != nil {
		contentOpts = *opts.Content
	}
	a := opts.Attributes

	return func(
		_ context.Context, n *Node, f *File, lineStart int,
	) ([]catalog.Fragment, error) {
		if n.Type != ElementNode || !set.MatchAny(n) {
			return nil, nil
		}
		s, ok := text(n, f)
		if !ok {
			return nil, nil
		}
		frag := catalog.Fragment{Text: content.Normalize(s, contentOpts)}
		if frag.Text == "" {
			return nil, nil
		}
		if a.TextPlural != "" {
			if v, ok := n.Attribute(a.TextPlural); ok {
				frag.TextPlural = catalog.String(content.Normalize(v, contentOpts))
			}
		}
		if a.Context != "" {
			if v, ok := n.Attribute(a.Context); ok {
				frag.Context = &v
			}
		}
		if a.Comment != "" {
			if v, ok := n.Attribute(a.Comment); ok && v != "" {
				frag.Comments = []string{v}
			}
		}
		line := f.Row(n.Start) + lineStart
		frag.References = []string{catalog.FmtReference(f.Name, line)}
		return []catalog.Fragment{frag}, nil
	}, nil
}

// EmbeddedJS returns an extractor passing the content of elements
// matching sel, for example `script`, to js.
func EmbeddedJS(sel string, js ScriptParser) (Extractor, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: no script parser", catalog.ErrConfig)
	}
	set, err := parseSelector(sel)
	if err != nil {
		return nil, err
	}
	return func(
		ctx context.Context, n *Node, f *File, lineStart int,
	) ([]catalog.Fragment, error) {
		if n.Type != ElementNode || !set.MatchAny(n) {
			return nil, nil
		}
		s := f.Content(n)
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return js.Fragments(ctx, []byte(s), f.Name, f.Row(n.ContentStart)+lineStart)
	}, nil
}

// EmbeddedAttributeJS returns an extractor passing the values of attributes
// with names matching the regular expression filter, for example `^:`
// for Vue bindings, to js.
func EmbeddedAttributeJS(filter string, js ScriptParser) (Extractor, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: no script parser", catalog.ErrConfig)
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: attribute filter: %w", catalog.ErrConfig, err)
	}
	return func(
		ctx context.Context, n *Node, f *File, lineStart int,
	) ([]catalog.Fragment, error) {
		if n.Type != ElementNode {
			return nil, nil
		}
		var fragments []catalog.Fragment
		for _, a := range n.Attrs {
			if !re.MatchString(a.Name) || strings.TrimSpace(a.Value) == "" {
				continue
			}
			line := f.Row(a.Offset) + lineStart
			l, err := js.Fragments(ctx, []byte(a.Value), f.Name, line)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, l...)
		}
		return fragments, nil
	}, nil
}

// Interpolation returns an extractor passing the expressions enclosed
// by the delimiters left and right in text, for example `{{ expr }}`, to js.
// Expressions are taken from the raw text, so characters like `<` and `&`
// need no escaping. Script and style content is not scanned.
func Interpolation(js ScriptParser, left, right string) (Extractor, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: no script parser", catalog.ErrConfig)
	}
	if left == "" || right == "" {
		return nil, fmt.Errorf("%w: empty interpolation delimiter", catalog.ErrConfig)
	}
	return func(
		ctx context.Context, n *Node, f *File, lineStart int,
	) ([]catalog.Fragment, error) {
		if n.Type != TextNode || rawTextElements[n.Parent.Tag] {
			return nil, nil
		}
		text, base := f.Content(n), n.Start
		var fragments []catalog.Fragment
		for pos := 0; ; {
			i := strings.Index(text[pos:], left)
			if i < 0 {
				return fragments, nil
			}
			start := pos + i + len(left)
			j := strings.Index(text[start:], right)
			if j < 0 {
				return fragments, nil
			}
			expr := text[start : start+j]
			pos = start + j + len(right)
			if strings.TrimSpace(expr) == "" {
				continue
			}
			// The leading line break places the expression on a line
			// of its own so that comments preceding it are leading.
			line := f.Row(base+start) + lineStart - 1
			l, err := js.Fragments(ctx, []byte("\n"+expr), f.Name, line)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, l...)
		}
	}, nil
}

var rawTextElements = map[string]bool{"script": true, "style": true}
