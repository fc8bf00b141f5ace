package jsparser

import (
	"context"
	"fmt"
	"slices"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/romshark/msgextract/catalog"
)

// MarkupParser parses markup embedded in scripts.
type MarkupParser interface {
	Fragments(
		ctx context.Context, source []byte, filename string, lineStart int,
	) ([]catalog.Fragment, error)
}

// EmbeddedOptions select the string literals holding markup.
type EmbeddedOptions struct {
	// Tags are the names of template literal tags, for example html`<p>...</p>`.
	Tags []string

	// Properties are the names of object properties and assignment targets,
	// for example {template: '<p>...</p>'}.
	Properties []string
}

// EmbeddedHTML returns an extractor passing the values of selected string
// literals to markup.
func EmbeddedHTML(markup MarkupParser, opts EmbeddedOptions) (Extractor, error) {
	if markup == nil {
		return nil, fmt.Errorf("%w: no markup parser", catalog.ErrConfig)
	}
	if len(opts.Tags) == 0 && len(opts.Properties) == 0 {
		return nil, fmt.Errorf("%w: no tags or properties", catalog.ErrConfig)
	}
	return func(
		ctx context.Context, n *sitter.Node, f *File, lineStart int,
	) ([]catalog.Fragment, error) {
		lit := embeddedLiteral(n, f.Source, opts)
		if lit == nil {
			return nil, nil
		}
		v, ok := StringValue(lit, f.Source)
		if !ok {
			return nil, nil
		}
		line := int(lit.StartPoint().Row) + lineStart
		return markup.Fragments(ctx, []byte(v), f.Name, line)
	}, nil
}

// embeddedLiteral returns the literal holding markup at n or nil.
func embeddedLiteral(n *sitter.Node, src []byte, opts EmbeddedOptions) *sitter.Node {
	switch n.Type() {
	case "call_expression":
		fn, arg := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
		if fn == nil || arg == nil || arg.Type() != "template_string" ||
			fn.Type() != "identifier" || !slices.Contains(opts.Tags, fn.Content(src)) {
			return nil
		}
		return arg
	case "pair":
		key := n.ChildByFieldName("key")
		if key == nil || !slices.Contains(opts.Properties, propertyName(key, src)) {
			return nil
		}
		return n.ChildByFieldName("value")
	case "assignment_expression":
		left := n.ChildByFieldName("left")
		if left == nil || left.Type() != "member_expression" {
			return nil
		}
		prop := left.ChildByFieldName("property")
		if prop == nil || !slices.Contains(opts.Properties, prop.Content(src)) {
			return nil
		}
		return n.ChildByFieldName("right")
	}
	return nil
}

func propertyName(key *sitter.Node, src []byte) string {
	if key.Type() == "string" {
		v, _ := StringValue(key, src)
		return v
	}
	return key.Content(src)
}
