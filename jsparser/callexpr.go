package jsparser

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/content"
	"github.com/romshark/msgextract/internal/fmtplaceholder"
)

// OptionalThis is the leading callee path segment matching both
// the path with and without a leading `this.`.
const OptionalThis = "[this]"

// Arguments map message fields to call argument indices.
// Nil indices are not extracted.
type Arguments struct {
	Text       int
	TextPlural *int
	Context    *int
}

// Index returns a pointer to i for use in optional Arguments fields.
func Index(i int) *int { return &i }

// CallOptions configure CallExpression.
type CallOptions struct {
	Arguments Arguments
	Comments  CommentOptions

	// Content defaults to DefaultContentOptions if nil.
	Content *content.Options

	// FormatFlag, for example "javascript-format", is added to the flags of messages
	// containing printf style placeholders like %s. Empty disables flagging.
	FormatFlag string
}

// DefaultContentOptions keep string literals as written.
var DefaultContentOptions = content.Options{PreserveIndentation: true}

// callee is a parsed callee path pattern.
type callee struct {
	optionalThis bool
	path         []string
}

func parseCallee(s string) (callee, error) {
	var c callee
	if s == "" {
		return c, fmt.Errorf("%w: empty callee", catalog.ErrConfig)
	}
	for i, seg := range strings.Split(s, ".") {
		switch {
		case seg == OptionalThis && i == 0:
			c.optionalThis = true
			continue
		case seg == "" || strings.ContainsAny(seg, "[]() \t"):
			return c, fmt.Errorf("%w: invalid callee %q", catalog.ErrConfig, s)
		}
		c.path = append(c.path, seg)
	}
	if len(c.path) == 0 {
		return c, fmt.Errorf("%w: invalid callee %q", catalog.ErrConfig, s)
	}
	return c, nil
}

func (c callee) match(path []string) bool {
	if slices.Equal(c.path, path) {
		return true
	}
	return c.optionalThis && len(path) > 0 && path[0] == "this" &&
		slices.Equal(c.path, path[1:])
}

// CalleePath returns the dotted path segments of a callee expression,
// or nil if n isn't composed of identifiers, `this`, member access
// and string subscripts.
func CalleePath(n *sitter.Node, src []byte) []string {
	var rev []string
	for {
		switch n.Type() {
		case "identifier", "this":
			rev = append(rev, n.Content(src))
			slices.Reverse(rev)
			return rev
		case "member_expression":
			prop := n.ChildByFieldName("property")
			if prop == nil {
				return nil
			}
			rev = append(rev, prop.Content(src))
			n = n.ChildByFieldName("object")
		case "subscript_expression":
			idx := n.ChildByFieldName("index")
			if idx == nil {
				return nil
			}
			v, ok := StringValue(idx, src)
			if !ok {
				return nil
			}
			rev = append(rev, v)
			n = n.ChildByFieldName("object")
		case "parenthesized_expression", "non_null_expression":
			if n.NamedChildCount() != 1 {
				return nil
			}
			n = n.NamedChild(0)
		default:
			return nil
		}
		if n == nil {
			return nil
		}
	}
}

// CallExpression returns an extractor matching calls to any of the
// dotted callee paths, for example `gettext`, `i18n.gettext` or
// `[this].i18n.gettext`.
func CallExpression(callees []string, opts CallOptions) (Extractor, error) {
	if len(callees) == 0 {
		return nil, fmt.Errorf("%w: no callee", catalog.ErrConfig)
	}
	patterns := make([]callee, len(callees))
	for i, s := range callees {
		c, err := parseCallee(s)
		if err != nil {
			return nil, err
		}
		patterns[i] = c
	}
	a := opts.Arguments
	if a.Text < 0 ||
		(a.TextPlural != nil && (*a.TextPlural < 0 || *a.TextPlural == a.Text)) ||
		(a.Context != nil && (*a.Context < 0 || *a.Context == a.Text ||
			(a.TextPlural != nil && *a.Context == *a.TextPlural))) {
		return nil, fmt.Errorf("%w: invalid argument indices", catalog.ErrConfig)
	}
	comments, err := newCommentLocator(opts.Comments)
	if err != nil {
		return nil, err
	}
	contentOpts := DefaultContentOptions
	if opts.Content != nil {
		contentOpts = *opts.Content
	}

	return func(
		_ context.Context, n *sitter.Node, f *File, lineStart int,
	) ([]catalog.Fragment, error) {
		if n.Type() != "call_expression" {
			return nil, nil
		}
		fn, args := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
		if fn == nil || args == nil || args.Type() != "arguments" {
			return nil, nil
		}
		path := CalleePath(fn, f.Source)
		if path == nil || !slices.ContainsFunc(patterns, func(c callee) bool {
			return c.match(path)
		}) {
			return nil, nil
		}

		list := arguments(args)
		text, ok := argument(list, a.Text, f.Source)
		if !ok || text == nil {
			return nil, nil
		}
		frag := catalog.Fragment{
			Text: content.Normalize(*text, contentOpts),
		}
		if frag.Text == "" {
			return nil, nil
		}
		if a.TextPlural != nil {
			v, ok := argument(list, *a.TextPlural, f.Source)
			if !ok {
				return nil, nil
			}
			if v != nil {
				frag.TextPlural = catalog.String(content.Normalize(*v, contentOpts))
			}
		}
		if a.Context != nil {
			v, ok := argument(list, *a.Context, f.Source)
			if !ok {
				return nil, nil
			}
			frag.Context = v
		}
		if opts.FormatFlag != "" && hasFormat(frag) {
			frag.Flags = []string{opts.FormatFlag}
		}

		line := int(n.StartPoint().Row) + lineStart
		frag.References = []string{catalog.FmtReference(f.Name, line)}
		frag.Comments = comments.Comments(n, f)
		return []catalog.Fragment{frag}, nil
	}, nil
}

// arguments returns the argument nodes of an arguments list.
func arguments(args *sitter.Node) []*sitter.Node {
	var l []*sitter.Node
	for i := range int(args.NamedChildCount()) {
		if c := args.NamedChild(i); c.Type() != "comment" {
			l = append(l, c)
		}
	}
	return l
}

// argument returns the string value at index i, nil if there is no such
// argument. ok is false if the argument isn't a foldable string.
func argument(l []*sitter.Node, i int, src []byte) (v *string, ok bool) {
	if i >= len(l) {
		return nil, true
	}
	s, ok := StringValue(l[i], src)
	if !ok {
		return nil, false
	}
	return &s, true
}

func hasFormat(f catalog.Fragment) bool {
	if f.TextPlural != nil {
		return fmtplaceholder.HasFormat(f.Text, *f.TextPlural)
	}
	return fmtplaceholder.HasFormat(f.Text)
}
