package goparser

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"regexp"
	"slices"
	"strings"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/content"
	"github.com/romshark/msgextract/internal/fmtplaceholder"
)

// AnyReceiver is the leading callee path segment matching any receiver
// expression, for example `*.Text` matches `r.Text` and `a.b.Text`.
const AnyReceiver = "*"

// Arguments map message fields to call argument indices.
// Nil indices are not extracted.
type Arguments struct {
	Text       int
	TextPlural *int
	Context    *int
}

// Index returns a pointer to i for use in optional Arguments fields.
func Index(i int) *int { return &i }

// CommentOptions select which comment groups around a call are extracted.
type CommentOptions struct {
	// Regex filters comments. If it has a capturing group the first group
	// replaces the comment text.
	Regex string

	OtherLineLeading bool
	SameLineLeading  bool
	SameLineTrailing bool
}

// CallOptions configure CallExpression.
type CallOptions struct {
	Arguments Arguments
	Comments  CommentOptions

	// Content defaults to DefaultContentOptions if nil.
	Content *content.Options

	// FormatFlag, for example "go-format", is added to the flags of messages
	// containing printf style placeholders like %s. Empty disables flagging.
	FormatFlag string
}

// DefaultContentOptions keep string literals as written.
var DefaultContentOptions = content.Options{PreserveIndentation: true}

type callee struct {
	anyReceiver bool
	path        []string
}

func (c callee) match(path []string) bool {
	if c.anyReceiver {
		return len(path) > len(c.path) &&
			slices.Equal(c.path, path[len(path)-len(c.path):])
	}
	return slices.Equal(c.path, path)
}

// calleePath returns the identifiers of a selector chain.
func calleePath(e ast.Expr) []string {
	var rev []string
	for {
		switch x := e.(type) {
		case *ast.Ident:
			rev = append(rev, x.Name)
			slices.Reverse(rev)
			return rev
		case *ast.SelectorExpr:
			rev = append(rev, x.Sel.Name)
			e = x.X
		case *ast.ParenExpr:
			e = x.X
		case *ast.IndexExpr:
			// Generic instantiation.
			e = x.X
		case *ast.CallExpr:
			// Receiver returned by a call, e.g. `reader(ctx).Text`.
			rev = append(rev, "()")
			slices.Reverse(rev)
			return rev
		default:
			return nil
		}
	}
}

// CallExpression returns an extractor matching calls to any of the dotted
// callee paths, for example `i18n.T` or `*.Text`.
func CallExpression(callees []string, opts CallOptions) (Extractor, error) {
	if len(callees) == 0 {
		return nil, fmt.Errorf("%w: no callee", catalog.ErrConfig)
	}
	patterns := make([]callee, len(callees))
	for i, s := range callees {
		var c callee
		for j, seg := range strings.Split(s, ".") {
			if seg == AnyReceiver && j == 0 {
				c.anyReceiver = true
				continue
			}
			if !token.IsIdentifier(seg) {
				return nil, fmt.Errorf("%w: invalid callee %q", catalog.ErrConfig, s)
			}
			c.path = append(c.path, seg)
		}
		if len(c.path) == 0 {
			return nil, fmt.Errorf("%w: invalid callee %q", catalog.ErrConfig, s)
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
	var re *regexp.Regexp
	if opts.Comments.Regex != "" {
		var err error
		if re, err = regexp.Compile(opts.Comments.Regex); err != nil {
			return nil, fmt.Errorf("%w: comment regex: %w", catalog.ErrConfig, err)
		}
	}
	contentOpts := DefaultContentOptions
	if opts.Content != nil {
		contentOpts = *opts.Content
	}

	return func(call *ast.CallExpr, stack []ast.Node, f *File) []catalog.Fragment {
		path := calleePath(call.Fun)
		if path == nil || !slices.ContainsFunc(patterns, func(c callee) bool {
			return c.match(path)
		}) {
			return nil
		}
		arg := func(i int) (v *string, ok bool) {
			if i >= len(call.Args) {
				return nil, true
			}
			s, ok := f.StringValue(call.Args[i])
			if !ok {
				return nil, false
			}
			return &s, true
		}

		text, ok := arg(a.Text)
		if !ok || text == nil {
			return nil
		}
		frag := catalog.Fragment{Text: content.Normalize(*text, contentOpts)}
		if frag.Text == "" {
			return nil
		}
		if a.TextPlural != nil {
			v, ok := arg(*a.TextPlural)
			if !ok {
				return nil
			}
			if v != nil {
				frag.TextPlural = catalog.String(content.Normalize(*v, contentOpts))
			}
		}
		if a.Context != nil {
			v, ok := arg(*a.Context)
			if !ok {
				return nil
			}
			frag.Context = v
		}
		if opts.FormatFlag != "" && hasFormat(frag) {
			frag.Flags = []string{opts.FormatFlag}
		}
		pos := f.Position(call.Pos())
		frag.References = []string{catalog.FmtReference(f.Name, pos.Line)}
		frag.Comments = comments(governing(call, stack), f, opts.Comments, re)
		return []catalog.Fragment{frag}
	}, nil
}

// governing returns the outermost node a comment next to call belongs to.
func governing(call *ast.CallExpr, stack []ast.Node) ast.Node {
	var n ast.Node = call
	for i := len(stack) - 2; i >= 0; i-- {
		switch p := stack[i].(type) {
		case *ast.ParenExpr, *ast.ReturnStmt, *ast.ExprStmt, *ast.AssignStmt,
			*ast.KeyValueExpr, *ast.DeferStmt, *ast.GoStmt:
			n = p
		case *ast.ValueSpec:
			if len(p.Values) != 1 {
				return n
			}
			n = p
		case *ast.GenDecl:
			if len(p.Specs) != 1 || p.Lparen.IsValid() {
				return n
			}
			n = p
		case *ast.DeclStmt:
			n = p
		default:
			return n
		}
	}
	return n
}

func comments(n ast.Node, f *File, o CommentOptions, re *regexp.Regexp) []string {
	if !o.OtherLineLeading && !o.SameLineLeading && !o.SameLineTrailing {
		return nil
	}
	start, end := f.Position(n.Pos()), f.Position(n.End())
	var out []string
	for _, g := range f.AST.Comments {
		gs, ge := f.Position(g.Pos()), f.Position(g.End())
		switch {
		case g.End() <= n.Pos():
			if !isSpace(f.Source[ge.Offset:start.Offset]) || trailsToken(f, gs) {
				continue
			}
			switch {
			case ge.Line < start.Line && o.OtherLineLeading,
				ge.Line == start.Line && o.SameLineLeading:
				out = appendGroup(out, g, re)
			}
		case g.Pos() >= n.End():
			if o.SameLineTrailing && gs.Line == end.Line &&
				isSpace(f.Source[end.Offset:gs.Offset]) {
				out = appendGroup(out, g, re)
			}
		}
	}
	return out
}

// trailsToken reports whether a token precedes pos on its line.
func trailsToken(f *File, pos token.Position) bool {
	before := f.Source[:pos.Offset]
	if i := bytes.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return len(bytes.TrimSpace(before)) > 0
}

func isSpace(b []byte) bool { return len(bytes.TrimSpace(b)) == 0 }

// appendGroup appends the text of g, lines joined by line breaks.
func appendGroup(out []string, g *ast.CommentGroup, re *regexp.Regexp) []string {
	lines := make([]string, 0, len(g.List))
	for _, c := range g.List {
		s := c.Text
		if t, ok := strings.CutPrefix(s, "//"); ok {
			s = t
		} else if strings.Contains(s, "\n") {
			// Multi-line block comments are never extracted.
			continue
		} else {
			s = strings.TrimSuffix(strings.TrimPrefix(s, "/*"), "*/")
		}
		lines = append(lines, strings.TrimSpace(s))
	}
	if len(lines) == 0 {
		return out
	}
	text := strings.Join(lines, "\n")
	if re != nil {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return out
		}
		if len(m) > 1 {
			text = m[1]
		}
	}
	return append(out, text)
}

func hasFormat(f catalog.Fragment) bool {
	if f.TextPlural != nil {
		return fmtplaceholder.HasFormat(f.Text, *f.TextPlural)
	}
	return fmtplaceholder.HasFormat(f.Text)
}
