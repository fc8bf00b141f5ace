package jsparser

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/romshark/msgextract/catalog"
)

// CommentOptions select which comments around a call are extracted.
type CommentOptions struct {
	// Regex filters comments. If it has a capturing group the first group
	// replaces the comment text.
	Regex string

	OtherLineLeading bool
	SameLineLeading  bool
	SameLineTrailing bool
}

func (o CommentOptions) enabled() bool {
	return o.OtherLineLeading || o.SameLineLeading || o.SameLineTrailing
}

type commentLocator struct {
	opts CommentOptions
	re   *regexp.Regexp
}

func newCommentLocator(o CommentOptions) (*commentLocator, error) {
	l := &commentLocator{opts: o}
	if o.Regex != "" {
		re, err := regexp.Compile(o.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w: comment regex: %w", catalog.ErrConfig, err)
		}
		l.re = re
	}
	return l, nil
}

// span is the byte range of the source governed by a node.
type span struct{ start, end int }

// governingSpan extends the span of n past wrapping constructs
// that a comment placed next to n would visually belong to.
func governingSpan(n *sitter.Node, f *File) span {
	s := span{start: int(n.StartByte()), end: int(n.EndByte())}
	for {
		p := n.Parent()
		if p == nil {
			return s
		}
		switch p.Type() {
		case "parenthesized_expression", "return_statement", "throw_statement",
			"expression_statement", "export_statement", "await_expression":
			n = p
			s = span{start: int(n.StartByte()), end: int(n.EndByte())}
			continue

		case "variable_declarator":
			if v := p.ChildByFieldName("value"); v == nil || !v.Equal(n) {
				return s
			}
			decl := p.Parent()
			if decl == nil {
				return s
			}
			if decl.NamedChildCount() == 1 {
				n = decl
				s = span{start: int(n.StartByte()), end: int(n.EndByte())}
				continue
			}
			return extendToDelimiter(s, p, f)

		case "ternary_expression":
			c, a := p.ChildByFieldName("consequence"), p.ChildByFieldName("alternative")
			if (c != nil && c.Equal(n)) || (a != nil && a.Equal(n)) {
				if op := n.PrevSibling(); op != nil && !op.IsNamed() {
					s.start = int(op.StartByte())
				}
			}
			return s

		case "pair":
			if v := p.ChildByFieldName("value"); v == nil || !v.Equal(n) {
				return s
			}
			return extendToDelimiter(s, p, f)

		case "arguments", "array", "object":
			return extendToDelimiter(s, n, f)
		}
		return s
	}
}

// extendToDelimiter extends s to the ',' or ';' following the list
// element el when no sibling element shares a line with el.
func extendToDelimiter(s span, el *sitter.Node, f *File) span {
	start, end := f.row(int(el.StartByte())), f.row(int(el.EndByte())-1)
	if prev := sibling(el, (*sitter.Node).PrevNamedSibling); prev != nil &&
		f.row(int(prev.EndByte())-1) == start {
		return s
	}
	if next := sibling(el, (*sitter.Node).NextNamedSibling); next != nil &&
		f.row(int(next.StartByte())) == end {
		return s
	}
	delim := sibling(el, (*sitter.Node).NextSibling)
	if delim == nil || (delim.Type() != "," && delim.Type() != ";") {
		return s
	}
	s.end = int(delim.EndByte())
	return s
}

// sibling returns the first sibling of n in direction next
// that isn't a comment.
func sibling(n *sitter.Node, next func(*sitter.Node) *sitter.Node) *sitter.Node {
	for n = next(n); n != nil && n.Type() == "comment"; n = next(n) {
	}
	return n
}

// Comments returns the comments governing call node n.
func (l *commentLocator) Comments(n *sitter.Node, f *File) []string {
	if !l.opts.enabled() {
		return nil
	}
	s := governingSpan(n, f)
	startRow, endRow := f.row(s.start), f.row(s.end-1)
	var out []string

	if l.opts.OtherLineLeading || l.opts.SameLineLeading {
		for _, c := range leadingComments(f, s.start) {
			switch row := int(c.EndPoint().Row); {
			case row < startRow && l.opts.OtherLineLeading,
				row == startRow && l.opts.SameLineLeading:
				out = l.appendComment(out, c, f)
			}
		}
	}
	if l.opts.SameLineTrailing {
		for _, c := range trailingComments(f, s.end) {
			if int(c.StartPoint().Row) == endRow {
				out = l.appendComment(out, c, f)
			}
		}
	}
	return out
}

// leadingComments returns the comments preceding offset that are separated
// from it by white space only, excluding those on the line of the
// preceding token, which trail that token.
func leadingComments(f *File, offset int) []*sitter.Node {
	all := f.commentNodes()
	last := sort.Search(len(all), func(i int) bool {
		return int(all[i].EndByte()) > offset
	}) - 1
	first, pos := last+1, offset
	for i := last; i >= 0 && isSpace(f.Source[all[i].EndByte():pos]); i-- {
		first, pos = i, int(all[i].StartByte())
	}
	chain := all[first : last+1]

	prev := bytes.TrimRight(f.Source[:pos], " \t\r\n\f\v")
	if len(prev) == 0 {
		return chain
	}
	prevRow := f.row(len(prev) - 1)
	for len(chain) > 0 && int(chain[0].StartPoint().Row) == prevRow {
		chain = chain[1:]
	}
	return chain
}

// trailingComments returns the comments following offset on the same line
// separated by spaces only.
func trailingComments(f *File, offset int) []*sitter.Node {
	var chain []*sitter.Node
	pos := offset
	for _, c := range f.commentNodes() {
		if int(c.StartByte()) < pos {
			continue
		}
		gap := f.Source[pos:c.StartByte()]
		if !isSpace(gap) || strings.ContainsAny(string(gap), "\r\n") {
			break
		}
		chain = append(chain, c)
		pos = int(c.EndByte())
	}
	return chain
}

func isSpace(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n', '\f', '\v':
		default:
			return false
		}
	}
	return true
}

func (l *commentLocator) appendComment(out []string, c *sitter.Node, f *File) []string {
	if c.StartPoint().Row != c.EndPoint().Row {
		// Multi-line block comments are never extracted.
		return out
	}
	text := f.Content(c)
	if t, ok := strings.CutPrefix(text, "//"); ok {
		text = t
	} else {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	}
	text = strings.TrimSpace(text)
	if l.re != nil {
		m := l.re.FindStringSubmatch(text)
		if m == nil {
			return out
		}
		if len(m) > 1 {
			text = m[1]
		}
	}
	return append(out, text)
}
