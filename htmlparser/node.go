package htmlparser

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
)

type NodeType uint8

const (
	_ NodeType = iota

	DocumentNode
	ElementNode
	TextNode
)

// Node is the document, an element or a run of text of a markup document.
type Node struct {
	Type     NodeType
	Tag      string // Lower case tag name of elements.
	Attrs    []Attr
	Parent   *Node
	Children []*Node

	// Start and End delimit the node in the source.
	Start, End int

	// ContentStart and ContentEnd delimit the markup between the start
	// and the end tag of elements. They are equal for void elements.
	ContentStart, ContentEnd int
}

// Attr is an element attribute.
type Attr struct {
	Name  string // Lower case.
	Value string // Entity decoded.

	// Offset is the byte offset of the raw value in the source
	// or of the name for attributes without value.
	Offset int
}

// TagName returns the tag name of elements and an empty string otherwise.
func (n *Node) TagName() string { return n.Tag }

// Attribute returns the value of the first attribute named name.
// Attributes without value have an empty value.
func (n *Node) Attribute(name string) (string, bool) {
	if a := n.attribute(name); a != nil {
		return a.Value, true
	}
	return "", false
}

func (n *Node) attribute(name string) *Attr {
	for i := range n.Attrs {
		if strings.EqualFold(n.Attrs[i].Name, name) {
			return &n.Attrs[i]
		}
	}
	return nil
}

// voidElements never have content nor an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// selfClosing elements are implicitly closed by a sibling of the same tag.
var selfClosing = map[string]bool{
	"dd": true, "dt": true, "li": true, "option": true,
	"p": true, "td": true, "th": true, "tr": true,
}

// parseTree tokenizes src and builds the element tree.
// Stray end tags are ignored and unclosed elements end with the document,
// so that any input yields a tree.
func parseTree(ctx context.Context, src []byte) (*Node, error) {
	root := &Node{Type: DocumentNode, End: len(src), ContentEnd: len(src)}
	open := []*Node{root}
	closeFrom := func(i, contentEnd, end int) {
		open[i].ContentEnd, open[i].End = contentEnd, end
		for _, n := range open[i+1:] {
			n.ContentEnd, n.End = contentEnd, contentEnd
		}
		open = open[:i]
	}

	z := html.NewTokenizer(bytes.NewReader(src))
	for offset, tokens := 0, 0; ; tokens++ {
		if tokens%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tt := z.Next()
		if tt == html.ErrorToken {
			// The reader is in memory, so this is the end of the document.
			break
		}
		raw := z.Raw()
		start, end := offset, offset+len(raw)
		offset = end
		top := open[len(open)-1]

		switch tt {
		case html.TextToken:
			top.appendChild(&Node{
				Type: TextNode, Start: start, End: end,
				ContentStart: start, ContentEnd: end,
			})
		case html.StartTagToken, html.SelfClosingTagToken:
			n := newElement(z, raw, start, end)
			if selfClosing[n.Tag] && top.Tag == n.Tag {
				closeFrom(len(open)-1, start, start)
				top = open[len(open)-1]
			}
			top.appendChild(n)
			if tt == html.StartTagToken && !voidElements[n.Tag] {
				open = append(open, n)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(open) - 1; i > 0; i-- {
				if open[i].Tag == string(name) {
					closeFrom(i, start, end)
					break
				}
			}
		}
	}
	if len(open) > 1 {
		closeFrom(1, len(src), len(src))
	}
	return root, nil
}

func (n *Node) appendChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

func newElement(z *html.Tokenizer, raw []byte, start, end int) *Node {
	name, more := z.TagName()
	n := &Node{
		Type: ElementNode, Tag: string(name),
		Start: start, End: end, ContentStart: end, ContentEnd: end,
	}
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		n.Attrs = append(n.Attrs, Attr{Name: string(k), Value: string(v), Offset: start})
	}
	// Offsets are only assigned if the raw scan agrees with the tokenizer.
	if offsets := attrOffsets(raw); len(offsets) == len(n.Attrs) {
		for i, o := range offsets {
			n.Attrs[i].Offset = start + o
		}
	}
	return n
}

// attrOffsets returns the offsets of the attribute values in the raw
// start tag, or of their names for attributes without value.
func attrOffsets(raw []byte) []int {
	i := 1
	for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}
	var l []int
	for i < len(raw) {
		for i < len(raw) && (isTagSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}
		nameStart := i
		i++ // A leading '=' belongs to the name.
		for i < len(raw) && !isTagSpace(raw[i]) && !isNameEnd(raw[i]) {
			i++
		}
		j := i
		for j < len(raw) && isTagSpace(raw[j]) {
			j++
		}
		if j >= len(raw) || raw[j] != '=' {
			l = append(l, nameStart)
			continue
		}
		i = j + 1
		for i < len(raw) && isTagSpace(raw[i]) {
			i++
		}
		if i < len(raw) && (raw[i] == '"' || raw[i] == '\'') {
			l = append(l, i+1)
			k := bytes.IndexByte(raw[i+1:], raw[i])
			if k < 0 {
				break
			}
			i += k + 2
			continue
		}
		l = append(l, i)
		for i < len(raw) && !isTagSpace(raw[i]) && raw[i] != '>' {
			i++
		}
	}
	return l
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f'
}

func isNameEnd(c byte) bool { return c == '/' || c == '>' || c == '=' }
