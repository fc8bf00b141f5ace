// Package selector implements a single-level subset of CSS selectors
// for matching markup elements.
//
// Supported are tag names (or *), #id, .class and attribute predicates
// [name], [name=value], [name^=value], [name$=value], [name*=value] and
// [name=/regexp/] where the value may be quoted.
// Comma separated selectors form a Set.
package selector

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrSyntax     = errors.New("syntax error")
	ErrMultiLevel = errors.New("multi-level selectors are not supported")
	ErrEmpty      = errors.New("empty selector")
)

// Element is a markup element.
type Element interface {
	// TagName returns the element's tag name.
	TagName() string

	// Attribute returns the value of the attribute name (case-insensitive).
	Attribute(name string) (value string, ok bool)
}

type Operator uint8

const (
	_ Operator = iota

	OperatorExists   // [name]
	OperatorEquals   // [name=value]
	OperatorPrefix   // [name^=value]
	OperatorSuffix   // [name$=value]
	OperatorContains // [name*=value]
	OperatorRegexp   // [name=/value/]
)

// Attribute is an attribute predicate.
type Attribute struct {
	Name     string
	Operator Operator
	Value    string
	Regexp   *regexp.Regexp
}

func (a Attribute) match(e Element) bool {
	v, ok := e.Attribute(a.Name)
	if !ok {
		return false
	}
	switch a.Operator {
	case OperatorEquals:
		return v == a.Value
	case OperatorPrefix:
		return a.Value != "" && strings.HasPrefix(v, a.Value)
	case OperatorSuffix:
		return a.Value != "" && strings.HasSuffix(v, a.Value)
	case OperatorContains:
		return a.Value != "" && strings.Contains(v, a.Value)
	case OperatorRegexp:
		return a.Regexp.MatchString(v)
	}
	return true
}

// Selector is a single compound selector such as `div.a#b[c]`.
type Selector struct {
	Tag        string // Empty for any tag.
	ID         string
	Classes    []string
	Attributes []Attribute
}

// Match reports whether e satisfies all parts of s.
func (s Selector) Match(e Element) bool {
	if s.Tag != "" && !strings.EqualFold(s.Tag, e.TagName()) {
		return false
	}
	if s.ID != "" {
		if id, ok := e.Attribute("id"); !ok || id != s.ID {
			return false
		}
	}
	if len(s.Classes) > 0 {
		v, _ := e.Attribute("class")
		classes := strings.Fields(v)
		for _, c := range s.Classes {
			if !contains(classes, c) {
				return false
			}
		}
	}
	for _, a := range s.Attributes {
		if !a.match(e) {
			return false
		}
	}
	return true
}

func contains(l []string, s string) bool {
	for _, x := range l {
		if x == s {
			return true
		}
	}
	return false
}

// Set is a comma separated list of selectors.
type Set []Selector

// MatchAny reports whether at least one selector in s matches e.
func (s Set) MatchAny(e Element) bool {
	for _, sel := range s {
		if sel.Match(e) {
			return true
		}
	}
	return false
}

// MatchAll reports whether every selector in s matches e.
func (s Set) MatchAll(e Element) bool {
	for _, sel := range s {
		if !sel.Match(e) {
			return false
		}
	}
	return len(s) > 0
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Set {
	set, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return set
}

// Parse parses a comma separated list of selectors.
func Parse(s string) (Set, error) {
	p := parser{src: s}
	var set Set
	for {
		p.skipSpace()
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		set = append(set, sel)
		p.skipSpace()
		if p.eof() {
			return set, nil
		}
		switch c := p.peek(); c {
		case ',':
			p.pos++
		case '>', '+', '~':
			return nil, p.errorf(ErrMultiLevel, "combinator %q", c)
		default:
			return nil, p.errorf(ErrMultiLevel, "descendant combinator")
		}
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) errorf(err error, format string, args ...any) error {
	return fmt.Errorf("%w at index %d in %q: %s",
		err, p.pos, p.src, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) parseSelector() (sel Selector, err error) {
	start := p.pos
	if !p.eof() && p.peek() == '*' {
		p.pos++
	} else if !p.eof() && isIdentByte(p.peek()) {
		sel.Tag = p.readIdent()
	}
	for !p.eof() {
		switch p.peek() {
		case '#':
			p.pos++
			if sel.ID != "" {
				return sel, p.errorf(ErrSyntax, "duplicate id")
			}
			if sel.ID = p.readIdent(); sel.ID == "" {
				return sel, p.errorf(ErrSyntax, "expected id")
			}
		case '.':
			p.pos++
			c := p.readIdent()
			if c == "" {
				return sel, p.errorf(ErrSyntax, "expected class name")
			}
			sel.Classes = append(sel.Classes, c)
		case '[':
			p.pos++
			a, err := p.parseAttribute()
			if err != nil {
				return sel, err
			}
			sel.Attributes = append(sel.Attributes, a)
		case ',', ' ', '\t', '\n', '\r', '\f', '>', '+', '~':
			if p.pos == start {
				return sel, p.errorf(ErrEmpty, "expected selector")
			}
			return sel, nil
		default:
			return sel, p.errorf(ErrSyntax, "unexpected character %q", p.peek())
		}
	}
	if p.pos == start {
		return sel, p.errorf(ErrEmpty, "expected selector")
	}
	return sel, nil
}

func (p *parser) parseAttribute() (a Attribute, err error) {
	p.skipSpace()
	if a.Name = p.readIdent(); a.Name == "" {
		return a, p.errorf(ErrSyntax, "expected attribute name")
	}
	p.skipSpace()
	if p.eof() {
		return a, p.errorf(ErrSyntax, "expected ]")
	}
	if p.peek() == ']' {
		p.pos++
		a.Operator = OperatorExists
		return a, nil
	}

	switch {
	case strings.HasPrefix(p.src[p.pos:], "="):
		a.Operator = OperatorEquals
		p.pos++
	case strings.HasPrefix(p.src[p.pos:], "^="):
		a.Operator = OperatorPrefix
		p.pos += 2
	case strings.HasPrefix(p.src[p.pos:], "$="):
		a.Operator = OperatorSuffix
		p.pos += 2
	case strings.HasPrefix(p.src[p.pos:], "*="):
		a.Operator = OperatorContains
		p.pos += 2
	default:
		return a, p.errorf(ErrSyntax, "unsupported attribute operator")
	}
	p.skipSpace()
	if p.eof() {
		return a, p.errorf(ErrSyntax, "expected attribute value")
	}

	switch c := p.peek(); {
	case c == '"' || c == '\'':
		if a.Value, err = p.readQuoted(c); err != nil {
			return a, err
		}
	case c == '/' && a.Operator == OperatorEquals:
		if a.Regexp, err = p.readRegexp(); err != nil {
			return a, err
		}
		a.Operator = OperatorRegexp
	default:
		if a.Value = p.readIdent(); a.Value == "" {
			return a, p.errorf(ErrSyntax, "expected attribute value")
		}
	}

	p.skipSpace()
	if p.eof() || p.peek() != ']' {
		return a, p.errorf(ErrSyntax, "expected ]")
	}
	p.pos++
	return a, nil
}

func (p *parser) readIdent() string {
	start := p.pos
	for !p.eof() && isIdentByte(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) readQuoted(quote byte) (string, error) {
	p.pos++ // Opening quote.
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		p.pos++
		switch c {
		case quote:
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errorf(ErrSyntax, "unterminated escape sequence")
			}
			b.WriteByte(p.peek())
			p.pos++
		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf(ErrSyntax, "unterminated string")
}

func (p *parser) readRegexp() (*regexp.Regexp, error) {
	p.pos++ // Opening slash.
	var b strings.Builder
	for {
		if p.eof() {
			return nil, p.errorf(ErrSyntax, "unterminated regular expression")
		}
		c := p.peek()
		p.pos++
		if c == '/' {
			break
		}
		if c == '\\' && !p.eof() && p.peek() == '/' {
			c = '/'
			p.pos++
		} else if c == '\\' && !p.eof() {
			b.WriteByte(c)
			c = p.peek()
			p.pos++
		}
		b.WriteByte(c)
	}
	expr := b.String()
	if !p.eof() && p.peek() == 'i' {
		expr = "(?i)" + expr
		p.pos++
	}
	r, err := regexp.Compile(expr)
	if err != nil {
		return nil, p.errorf(ErrSyntax, "invalid regular expression: %v", err)
	}
	return r, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == ':' || c == '@' || c >= 0x80
}
