package jsparser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// StringValue returns the value of a string literal, a template literal
// without substitutions or a '+' concatenation of those.
// ok is false if n isn't statically foldable.
func StringValue(n *sitter.Node, src []byte) (value string, ok bool) {
	var b strings.Builder
	if !fold(&b, n, src) {
		return "", false
	}
	return b.String(), true
}

func fold(b *strings.Builder, n *sitter.Node, src []byte) bool {
	switch n.Type() {
	case "string":
		raw := n.Content(src)
		if len(raw) < 2 {
			return false
		}
		v, ok := unescape(raw[1 : len(raw)-1])
		b.WriteString(v)
		return ok
	case "template_string":
		for i := range int(n.NamedChildCount()) {
			if n.NamedChild(i).Type() == "template_substitution" {
				return false
			}
		}
		raw := n.Content(src)
		if len(raw) < 2 {
			return false
		}
		raw = strings.ReplaceAll(raw[1:len(raw)-1], "\r\n", "\n")
		v, ok := unescape(raw)
		b.WriteString(v)
		return ok
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		if op == nil || op.Type() != "+" {
			return false
		}
		l, r := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		return l != nil && r != nil && fold(b, l, src) && fold(b, r, src)
	case "parenthesized_expression",
		"as_expression", "satisfies_expression", "non_null_expression":
		if n.NamedChildCount() == 0 {
			return false
		}
		return fold(b, n.NamedChild(0), src)
	}
	return false
}

// unescape interprets the escape sequences of a JavaScript string body.
func unescape(s string) (string, bool) {
	if !strings.ContainsRune(s, '\\') {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		switch c = s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			// Line continuation.
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\n':
			// Line continuation.
		case 'x':
			if i+2 >= len(s) {
				return "", false
			}
			r, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(r))
			i += 2
		case 'u':
			r, n, ok := unicodeEscape(s[i+1:])
			if !ok {
				return "", false
			}
			i += n
			if utf16High(r) && strings.HasPrefix(s[i+1:], `\u`) {
				// Surrogate pair.
				if low, n, ok := unicodeEscape(s[i+3:]); ok && utf16Low(low) {
					r = (r-0xD800)<<10 + (low - 0xDC00) + 0x10000
					i += n + 2
				}
			}
			if !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), true
}

// unicodeEscape parses the part after `\u`, either XXXX or {X...}.
func unicodeEscape(s string) (r rune, n int, ok bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}
		return rune(v), end + 1, true
	}
	if len(s) < 4 {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return rune(v), 4, true
}

func utf16High(r rune) bool { return r >= 0xD800 && r < 0xDC00 }
func utf16Low(r rune) bool  { return r >= 0xDC00 && r < 0xE000 }
