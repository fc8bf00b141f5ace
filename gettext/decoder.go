package gettext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxPluralForms is the maximum number of msgstr[n] forms per message.
const MaxPluralForms = 6

type keyword uint8

const (
	_ keyword = iota

	keywordMsgctxt       // msgctxt
	keywordMsgid         // msgid
	keywordMsgidPlural   // msgid_plural
	keywordMsgstr        // msgstr
	keywordMsgstrIndexed // msgstr[%d]
)

// Decoder reads gettext `.po` and `.pot` files.
type Decoder struct{}

// Decode decodes a `.po` or `.pot` file from r.
// fileName is only used in errors.
func (d Decoder) Decode(fileName string, r io.Reader) (*File, error) {
	p := decoder{pos: Position{Filename: fileName}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		p.pos.Line++
		p.pos.Column = 1
		if err := p.line(strings.TrimRight(sc.Text(), "\r")); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	if err := p.flush(); err != nil {
		return nil, err
	}
	return p.file()
}

type decoder struct {
	pos      Position
	entries  []Message
	current  Message
	started  bool // At least one comment or keyword was read for current.
	last     keyword
	target   *string // Receives continuation string lines.
	comments []string
}

func (p *decoder) errSyntax(expected string, err error) error {
	return Error{Pos: p.pos, Expected: expected, Err: err}
}

func (p *decoder) line(l string) error {
	trimmed := strings.TrimSpace(l)
	if trimmed == "" {
		return p.flush()
	}

	obsolete := false
	if rest, ok := strings.CutPrefix(trimmed, "#~"); ok {
		obsolete = true
		if trimmed = strings.TrimLeft(rest, " "); trimmed == "" {
			return nil
		}
	}

	if trimmed[0] == '#' {
		if p.last >= keywordMsgstr {
			if err := p.flush(); err != nil {
				return err
			}
		}
		p.started = true
		return p.comment(trimmed)
	}

	if trimmed[0] == '"' {
		if p.target == nil {
			return p.errSyntax("keyword", ErrUnexpectedToken)
		}
		s, err := p.unquote(trimmed)
		if err != nil {
			return err
		}
		*p.target += s
		return nil
	}

	kw, index, rest, err := p.keyword(trimmed)
	if err != nil {
		return err
	}
	if (kw == keywordMsgctxt || kw == keywordMsgid) && p.last >= keywordMsgstr {
		// A new entry without separating blank line.
		if err := p.flush(); err != nil {
			return err
		}
	}
	if err := p.checkOrder(kw, index); err != nil {
		return err
	}
	s, err := p.unquote(strings.TrimSpace(rest))
	if err != nil {
		return err
	}

	m := &p.current
	if !p.started {
		m.Pos = p.pos
	}
	p.started = true
	m.Obsolete = m.Obsolete || obsolete
	switch kw {
	case keywordMsgctxt:
		m.Msgctxt = &s
		p.target = m.Msgctxt
	case keywordMsgid:
		m.Msgid = s
		p.target = &m.Msgid
	case keywordMsgidPlural:
		m.MsgidPlural = s
		p.target = &m.MsgidPlural
	case keywordMsgstr:
		m.Msgstr = []string{s}
		p.target = &m.Msgstr[0]
	case keywordMsgstrIndexed:
		m.Msgstr = append(m.Msgstr, s)
		p.target = &m.Msgstr[index]
	}
	p.last = kw
	return nil
}

func (p *decoder) comment(l string) error {
	m := &p.current
	if m.Pos.Line == 0 {
		m.Pos = p.pos
	}
	typ, value := l[:min(2, len(l))], ""
	if len(l) > 2 {
		value = strings.TrimPrefix(l[2:], " ")
	}
	switch typ {
	case "#.":
		m.ExtractedComments = append(m.ExtractedComments, value)
	case "#:":
		m.References = append(m.References, strings.Fields(value)...)
	case "#,":
		for f := range strings.SplitSeq(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				m.Flags = append(m.Flags, f)
			}
		}
	case "#|":
		// Previous untranslated strings are not retained.
	default:
		c := strings.TrimPrefix(l[1:], " ")
		m.TranslatorComments = append(m.TranslatorComments, c)
	}
	return nil
}

func (p *decoder) keyword(l string) (kw keyword, index int, rest string, err error) {
	name, rest, _ := strings.Cut(l, " ")
	switch {
	case name == "msgctxt":
		return keywordMsgctxt, 0, rest, nil
	case name == "msgid":
		return keywordMsgid, 0, rest, nil
	case name == "msgid_plural":
		return keywordMsgidPlural, 0, rest, nil
	case name == "msgstr":
		return keywordMsgstr, 0, rest, nil
	case strings.HasPrefix(name, "msgstr[") && strings.HasSuffix(name, "]"):
		i, err := strconv.Atoi(name[len("msgstr[") : len(name)-1])
		if err != nil || i < 0 {
			return 0, 0, "", p.errSyntax("plural form index", ErrPluralIndex)
		}
		if i >= MaxPluralForms {
			return 0, 0, "", p.errSyntax("", ErrMaxPluralForms)
		}
		return keywordMsgstrIndexed, i, rest, nil
	}
	return 0, 0, "", p.errSyntax("msgctxt, msgid, msgid_plural or msgstr", ErrUnexpectedToken)
}

func (p *decoder) checkOrder(kw keyword, index int) error {
	m := &p.current
	switch kw {
	case keywordMsgctxt:
		if p.last != 0 {
			return p.errSyntax("", ErrDuplicateKeyword)
		}
	case keywordMsgid:
		if p.last != 0 && p.last != keywordMsgctxt {
			return p.errSyntax("", ErrDuplicateKeyword)
		}
	case keywordMsgidPlural:
		if p.last != keywordMsgid {
			return p.errSyntax("msgid", ErrUnexpectedToken)
		}
	case keywordMsgstr:
		if p.last != keywordMsgid {
			return p.errSyntax("msgid before msgstr", ErrUnexpectedToken)
		}
	case keywordMsgstrIndexed:
		if p.last != keywordMsgidPlural && p.last != keywordMsgstrIndexed {
			return p.errSyntax("msgid_plural before msgstr[n]", ErrUnexpectedToken)
		}
		if index != len(m.Msgstr) {
			return p.errSyntax(fmt.Sprintf("msgstr[%d]", len(m.Msgstr)), ErrPluralIndex)
		}
	}
	return nil
}

// flush finishes the current entry.
func (p *decoder) flush() error {
	defer func() {
		p.current, p.started, p.last, p.target = Message{}, false, 0, nil
	}()
	if !p.started {
		return nil
	}
	switch p.last {
	case keywordMsgstr, keywordMsgstrIndexed:
		p.entries = append(p.entries, p.current)
		return nil
	case 0:
		if len(p.entries) == 0 {
			// Comments preceding the header entry.
			p.comments = append(p.comments, p.current.TranslatorComments...)
		}
		return nil
	}
	return p.errSyntax("msgstr", ErrUnexpectedEOF)
}

func (p *decoder) file() (*File, error) {
	f := &File{HeadComments: p.comments}
	if len(p.entries) == 0 || p.entries[0].Msgid != "" || p.entries[0].Msgctxt != nil {
		return nil, Error{
			Pos: Position{Filename: p.pos.Filename, Line: 1, Column: 1},
			Err: ErrMissingHeader,
		}
	}
	head := p.entries[0]
	f.HeadComments = append(f.HeadComments, head.TranslatorComments...)
	if len(head.Msgstr) > 0 {
		s := head.Msgstr[0]
		for len(s) > 0 {
			var l string
			l, s, _ = strings.Cut(s, "\n")
			name, value, ok := strings.Cut(l, ":")
			if !ok {
				return nil, Error{Pos: head.Pos, Expected: "colon", Err: ErrMalformedHeader}
			}
			name = strings.TrimSpace(name)
			if _, ok := f.Headers.Get(name); ok {
				return nil, Error{
					Pos: head.Pos, Err: fmt.Errorf("%w: %s", ErrDuplicateHeader, name),
				}
			}
			f.Headers = append(f.Headers, Header{Name: name, Value: strings.TrimSpace(value)})
		}
	}
	f.Messages = p.entries[1:]
	return f, nil
}

func (p *decoder) unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", p.errSyntax("string literal", ErrMalformedString)
	}
	s = s[1 : len(s)-1]
	if !strings.ContainsAny(s, `\"`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			return "", p.errSyntax("escaped quote", ErrMalformedString)
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", p.errSyntax("escape sequence", ErrMalformedString)
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '\\', '"', '\'', '?':
			b.WriteByte(s[i])
		default:
			return "", p.errSyntax("escape sequence", ErrMalformedString)
		}
	}
	return b.String(), nil
}
