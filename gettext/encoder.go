package gettext

import (
	"fmt"
	"io"
	"strings"
)

// Encoder writes gettext `.po` and `.pot` files.
type Encoder struct{}

// Encode writes f to w.
func (e Encoder) Encode(w io.Writer, f *File) error {
	for _, c := range f.HeadComments {
		if err := printComment(w, "#", c); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(w, "msgid \"\"\nmsgstr \"\"\n"); err != nil {
		return err
	}
	for _, h := range f.Headers {
		if _, err := fmt.Fprintf(w, "%s\n", Quote(h.Name+": "+h.Value+"\n")); err != nil {
			return err
		}
	}

	for _, m := range f.Messages {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := e.encodeMessage(w, m); err != nil {
			return err
		}
	}
	return nil
}

func (e Encoder) encodeMessage(w io.Writer, m Message) error {
	for _, c := range m.TranslatorComments {
		if err := printComment(w, "#", c); err != nil {
			return err
		}
	}
	for _, c := range m.ExtractedComments {
		if err := printComment(w, "#.", c); err != nil {
			return err
		}
	}
	for _, c := range m.References {
		if err := printComment(w, "#:", c); err != nil {
			return err
		}
	}
	if len(m.Flags) > 0 {
		if err := printComment(w, "#,", strings.Join(m.Flags, ", ")); err != nil {
			return err
		}
	}

	prefix := ""
	if m.Obsolete {
		prefix = "#~ "
	}
	if m.Msgctxt != nil {
		if err := printDirective(w, prefix, "msgctxt", *m.Msgctxt); err != nil {
			return err
		}
	}
	if err := printDirective(w, prefix, "msgid", m.Msgid); err != nil {
		return err
	}
	if m.MsgidPlural == "" {
		var s string
		if len(m.Msgstr) > 0 {
			s = m.Msgstr[0]
		}
		return printDirective(w, prefix, "msgstr", s)
	}

	if err := printDirective(w, prefix, "msgid_plural", m.MsgidPlural); err != nil {
		return err
	}
	forms := m.Msgstr
	if len(forms) == 0 {
		forms = []string{"", ""}
	}
	for i, s := range forms {
		if err := printDirective(w, prefix, fmt.Sprintf("msgstr[%d]", i), s); err != nil {
			return err
		}
	}
	return nil
}

// printComment prints every line of s prefixed with prefix.
func printComment(w io.Writer, prefix, s string) error {
	for l := range strings.SplitSeq(s, "\n") {
		var err error
		if l == "" {
			_, err = fmt.Fprintln(w, prefix)
		} else {
			_, err = fmt.Fprintf(w, "%s %s\n", prefix, l)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func printDirective(w io.Writer, prefix, keyword, s string) error {
	lines := splitLines(s)
	if len(lines) == 1 {
		_, err := fmt.Fprintf(w, "%s%s %s\n", prefix, keyword, Quote(s))
		return err
	}

	// Multi-line
	if _, err := fmt.Fprintf(w, "%s%s \"\"\n", prefix, keyword); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, Quote(l)); err != nil {
			return err
		}
	}
	return nil
}

// splitLines splits s after every line break except a final one.
func splitLines(s string) []string {
	var lines []string
	for {
		i := strings.IndexByte(s, '\n')
		if i == -1 || i == len(s)-1 {
			return append(lines, s)
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
}

// Quote returns s as a double-quoted PO string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
