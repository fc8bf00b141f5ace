// Package content normalizes raw extracted message text.
package content

import (
	"regexp"
	"strings"
)

// Options controls Normalize.
type Options struct {
	// TrimWhiteSpace removes leading and trailing white space.
	TrimWhiteSpace bool

	// PreserveIndentation keeps the leading horizontal white space of every line.
	// When trimming, only leading line breaks are removed so that
	// the indentation of the first line is retained.
	PreserveIndentation bool

	// ReplaceNewLines replaces every line break with the given string if not nil.
	ReplaceNewLines *string

	// Dedent removes leading/trailing blank lines and the common indentation
	// of all lines. It is applied after line-ending normalization and
	// before any other rule.
	Dedent bool
}

var (
	regexpLeadingLineBreaks = regexp.MustCompile(`^(?:[ \t]*\n)+`)
	regexpLineIndentation   = regexp.MustCompile(`(?m)^[ \t]+`)
)

// Normalize applies opts to s in the following order:
// line-ending normalization, dedent, trim, de-indent, line break replacement.
func Normalize(s string, opts Options) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if opts.Dedent {
		s = Dedent(s)
	}

	if opts.TrimWhiteSpace {
		if opts.PreserveIndentation {
			s = regexpLeadingLineBreaks.ReplaceAllString(s, "")
			s = strings.TrimRight(s, " \t\n\v\f")
		} else {
			s = strings.TrimSpace(s)
		}
	}

	if !opts.PreserveIndentation {
		s = regexpLineIndentation.ReplaceAllString(s, "")
	}

	if opts.ReplaceNewLines != nil {
		s = strings.ReplaceAll(s, "\n", *opts.ReplaceNewLines)
	}
	return s
}

// Dedent removes leading/trailing blank lines and
// the common leading indentation from all non-empty lines.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && isLineBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isLineBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	minIndent := -1
	for _, line := range lines {
		if isLineBlank(line) {
			continue
		}
		if n := indentation(line); minIndent == -1 || n < minIndent {
			minIndent = n
		}
	}
	for i, line := range lines {
		switch {
		case isLineBlank(line):
			lines[i] = ""
		case len(line) >= minIndent:
			lines[i] = line[minIndent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isLineBlank(s string) bool { return strings.TrimSpace(s) == "" }

func indentation(s string) (n int) {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}
