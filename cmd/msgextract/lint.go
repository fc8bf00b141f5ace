package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/romshark/msgextract"
	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/gettext"
	"github.com/romshark/msgextract/internal/fmtplaceholder"
)

func newLintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check that the catalog is up to date with the sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.extract(cmd.Context())
			var srcErrs sourceErrors
			if errors.As(err, &srcErrs) {
				a.printSourceErrors(srcErrs.err)
				return ErrSourceErrors
			}
			if err != nil {
				return err
			}
			if !a.quiet {
				for _, w := range pluralWarnings(s.Messages()) {
					_, _ = fmt.Fprintln(a.stderr, color.YellowString("WARN:"), w)
				}
			}
			return a.lint(s)
		},
	}
	addCatalogFlags(cmd.Flags())
	return cmd
}

// lint compares the catalog of s with the output file ignoring
// translations and formatting.
func (a *app) lint(s *msgextract.Session) error {
	existing, err := os.ReadFile(a.cfg.Output)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s doesn't exist", ErrOutdated, a.cfg.Output)
	}
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	rendered, err := a.render(s, existing)
	if err != nil {
		return err
	}
	if msgextract.Digest(existing) == msgextract.Digest([]byte(rendered)) {
		a.upToDate()
		return nil
	}

	var d gettext.Decoder
	current, err := d.Decode(a.cfg.Output, bytes.NewReader(existing))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutdated, err)
	}
	expected, err := d.Decode("rendered", strings.NewReader(rendered))
	if err != nil {
		return fmt.Errorf("decoding rendered catalog: %w", err)
	}
	diff := diffCatalogs(current, expected)
	if diff.empty() {
		a.upToDate()
		return nil
	}
	diff.print(a.stdout)
	return fmt.Errorf("%w: %s (%d added, %d removed, %d changed)",
		ErrOutdated, a.cfg.Output, len(diff.added), len(diff.removed), len(diff.changed))
}

func (a *app) upToDate() {
	if !a.quiet {
		_, _ = fmt.Fprintf(a.stderr, "%s is up to date\n", a.cfg.Output)
	}
}

// catalogDiff lists the messages that differ between two catalog files.
type catalogDiff struct {
	added, removed, changed []string
	headers                 bool
}

func diffCatalogs(current, expected *gettext.File) catalogDiff {
	index := func(f *gettext.File) map[string]gettext.Message {
		m := make(map[string]gettext.Message, len(f.Messages))
		for _, x := range f.Messages {
			if !x.Obsolete {
				m[messageKey(x)] = x
			}
		}
		return m
	}
	cur, exp := index(current), index(expected)

	var d catalogDiff
	for k, e := range exp {
		c, ok := cur[k]
		switch {
		case !ok:
			d.added = append(d.added, k)
		case c.MsgidPlural != e.MsgidPlural,
			!slices.Equal(c.References, e.References),
			!slices.Equal(c.ExtractedComments, e.ExtractedComments),
			!slices.Equal(c.Flags, e.Flags):
			d.changed = append(d.changed, k)
		}
	}
	for k := range cur {
		if _, ok := exp[k]; !ok {
			d.removed = append(d.removed, k)
		}
	}
	slices.Sort(d.added)
	slices.Sort(d.removed)
	slices.Sort(d.changed)
	d.headers = !slices.Equal(current.Headers, expected.Headers)
	return d
}

// messageKey identifies a message by context and msgid.
func messageKey(m gettext.Message) string {
	if m.Msgctxt == nil {
		return strconv.Quote(m.Msgid)
	}
	return strconv.Quote(*m.Msgctxt) + " " + strconv.Quote(m.Msgid)
}

func (d catalogDiff) empty() bool {
	return len(d.added)+len(d.removed)+len(d.changed) == 0 && !d.headers
}

func (d catalogDiff) print(w io.Writer) {
	for _, k := range d.added {
		_, _ = fmt.Fprintln(w, color.GreenString("+"), k)
	}
	for _, k := range d.removed {
		_, _ = fmt.Fprintln(w, color.RedString("-"), k)
	}
	for _, k := range d.changed {
		_, _ = fmt.Fprintln(w, color.YellowString("~"), k)
	}
	if d.headers {
		_, _ = fmt.Fprintln(w, color.YellowString("~"), "headers")
	}
}

// pluralWarnings lists format strings with a plural form that
// have no placeholder for the quantity.
func pluralWarnings(messages []catalog.Message) []string {
	var l []string
	for _, m := range messages {
		if !m.HasPlural() || !slices.ContainsFunc(m.Flags, isFormatFlag) {
			continue
		}
		if !fmtplaceholder.HasNumeric(m.TextPlural) {
			l = append(l, fmt.Sprintf("%s: plural %q has no quantity placeholder",
				strings.Join(m.References, ", "), m.TextPlural))
		}
	}
	return l
}

func isFormatFlag(f string) bool {
	return strings.HasSuffix(f, "-format") && !strings.HasPrefix(f, "no-")
}
