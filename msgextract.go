// Package msgextract extracts translatable messages from JavaScript,
// TypeScript, HTML and Go sources into GNU gettext catalogs.
//
// A Session owns the catalog of one extraction run. Parsers created
// by a session merge into its catalog:
//
//	s := msgextract.New()
//	t, err := jsparser.CallExpression([]string{"t"}, jsparser.CallOptions{})
//	...
//	err = s.ParseFiles(ctx, s.JS(t), []string{"src/**/*.js"}, msgextract.FilesOptions{})
//	...
//	written, err := s.SavePOT("messages.pot")
package msgextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/romshark/msgextract/catalog"
	"github.com/romshark/msgextract/gettext"
	"github.com/romshark/msgextract/goparser"
	"github.com/romshark/msgextract/htmlparser"
	"github.com/romshark/msgextract/internal/source"
	"github.com/romshark/msgextract/internal/writepo"
	"github.com/romshark/msgextract/jsparser"
)

// Session is a single extraction run.
// Session is not safe for concurrent use.
type Session struct {
	builder    *catalog.Builder
	stats      *catalog.Statistics
	log        *zap.Logger
	nodeBudget int
}

type Option func(*Session)

// WithLogger sets the logger of the session and all of its parsers.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithStatistics records statistics into stats instead of a fresh record.
func WithStatistics(stats *catalog.Statistics) Option {
	return func(s *Session) { s.stats = stats }
}

// WithNodeBudget limits the number of syntax tree nodes visited per file
// by JavaScript and HTML parsers. Zero means unlimited.
func WithNodeBudget(n int) Option {
	return func(s *Session) { s.nodeBudget = n }
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.stats == nil {
		s.stats = new(catalog.Statistics)
	}
	s.builder = catalog.NewBuilder(s.stats)
	return s
}

// Builder returns the catalog builder of the session.
func (s *Session) Builder() *catalog.Builder { return s.builder }

// JS creates a JavaScript parser merging into the session catalog.
func (s *Session) JS(extractors ...jsparser.Extractor) *jsparser.Parser {
	return jsparser.New(s.builder, extractors,
		jsparser.WithLogger(s.log.Named("js")),
		jsparser.WithNodeBudget(s.nodeBudget))
}

// HTML creates an HTML parser merging into the session catalog.
func (s *Session) HTML(extractors ...htmlparser.Extractor) *htmlparser.Parser {
	return htmlparser.New(s.builder, extractors,
		htmlparser.WithLogger(s.log.Named("html")),
		htmlparser.WithNodeBudget(s.nodeBudget))
}

// Go creates a Go parser merging into the session catalog.
func (s *Session) Go(extractors ...goparser.Extractor) *goparser.Parser {
	return goparser.New(s.builder, extractors, goparser.WithLogger(s.log.Named("go")))
}

// AddMessage merges a single fragment into the session catalog.
func (s *Session) AddMessage(f catalog.Fragment) error { return s.builder.Add(f) }

// Messages returns all messages ordered by context and text.
func (s *Session) Messages() []catalog.Message { return s.builder.Messages() }

// Contexts returns all contexts ordered by name.
func (s *Session) Contexts() []catalog.Context { return s.builder.Contexts() }

// MessagesByContext returns the messages of context name ordered by text.
func (s *Session) MessagesByContext(name string) []catalog.Message {
	return s.builder.MessagesByContext(name)
}

// Stats returns the statistics of the session.
func (s *Session) Stats() *catalog.Statistics { return s.stats }

// PrintStats writes a summary of the session statistics to w.
func (s *Session) PrintStats(w io.Writer) { s.stats.Print(w) }

// POT renders the catalog as a `.pot` template.
func (s *Session) POT(headers ...gettext.Header) (string, error) {
	var b bytes.Buffer
	if err := s.WritePOT(&b, headers...); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WritePOT writes the catalog as a `.pot` template to w.
func (s *Session) WritePOT(w io.Writer, headers ...gettext.Header) error {
	return writepo.WriteTemplate(w, s.builder.Messages(), headers...)
}

// PO renders the catalog as an untranslated `.po` file for locale.
func (s *Session) PO(locale language.Tag, headers ...gettext.Header) (string, error) {
	return s.UpdatePO(nil, locale, headers...)
}

// UpdatePO renders the catalog as a `.po` file for locale keeping the
// translations and headers of the existing `.po` file contents.
// Translations of messages no longer extracted are kept as obsolete entries.
// An empty existing is equivalent to PO.
func (s *Session) UpdatePO(
	existing []byte, locale language.Tag, headers ...gettext.Header,
) (string, error) {
	f, err := writepo.Catalog(s.builder.Messages(), locale, headers...)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		prev, err := (gettext.Decoder{}).Decode("existing catalog", bytes.NewReader(existing))
		if err != nil {
			return "", fmt.Errorf("reading existing catalog: %w", err)
		}
		f = writepo.Merge(f, prev)
	}
	var b bytes.Buffer
	if err := (gettext.Encoder{}).Encode(&b, f); err != nil {
		return "", fmt.Errorf("writing catalog: %w", err)
	}
	return b.String(), nil
}

// SavePOT writes the `.pot` template to path unless the file
// already has identical contents. written reports whether path was written.
func (s *Session) SavePOT(path string, headers ...gettext.Header) (written bool, err error) {
	pot, err := s.POT(headers...)
	if err != nil {
		return false, err
	}
	return s.save(path, []byte(pot))
}

// SavePO writes the `.po` file for locale to path unless the file
// already has identical contents. Translations in an existing file
// are kept, see UpdatePO. written reports whether path was written.
func (s *Session) SavePO(
	path string, locale language.Tag, headers ...gettext.Header,
) (written bool, err error) {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	po, err := s.UpdatePO(existing, locale, headers...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	return s.save(path, []byte(po))
}

func (s *Session) save(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return false, fmt.Errorf("reading %s: %w", path, err)
	case Digest(existing) == Digest(content):
		s.log.Debug("output unchanged", zap.String("path", path))
		return false, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.Debug("output written",
		zap.String("path", path), zap.Int("bytes", len(content)))
	return true, nil
}

// Digest returns the content digest used to detect unchanged output.
func Digest(content []byte) uint64 { return xxhash.Sum64(content) }

// SourceParser is a parser merging a source file into a session catalog.
// *jsparser.Parser, *htmlparser.Parser and *goparser.Parser implement it.
type SourceParser interface {
	ParseBytes(ctx context.Context, source []byte, filename string) error
}

// FilesOptions configure ParseFiles.
type FilesOptions struct {
	// Root is the directory patterns are relative to.
	// References are relative to Root. Defaults to ".".
	Root string

	// Exclude holds gitignore style patterns of files to skip.
	Exclude []string

	// IgnoreGitignore disables honoring the .gitignore file of Root.
	IgnoreGitignore bool

	// Workers limits concurrent file reads. Defaults to the number of CPUs.
	Workers int

	// KeepGoing continues after files that fail to parse and
	// returns all errors combined once every file was parsed.
	KeepGoing bool
}

// ParseFiles parses every file under opts.Root matching any of the
// gitignore style patterns with p. Files are read concurrently
// and merged sequentially in lexical order of their paths.
func (s *Session) ParseFiles(
	ctx context.Context, p SourceParser, patterns []string, opts FilesOptions,
) error {
	if opts.Root == "" {
		opts.Root = "."
	}
	start := time.Now()
	paths, err := source.Glob(opts.Root, patterns, source.Options{
		Exclude:         opts.Exclude,
		IgnoreGitignore: opts.IgnoreGitignore,
	})
	if err != nil {
		return err
	}
	files, err := source.Read(ctx, paths, opts.Workers)
	if err != nil {
		return err
	}

	var errs error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := f.Path
		if rel, err := filepath.Rel(opts.Root, f.Path); err == nil {
			name = filepath.ToSlash(rel)
		}
		err := p.ParseBytes(ctx, f.Content, name)
		if err == nil {
			s.log.Debug("file parsed", zap.String("file", name))
			continue
		}
		if !opts.KeepGoing || errors.Is(err, catalog.ErrConfig) {
			return err
		}
		s.log.Warn("skipping file", zap.String("file", name), zap.Error(err))
		errs = multierr.Append(errs, err)
	}
	s.log.Debug("files parsed",
		zap.Strings("patterns", patterns),
		zap.Int("files", len(files)),
		zap.Duration("took", time.Since(start)))
	return errs
}
