// Package htmlparser extracts messages from HTML documents and templates.
// Documents are tokenized with HTML5 error recovery: malformed markup
// never fails a document.
package htmlparser

import (
	"context"
	"errors"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/romshark/msgextract/catalog"
)

var ErrBudgetExceeded = errors.New("node budget exceeded")

// File is a parsed markup document as seen by extractors.
type File struct {
	Name   string
	Source []byte

	lines []int // Byte offsets of line starts.
}

// Content returns the text of a text node or the inner markup of an element.
func (f *File) Content(n *Node) string { return string(f.Source[n.ContentStart:n.ContentEnd]) }

// Row returns the zero based line of the byte offset.
func (f *File) Row(offset int) int {
	if f.lines == nil {
		f.lines = []int{0}
		for i, c := range f.Source {
			if c == '\n' {
				f.lines = append(f.lines, i+1)
			}
		}
	}
	return sort.SearchInts(f.lines, offset+1) - 1
}

// Extractor inspects a single syntax tree node and returns the fragments
// found at it. lineStart is the line number of the first source line.
type Extractor func(
	ctx context.Context, n *Node, f *File, lineStart int,
) ([]catalog.Fragment, error)

// ParseOptions configure parsing of in-memory sources.
type ParseOptions struct {
	// LineNumberStart is the line number of the first line, defaults to 1.
	LineNumberStart int
}

// Parser walks markup documents invoking its extractors at every node
// and merges the resulting fragments into a catalog builder.
type Parser struct {
	builder    *catalog.Builder
	extractors []Extractor
	log        *zap.Logger
	budget     int
}

type Option func(*Parser)

// WithLogger sets the logger, defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// WithNodeBudget limits the number of syntax tree nodes visited per document.
// Zero means unlimited.
func WithNodeBudget(n int) Option {
	return func(p *Parser) { p.budget = n }
}

// New creates a parser merging into b.
func New(b *catalog.Builder, extractors []Extractor, opts ...Option) *Parser {
	p := &Parser{builder: b, extractors: extractors, log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &catalog.SourceError{Filename: path, Err: err}
	}
	return p.ParseBytes(ctx, src, path)
}

// ParseBytes parses source as if it was read from filename
// using the default options.
func (p *Parser) ParseBytes(ctx context.Context, source []byte, filename string) error {
	return p.merge(ctx, source, filename, ParseOptions{})
}

// ParseString parses source as if it was read from filename.
func (p *Parser) ParseString(
	ctx context.Context, source, filename string, opts ParseOptions,
) error {
	return p.merge(ctx, []byte(source), filename, opts)
}

func (p *Parser) merge(
	ctx context.Context, source []byte, filename string, opts ParseOptions,
) error {
	if opts.LineNumberStart == 0 {
		opts.LineNumberStart = 1
	}
	fragments, err := p.Fragments(ctx, source, filename, opts.LineNumberStart)
	if err != nil {
		return err
	}
	p.builder.Stats().AddParsedFile(len(fragments) > 0)
	return p.builder.AddAll(fragments)
}

// Fragments parses source embedded in filename starting at line lineStart
// and returns the fragments without merging them.
func (p *Parser) Fragments(
	ctx context.Context, source []byte, filename string, lineStart int,
) ([]catalog.Fragment, error) {
	if len(p.extractors) == 0 {
		return nil, catalog.ErrNoExtractors
	}
	root, err := parseTree(ctx, source)
	if err != nil {
		return nil, err
	}

	f := &File{Name: filename, Source: source}
	var fragments []catalog.Fragment
	stack := []*Node{root}
	for visited := 0; len(stack) > 0; visited++ {
		if p.budget > 0 && visited >= p.budget {
			return nil, &catalog.SourceError{Filename: filename, Err: ErrBudgetExceeded}
		}
		if visited%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, x := range p.extractors {
			l, err := x(ctx, n, f, lineStart)
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, l...)
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	p.log.Debug("parsed document",
		zap.String("file", filename), zap.Int("fragments", len(fragments)))
	return fragments, nil
}
