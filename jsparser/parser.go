// Package jsparser extracts messages from JavaScript, TypeScript and JSX
// sources using tree-sitter syntax trees.
package jsparser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"github.com/romshark/msgextract/catalog"
)

var (
	ErrSyntax         = errors.New("syntax error")
	ErrBudgetExceeded = errors.New("syntax tree node budget exceeded")
)

// Dialect selects the grammar a source is parsed with.
type Dialect uint8

const (
	DialectAuto       Dialect = iota // Chosen by file extension.
	DialectJavaScript                // JavaScript including JSX.
	DialectTypeScript
	DialectTSX
)

// DialectOf returns the dialect for filename.
func DialectOf(filename string) Dialect {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ts", ".mts", ".cts":
		return DialectTypeScript
	case ".tsx":
		return DialectTSX
	}
	return DialectJavaScript
}

func (d Dialect) language() *sitter.Language {
	switch d {
	case DialectTypeScript:
		return typescript.GetLanguage()
	case DialectTSX:
		return tsx.GetLanguage()
	}
	return javascript.GetLanguage()
}

// File is a parsed source unit as seen by extractors.
type File struct {
	Name   string
	Source []byte

	root     *sitter.Node
	lines    []int          // Byte offsets of line starts.
	comments []*sitter.Node // Nil until first requested.
}

// Content returns the source text of n.
func (f *File) Content(n *sitter.Node) string { return n.Content(f.Source) }

// row returns the zero based line of the byte offset.
func (f *File) row(offset int) int {
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

// commentNodes returns all comment nodes in source order.
func (f *File) commentNodes() []*sitter.Node {
	if f.comments != nil || f.root == nil {
		return f.comments
	}
	f.comments = []*sitter.Node{}
	stack := []*sitter.Node{f.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "comment" {
			f.comments = append(f.comments, n)
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return f.comments
}

// Extractor inspects a single syntax tree node and returns the fragments
// found at it. lineStart is the line number of the first source line.
type Extractor func(
	ctx context.Context, n *sitter.Node, f *File, lineStart int,
) ([]catalog.Fragment, error)

// ParseOptions configure parsing of in-memory sources.
type ParseOptions struct {
	// LineNumberStart is the line number of the first line, defaults to 1.
	LineNumberStart int
	Dialect         Dialect
}

// Parser walks syntax trees invoking its extractors at every node
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

// WithNodeBudget limits the number of syntax tree nodes visited per source.
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
	fragments, err := p.parse(ctx, source, filename, opts)
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
	return p.parse(ctx, source, filename, ParseOptions{LineNumberStart: lineStart})
}

func (p *Parser) parse(
	ctx context.Context, source []byte, filename string, opts ParseOptions,
) ([]catalog.Fragment, error) {
	if len(p.extractors) == 0 {
		return nil, catalog.ErrNoExtractors
	}
	if opts.Dialect == DialectAuto {
		opts.Dialect = DialectOf(filename)
	}

	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(opts.Dialect.language())
	tree, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, filename, opts.LineNumberStart)
	}

	f := &File{Name: filename, Source: source, root: root}
	fragments, err := p.walk(ctx, root, f, opts.LineNumberStart)
	if err != nil {
		return nil, err
	}
	p.log.Debug("parsed source",
		zap.String("file", filename), zap.Int("fragments", len(fragments)))
	return fragments, nil
}

// walk visits all nodes in pre-order.
func (p *Parser) walk(
	ctx context.Context, root *sitter.Node, f *File, lineStart int,
) ([]catalog.Fragment, error) {
	var fragments []catalog.Fragment
	stack := []*sitter.Node{root}
	for visited := 0; len(stack) > 0; visited++ {
		if p.budget > 0 && visited >= p.budget {
			return nil, &catalog.SourceError{Filename: f.Name, Err: ErrBudgetExceeded}
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
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return fragments, nil
}

// syntaxError returns a source error at the first error node of root.
func syntaxError(root *sitter.Node, filename string, lineStart int) error {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			pt := n.StartPoint()
			return &catalog.SourceError{
				Filename: filename,
				Line:     int(pt.Row) + lineStart,
				Column:   int(pt.Column) + 1,
				Err:      ErrSyntax,
			}
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return &catalog.SourceError{Filename: filename, Err: ErrSyntax}
}
