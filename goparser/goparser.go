// Package goparser extracts messages from calls in Go source files.
package goparser

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"os"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/packages"

	"github.com/romshark/msgextract/catalog"
)

var ErrSyntax = errors.New("syntax error")

// File is a parsed Go source file as seen by extractors.
type File struct {
	Name   string
	Source []byte
	Fset   *token.FileSet
	AST    *ast.File

	info   *types.Info               // Nil unless loaded as part of a package.
	consts map[string]constant.Value // File level constants without type info.
}

// Position returns the position of p.
func (f *File) Position(p token.Pos) token.Position { return f.Fset.Position(p) }

// StringValue returns the constant string value of e.
// Supported are string literals, constants and concatenations of those.
func (f *File) StringValue(e ast.Expr) (string, bool) {
	v := f.constValue(e)
	if v == nil || v.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(v), true
}

func (f *File) constValue(e ast.Expr) constant.Value {
	if f.info != nil {
		return f.info.Types[e].Value
	}
	switch e := e.(type) {
	case *ast.BasicLit:
		if e.Kind != token.STRING {
			return nil
		}
		if v := constant.MakeFromLiteral(e.Value, e.Kind, 0); v.Kind() != constant.Unknown {
			return v
		}
	case *ast.ParenExpr:
		return f.constValue(e.X)
	case *ast.BinaryExpr:
		if e.Op != token.ADD {
			return nil
		}
		x, y := f.constValue(e.X), f.constValue(e.Y)
		if x == nil || y == nil || x.Kind() != constant.String || y.Kind() != constant.String {
			return nil
		}
		return constant.BinaryOp(x, token.ADD, y)
	case *ast.Ident:
		return f.consts[e.Name]
	}
	return nil
}

// collectConsts records the string constants declared at file level.
func (f *File) collectConsts() {
	f.consts = map[string]constant.Value{}
	for _, d := range f.AST.Decls {
		g, ok := d.(*ast.GenDecl)
		if !ok || g.Tok != token.CONST {
			continue
		}
		for _, s := range g.Specs {
			vs := s.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					break
				}
				if v := f.constValue(vs.Values[i]); v != nil {
					f.consts[name.Name] = v
				}
			}
		}
	}
}

// Extractor inspects call and returns the fragments found at it.
// stack holds the enclosing nodes, the call being the last.
type Extractor func(call *ast.CallExpr, stack []ast.Node, f *File) []catalog.Fragment

// Parser walks Go syntax trees invoking its extractors at every call
// and merges the resulting fragments into a catalog builder.
type Parser struct {
	builder    *catalog.Builder
	extractors []Extractor
	log        *zap.Logger
}

type Option func(*Parser)

// WithLogger sets the logger, defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.log = l }
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

// ParseString parses source as if it was read from filename.
func (p *Parser) ParseString(ctx context.Context, source, filename string) error {
	return p.ParseBytes(ctx, []byte(source), filename)
}

// ParseBytes parses source as if it was read from filename.
// Identifiers resolve to constants declared in the same file only.
func (p *Parser) ParseBytes(ctx context.Context, source []byte, filename string) error {
	if len(p.extractors) == 0 {
		return catalog.ErrNoExtractors
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, source, parser.ParseComments)
	if err != nil {
		return sourceError(filename, err)
	}
	f := &File{Name: filename, Source: source, Fset: fset, AST: file}
	f.collectConsts()
	return p.add(f)
}

// ParsePackages loads the packages matching patterns with type information
// and parses all of their files. Identifiers resolve to any constant.
func (p *Parser) ParsePackages(ctx context.Context, dir string, patterns ...string) error {
	if len(p.extractors) == 0 {
		return catalog.ErrNoExtractors
	}
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			if e.Kind == packages.ParseError {
				return &catalog.SourceError{
					Filename: e.Pos, Err: fmt.Errorf("%w: %s", ErrSyntax, e.Msg),
				}
			}
		}
		for _, file := range pkg.Syntax {
			name := fset.Position(file.Pos()).Filename
			src, err := os.ReadFile(name)
			if err != nil {
				return &catalog.SourceError{Filename: name, Err: err}
			}
			f := &File{
				Name: name, Source: src, Fset: fset, AST: file, info: pkg.TypesInfo,
			}
			if err := p.add(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) add(f *File) error {
	var fragments []catalog.Fragment
	in := inspector.New([]*ast.File{f.AST})
	in.WithStack([]ast.Node{(*ast.CallExpr)(nil)},
		func(n ast.Node, push bool, stack []ast.Node) bool {
			if !push {
				return true
			}
			for _, x := range p.extractors {
				fragments = append(fragments, x(n.(*ast.CallExpr), stack, f)...)
			}
			return true
		})
	p.log.Debug("parsed go file",
		zap.String("file", f.Name), zap.Int("fragments", len(fragments)))
	p.builder.Stats().AddParsedFile(len(fragments) > 0)
	return p.builder.AddAll(fragments)
}

func sourceError(filename string, err error) error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return &catalog.SourceError{
			Filename: filename,
			Line:     list[0].Pos.Line,
			Column:   list[0].Pos.Column,
			Err:      fmt.Errorf("%w: %s", ErrSyntax, list[0].Msg),
		}
	}
	return &catalog.SourceError{Filename: filename, Err: fmt.Errorf("%w: %w", ErrSyntax, err)}
}
