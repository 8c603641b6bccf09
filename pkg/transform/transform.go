// Package transform rewrites the ES module interface of a single module into
// calls against the bundle runtime: imports become loader calls and exports
// become assignments onto the module's exports container.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
)

// Names bound inside every module factory.
const (
	// ExportsName is the factory parameter holding the module's exports.
	ExportsName = "exports"
	// LoaderName is the factory parameter used to load other modules.
	LoaderName = "require"
)

var (
	errNoBinding       = errors.New("statement binds no recognizable names")
	errOverlappingEdit = errors.New("overlapping statement edits")
)

// Resolver maps a specifier written in the module to the canonical path of
// the module it names.
type Resolver func(specifier string) (string, error)

type rewriteFunc func(rc *rewriteContext, stmt *syntax.Node, caps syntax.Captures) (string, error)

type shapeSpec struct {
	name    string
	pattern string
	rewrite rewriteFunc
}

type shape struct {
	shapeSpec

	query *syntax.Query
}

// Transformer rewrites modules. It is safe for concurrent use.
type Transformer struct {
	parser  *syntax.Parser
	imports []shape
	exports []shape
}

// New compiles the statement shapes. p may be nil.
func New(p *syntax.Parser) (*Transformer, error) {
	if p == nil {
		p = syntax.NewParser()
	}

	matcher := syntax.NewMatcher()

	importShapeList, err := compileShapes(matcher, importShapes)
	if err != nil {
		return nil, err
	}

	exportShapeList, err := compileShapes(matcher, exportShapes)
	if err != nil {
		return nil, err
	}

	return &Transformer{parser: p, imports: importShapeList, exports: exportShapeList}, nil
}

func compileShapes(m *syntax.Matcher, specs []shapeSpec) ([]shape, error) {
	shapes := make([]shape, 0, len(specs))

	for _, spec := range specs {
		q, err := m.Compile(spec.pattern)
		if err != nil {
			return nil, fmt.Errorf("transform: shape %s: %w", spec.name, err)
		}

		shapes = append(shapes, shape{shapeSpec: spec, query: q})
	}

	return shapes, nil
}

type edit struct {
	span syntax.Span
	text string
}

// Transform rewrites every top-level import and export statement of src.
// Bytes outside the rewritten statements are copied unchanged, so running
// it over its own output returns that output.
func (t *Transformer) Transform(ctx context.Context, path string, src []byte, resolve Resolver) ([]byte, error) {
	tree, err := t.parser.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", path, err)
	}
	defer tree.Close()

	rc := &rewriteContext{path: path, resolve: resolve}

	var edits []edit

	for _, stmt := range tree.Statements() {
		var shapes []shape

		switch stmt.Kind() {
		case syntax.KindImportStatement:
			shapes = t.imports
		case syntax.KindExportStatement:
			shapes = t.exports
		default:
			continue
		}

		text, matched, err := rewriteStatement(rc, shapes, stmt)
		if err != nil {
			return nil, builderr.Attach(err, path)
		}

		if !matched {
			if stmt.Kind() == syntax.KindImportStatement {
				return nil, builderr.New(builderr.ErrUnresolvableBinding, path, errNoBinding).
					WithStatement(stmt.Text())
			}

			continue
		}

		edits = append(edits, edit{span: stmt.Span(), text: text})
	}

	return apply(src, edits)
}

func rewriteStatement(rc *rewriteContext, shapes []shape, stmt *syntax.Node) (string, bool, error) {
	for _, sh := range shapes {
		caps, ok := sh.query.Match(stmt)
		if !ok {
			continue
		}

		text, err := sh.rewrite(rc, stmt, caps)
		if errors.Is(err, errShapeMismatch) {
			continue
		}

		if err != nil {
			var be *builderr.Error
			if errors.As(err, &be) && be.Statement == "" {
				be.WithStatement(stmt.Text())
			}

			return "", false, err
		}

		return text, true, nil
	}

	return "", false, nil
}

// apply copies src with each edit's span replaced. Edits arrive in source
// order and must not overlap.
func apply(src []byte, edits []edit) ([]byte, error) {
	if len(edits) == 0 {
		out := make([]byte, len(src))
		copy(out, src)

		return out, nil
	}

	var buf bytes.Buffer

	buf.Grow(len(src))

	cursor := 0

	for _, e := range edits {
		if e.span.Start < cursor || e.span.End > len(src) {
			return nil, fmt.Errorf("transform: %w at byte %d", errOverlappingEdit, e.span.Start)
		}

		buf.Write(src[cursor:e.span.Start])
		buf.WriteString(e.text)
		cursor = e.span.End
	}

	buf.Write(src[cursor:])

	return buf.Bytes(), nil
}
