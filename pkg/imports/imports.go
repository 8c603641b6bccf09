// Package imports lists the module specifiers a JavaScript module depends on.
package imports

import (
	"github.com/Sumatoshi-tech/jsbundle/pkg/builderr"
	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
)

// Kind tells how a dependency was introduced.
type Kind string

const (
	// KindImport is an import statement, including side-effect imports.
	KindImport Kind = "import-statement"
	// KindReExport is an export ... from statement.
	KindReExport Kind = "re-export"
)

// Import is one dependency edge as written in the source.
type Import struct {
	Specifier string
	Kind      Kind
	Statement string
	Span      syntax.Span
}

// Extract returns the dependencies of a parsed module in source order.
// Only top-level statements are inspected; each import statement and each
// re-export contributes the first non-empty string literal among its direct
// children. A statement without one fails with builderr.ErrMalformedImport.
func Extract(tree *syntax.Tree) ([]Import, error) {
	var found []Import

	for _, stmt := range tree.Statements() {
		kind, ok := requestKind(stmt)
		if !ok {
			continue
		}

		spec, ok := literal(stmt)
		if !ok {
			return nil, builderr.New(builderr.ErrMalformedImport, "", nil).WithStatement(stmt.Text())
		}

		found = append(found, Import{
			Specifier: spec,
			Kind:      kind,
			Statement: stmt.Text(),
			Span:      stmt.Span(),
		})
	}

	return found, nil
}

func requestKind(stmt *syntax.Node) (Kind, bool) {
	switch stmt.Kind() {
	case syntax.KindImportStatement:
		return KindImport, true
	case syntax.KindExportStatement:
		if stmt.Field("source") != nil {
			return KindReExport, true
		}
	}

	return "", false
}

// literal scans the direct children of stmt once, in order.
func literal(stmt *syntax.Node) (string, bool) {
	children := stmt.Children()

	for i := 0; i < len(children); i++ {
		if children[i].Kind() != syntax.KindString {
			continue
		}

		if spec := syntax.Unquote(children[i].Text()); spec != "" {
			return spec, true
		}
	}

	return "", false
}
