package syntax_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsbundle/pkg/syntax"
)

func parse(t *testing.T, src string) *syntax.Tree {
	t.Helper()

	tree, err := syntax.NewParser().Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	return tree
}

func TestParser_Statements(t *testing.T) {
	t.Parallel()

	tree := parse(t, "import a from './a.js';\nconst x = 1;\nexport default x;\n")

	stmts := tree.Statements()
	require.Len(t, stmts, 3)
	assert.Equal(t, syntax.KindImportStatement, stmts[0].Kind())
	assert.Equal(t, syntax.KindLexicalDeclaration, stmts[1].Kind())
	assert.Equal(t, syntax.KindExportStatement, stmts[2].Kind())
	assert.Equal(t, "const x = 1;", stmts[1].Text())
	assert.Equal(t, 1, stmts[1].Line())
	assert.False(t, tree.HasErrors())
}

func TestParser_EmptySource(t *testing.T) {
	t.Parallel()

	tree := parse(t, "")

	assert.Equal(t, syntax.KindProgram, tree.Root().Kind())
	assert.Empty(t, tree.Statements())
}

func TestParser_RecoversFromSyntaxErrors(t *testing.T) {
	t.Parallel()

	tree := parse(t, "}\n")

	assert.True(t, tree.HasErrors())
}

func TestNode_Navigation(t *testing.T) {
	t.Parallel()

	tree := parse(t, "import def, { a as b } from \"./m.js\";")
	stmt := tree.Statements()[0]

	source := stmt.Field("source")
	require.NotNil(t, source)
	assert.Equal(t, syntax.KindString, source.Kind())
	assert.Equal(t, `"./m.js"`, source.Text())
	assert.Same(t, stmt, source.Parent())

	clause := stmt.Find(syntax.KindImportClause)
	require.NotNil(t, clause)
	assert.True(t, stmt.Has(syntax.KindImportClause))

	first := stmt.FirstChild()
	require.NotNil(t, first)
	assert.Equal(t, "import", first.Text())
	assert.False(t, first.IsNamed())
	assert.Same(t, clause, first.NextSibling())

	named := clause.Find(syntax.KindNamedImports)
	require.NotNil(t, named)

	specs := named.NamedChildren()
	require.Len(t, specs, 1)
	assert.Equal(t, "a", specs[0].Field("name").Text())
	assert.Equal(t, "b", specs[0].Field("alias").Text())
	assert.Nil(t, specs[0].NextSibling().NextSibling())
}

func TestNode_Walk(t *testing.T) {
	t.Parallel()

	tree := parse(t, "f(g(1), 2);")

	var idents []string

	tree.Root().Walk(func(n *syntax.Node) bool {
		if n.Kind() == syntax.KindIdentifier {
			idents = append(idents, n.Text())
		}

		return true
	})

	assert.Equal(t, []string{"f", "g"}, idents)
}

func TestSpan(t *testing.T) {
	t.Parallel()

	outer := syntax.Span{Start: 2, End: 10}

	assert.Equal(t, 8, outer.Len())
	assert.True(t, outer.Contains(syntax.Span{Start: 2, End: 10}))
	assert.True(t, outer.Contains(syntax.Span{Start: 4, End: 5}))
	assert.False(t, outer.Contains(syntax.Span{Start: 1, End: 5}))
}

func TestQuery_MatchIsAnchoredToNode(t *testing.T) {
	t.Parallel()

	m := syntax.NewMatcher()
	q, err := m.Compile(`(import_statement (import_clause (identifier) @default) source: (string) @source) @stmt`)
	require.NoError(t, err)

	tree := parse(t, "import x from './x.js';\nimport * as ns from './y.js';\n")
	stmts := tree.Statements()

	caps, ok := q.Match(stmts[0])
	require.True(t, ok)
	assert.Equal(t, "x", caps.One("default").Text())
	assert.Equal(t, `'./x.js'`, caps.One("source").Text())
	assert.Nil(t, caps.One("missing"))

	_, ok = q.Match(stmts[1])
	assert.False(t, ok)
}

func TestQuery_WithoutAnchorNeverMatches(t *testing.T) {
	t.Parallel()

	q, err := syntax.NewMatcher().Compile(`(import_statement source: (string) @source)`)
	require.NoError(t, err)

	tree := parse(t, "import './side.js';")

	_, ok := q.Match(tree.Statements()[0])
	assert.False(t, ok)
}

func TestMatcher_CachesCompiledQueries(t *testing.T) {
	t.Parallel()

	m := syntax.NewMatcher()
	pattern := `(identifier) @stmt`

	q1, err := m.Compile(pattern)
	require.NoError(t, err)

	q2, err := m.Compile(pattern)
	require.NoError(t, err)

	assert.Same(t, q1, q2)
	assert.Equal(t, pattern, q1.Pattern())
}

func TestMatcher_RejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := syntax.NewMatcher().Compile(`(no_such_node) @stmt`)
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/p/a.js", `"/p/a.js"`},
		{`C:\src\a.js`, `"C:\\src\\a.js"`},
		{`/p/"q".js`, `"/p/\"q\".js"`},
		{"/p/<a>&.js", `"/p/<a>&.js"`},
		{"/p/\u2028.js", `"/p/\u2028.js"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, syntax.Quote(tt.in))
	}
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`"./a.js"`, "./a.js"},
		{`'./a.js'`, "./a.js"},
		{"\t'./a.js' ", "./a.js"},
		{`" ./a.js "`, "./a.js"},
		{`"./a.js'`, `"./a.js'`},
		{`"`, `"`},
		{`""`, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, syntax.Unquote(tt.in), tt.in)
	}
}
