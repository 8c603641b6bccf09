package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

var (
	errPoolType   = errors.New("syntax: unexpected type in parser pool")
	errNoRootNode = errors.New("syntax: parse produced no root node")
)

// Parser turns JavaScript source into a [Tree]. It is safe for concurrent use;
// the underlying tree-sitter parsers are pooled.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Parser for the JavaScript grammar.
func NewParser() *Parser {
	lang := Language()

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses src. The caller owns the returned tree and must Close it.
// Syntax errors do not fail the parse; they surface as ERROR nodes.
func (p *Parser) Parse(ctx context.Context, src []byte) (*Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	raw, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: parse: %w", err)
	}

	root := raw.RootNode()
	if root.IsNull() {
		raw.Close()

		return nil, errNoRootNode
	}

	tree := &Tree{raw: raw, src: src}
	tree.root = &Node{raw: root, tree: tree, index: -1}

	return tree, nil
}

// Tree is a parsed module. Nodes borrow from the tree and must not be used
// after Close.
type Tree struct {
	raw  *sitter.Tree
	root *Node
	src  []byte
}

// Close releases the native tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
		t.raw = nil
	}
}

// Root returns the program node.
func (t *Tree) Root() *Node { return t.root }

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.src }

// Statements returns the top-level statements of the module in source order.
func (t *Tree) Statements() []*Node { return t.root.Children() }

// HasErrors reports whether the parser had to recover from a syntax error.
func (t *Tree) HasErrors() bool {
	found := false

	t.root.Walk(func(n *Node) bool {
		if n.Kind() == KindError {
			found = true
		}

		return !found
	})

	return found
}
