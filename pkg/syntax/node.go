package syntax

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Span is a half-open byte range [Start, End) into the module source.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Node is a syntax tree node with parent and sibling links. Children are
// materialized lazily on first access, so a Node must not be shared across
// goroutines.
type Node struct {
	raw      sitter.Node
	tree     *Tree
	parent   *Node
	children []*Node
	index    int
	loaded   bool
}

// Kind returns the grammar node type, e.g. "import_statement".
func (n *Node) Kind() string { return n.raw.Type() }

// IsNamed reports whether the node is a named grammar rule rather than an
// anonymous token such as "import" or ";".
func (n *Node) IsNamed() bool { return n.raw.IsNamed() }

// Span returns the byte range of the node.
func (n *Node) Span() Span {
	return Span{Start: int(n.raw.StartByte()), End: int(n.raw.EndByte())}
}

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	sp := n.Span()

	return string(n.tree.src[sp.Start:sp.End])
}

// Line returns the zero-based row where the node starts.
func (n *Node) Line() int { return int(n.raw.StartPoint().Row) }

// Parent returns the enclosing node, or nil for the root and for detached
// query captures.
func (n *Node) Parent() *Node { return n.parent }

// Children returns every child, named and anonymous, in source order.
func (n *Node) Children() []*Node {
	if n.loaded {
		return n.children
	}

	count := int(n.raw.ChildCount())
	n.children = make([]*Node, 0, count)

	for i := range n.raw.ChildCount() {
		child := n.raw.Child(i)
		if child.IsNull() {
			continue
		}

		n.children = append(n.children, &Node{
			raw:    child,
			tree:   n.tree,
			parent: n,
			index:  len(n.children),
		})
	}

	n.loaded = true

	return n.children
}

// NamedChildren returns the named children, skipping comments.
func (n *Node) NamedChildren() []*Node {
	var named []*Node

	for _, child := range n.Children() {
		if child.IsNamed() && child.Kind() != KindComment {
			named = append(named, child)
		}
	}

	return named
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	children := n.Children()
	if len(children) == 0 {
		return nil
	}

	return children[0]
}

// NextSibling returns the following sibling or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}

	siblings := n.parent.Children()
	if n.index+1 >= len(siblings) {
		return nil
	}

	return siblings[n.index+1]
}

// Field returns the child stored under the grammar field name, or nil.
func (n *Node) Field(name string) *Node {
	target := n.raw.ChildByFieldName(name)
	if target.IsNull() {
		return nil
	}

	start, end := target.StartByte(), target.EndByte()
	kind := target.Type()

	for _, child := range n.Children() {
		if child.raw.StartByte() == start && child.raw.EndByte() == end && child.Kind() == kind {
			return child
		}
	}

	return nil
}

// Find returns the first direct child of the given kind, or nil.
func (n *Node) Find(kind string) *Node {
	for _, child := range n.Children() {
		if child.Kind() == kind {
			return child
		}
	}

	return nil
}

// Has reports whether n has a direct child of the given kind.
func (n *Node) Has(kind string) bool { return n.Find(kind) != nil }

// Walk visits n and its descendants in pre-order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) {
	n.walk(fn)
}

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}

	for _, child := range n.Children() {
		if !child.walk(fn) {
			return false
		}
	}

	return true
}

// detached wraps a node found outside the parent-linked walk, such as a
// query capture. It can still descend but has no parent or siblings.
func (t *Tree) detached(raw sitter.Node) *Node {
	return &Node{raw: raw, tree: t, index: -1}
}
