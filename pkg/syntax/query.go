package syntax

import (
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// AnchorCapture names the capture that must cover the node a query is
// matched against. Patterns without it never match.
const AnchorCapture = "stmt"

var errNilQuery = errors.New("syntax: query is nil")

// Captures maps capture names to the nodes bound in a single match.
type Captures map[string][]*Node

// One returns the first node bound to name, or nil.
func (c Captures) One(name string) *Node {
	if nodes := c[name]; len(nodes) > 0 {
		return nodes[0]
	}

	return nil
}

// Query is a compiled tree-sitter S-expression pattern.
type Query struct {
	raw     *sitter.Query
	pattern string
}

// Pattern returns the source of the query.
func (q *Query) Pattern() string { return q.pattern }

// Match runs the query over n and returns the captures of the first match
// whose anchor capture spans exactly n. Matches on nested nodes are ignored.
func (q *Query) Match(n *Node) (Captures, bool) {
	if q == nil || q.raw == nil || n == nil {
		return nil, false
	}

	cursor := sitter.NewQueryCursor()
	matches := cursor.Matches(q.raw, n.raw, n.tree.src)

	for match := matches.Next(); match != nil; match = matches.Next() {
		captures := make(Captures, len(match.Captures))
		anchored := false

		for _, c := range match.Captures {
			if c.Node.IsNull() {
				continue
			}

			name := q.raw.CaptureNameForID(c.Index)
			if name == AnchorCapture {
				anchored = c.Node.StartByte() == n.raw.StartByte() && c.Node.EndByte() == n.raw.EndByte()

				continue
			}

			captures[name] = append(captures[name], n.tree.detached(c.Node))
		}

		if anchored {
			return captures, true
		}
	}

	return nil, false
}

// Matcher compiles queries against the JavaScript grammar and caches them
// by pattern text.
type Matcher struct {
	cache map[string]*Query
	lang  *sitter.Language
	mu    sync.RWMutex
}

// NewMatcher creates a Matcher with an empty cache.
func NewMatcher() *Matcher {
	return &Matcher{
		cache: make(map[string]*Query),
		lang:  Language(),
	}
}

// Compile compiles pattern, returning a cached query when one exists.
func (m *Matcher) Compile(pattern string) (*Query, error) {
	m.mu.RLock()

	cached, ok := m.cache[pattern]
	m.mu.RUnlock()

	if ok {
		return cached, nil
	}

	compiled, err := sitter.NewQuery(m.lang, []byte(pattern))
	if err != nil {
		return nil, fmt.Errorf("syntax: compile query: %w", err)
	}

	if compiled == nil {
		return nil, errNilQuery
	}

	query := &Query{raw: compiled, pattern: pattern}

	m.mu.Lock()
	if existing, ok := m.cache[pattern]; ok {
		query = existing
	} else {
		m.cache[pattern] = query
	}
	m.mu.Unlock()

	return query, nil
}
