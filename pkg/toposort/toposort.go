// Package toposort orders named nodes of a directed graph so that every edge
// points forward, with insertion order as the tie-break.
package toposort

import (
	"fmt"
	"strings"
)

// Graph is a directed graph of named nodes.
type Graph struct {
	symbols  *SymbolTable
	intGraph *IntGraph
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		symbols:  NewSymbolTable(),
		intGraph: NewIntGraph(),
	}
}

// AddNode inserts name. It reports false when the node already exists.
func (g *Graph) AddNode(name string) bool {
	if _, exists := g.symbols.Lookup(name); exists {
		return false
	}

	return g.intGraph.AddNode(g.symbols.Intern(name))
}

// AddEdge inserts from -> to, adding missing nodes, and returns the
// in-degree of to afterwards.
func (g *Graph) AddEdge(from, to string) int {
	u := g.symbols.Intern(from)
	v := g.symbols.Intern(to)

	g.intGraph.AddNode(u)
	g.intGraph.AddNode(v)
	g.intGraph.AddEdge(u, v)

	return g.intGraph.inDegree[v]
}

// RemoveEdge deletes from -> to if both nodes exist.
func (g *Graph) RemoveEdge(from, to string) bool {
	u, ok1 := g.symbols.Lookup(from)
	v, ok2 := g.symbols.Lookup(to)

	if !ok1 || !ok2 {
		return false
	}

	return g.intGraph.RemoveEdge(u, v)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return g.intGraph.Len() }

// Toposort returns the nodes in topological order. The boolean is false when
// a cycle prevented some nodes from being placed; they are then missing from
// the result.
func (g *Graph) Toposort() ([]string, bool) {
	ids, ok := g.intGraph.TopoSort()

	return g.names(ids), ok
}

// Order returns every node. Acyclic parts are in topological order; each
// cycle is entered at its earliest-inserted node.
func (g *Graph) Order() []string {
	return g.names(g.intGraph.SortBreakingCycles())
}

// FindCycle returns a cycle through seed without repeating seed at the end,
// or an empty slice.
func (g *Graph) FindCycle(seed string) []string {
	id, exists := g.symbols.Lookup(seed)
	if !exists {
		return []string{}
	}

	cycleIDs := g.intGraph.FindCycle(id)
	if len(cycleIDs) > 1 && cycleIDs[0] == cycleIDs[len(cycleIDs)-1] {
		cycleIDs = cycleIDs[:len(cycleIDs)-1]
	}

	return g.names(cycleIDs)
}

// Cycles returns one cycle per seed, scanning nodes in insertion order and
// skipping nodes that already appeared in a reported cycle.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string

	reported := make(map[string]bool)

	for id := range g.intGraph.Len() {
		name := g.symbols.Resolve(id)
		if reported[name] {
			continue
		}

		cycle := g.FindCycle(name)
		if len(cycle) == 0 {
			continue
		}

		for _, member := range cycle {
			reported[member] = true
		}

		cycles = append(cycles, cycle)
	}

	return cycles
}

// FindParents returns the sources of edges into to, in insertion order.
func (g *Graph) FindParents(to string) []string {
	target, exists := g.symbols.Lookup(to)
	if !exists {
		return []string{}
	}

	parents := []string{}

	for u, children := range g.intGraph.nodes {
		for _, v := range children {
			if v == target {
				parents = append(parents, g.symbols.Resolve(u))

				break
			}
		}
	}

	return parents
}

// FindChildren returns the targets of edges out of from, in insertion order.
func (g *Graph) FindChildren(from string) []string {
	u, exists := g.symbols.Lookup(from)
	if !exists || u >= g.intGraph.Len() {
		return []string{}
	}

	return g.names(g.intGraph.nodes[u])
}

// Serialize renders the graph in Graphviz DOT format. Nodes are labelled
// with their position in sorted.
func (g *Graph) Serialize(name string, sorted []string) string {
	position := make(map[string]int, len(sorted))
	for i, node := range sorted {
		position[node] = i
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %q {\n", name)

	for id := range g.intGraph.Len() {
		from := g.symbols.Resolve(id)
		fmt.Fprintf(&sb, "  %q [label=%q];\n", from, fmt.Sprintf("%d %s", position[from], from))
	}

	for id := range g.intGraph.Len() {
		from := g.symbols.Resolve(id)
		for _, to := range g.FindChildren(from) {
			fmt.Fprintf(&sb, "  %q -> %q;\n", from, to)
		}
	}

	sb.WriteString("}\n")

	return sb.String()
}

func (g *Graph) names(ids []int) []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = g.symbols.Resolve(id)
	}

	return result
}
