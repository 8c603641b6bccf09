package toposort_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/jsbundle/pkg/toposort"
)

func index(list []string, val string) int {
	for idx, str := range list {
		if str == val {
			return idx
		}
	}

	return -1
}

func addNodes(graph *toposort.Graph, names ...string) {
	for _, name := range names {
		graph.AddNode(name)
	}
}

type edge struct {
	From string
	To   string
}

func cyclicGraph() *toposort.Graph {
	graph := toposort.NewGraph()
	addNodes(graph, "1", "2", "3", "4", "5")

	graph.AddEdge("1", "2")
	graph.AddEdge("2", "3")
	graph.AddEdge("2", "4")
	graph.AddEdge("3", "1")
	graph.AddEdge("5", "1")

	return graph
}

func TestToposortDuplicatedNode(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()

	assert.True(t, graph.AddNode("a"))
	assert.False(t, graph.AddNode("a"))
	assert.Equal(t, 1, graph.Len())
}

func TestToposortRemoveNotExistEdge(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	assert.False(t, graph.RemoveEdge("a", "b"))
}

func TestToposortWikipedia(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	addNodes(graph, "2", "3", "5", "7", "8", "9", "10", "11")

	edges := []edge{
		{"7", "8"},
		{"7", "11"},
		{"5", "11"},
		{"3", "8"},
		{"3", "10"},
		{"11", "2"},
		{"11", "9"},
		{"11", "10"},
		{"8", "9"},
	}

	for _, e := range edges {
		graph.AddEdge(e.From, e.To)
	}

	result, ok := graph.Toposort()
	assert.True(t, ok)
	assert.Len(t, result, 8)

	for _, e := range edges {
		assert.Less(t, index(result, e.From), index(result, e.To), "%s -> %s", e.From, e.To)
	}
}

func TestToposortTieBreakIsInsertionOrder(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	addNodes(graph, "main", "b", "a")

	graph.AddEdge("b", "main")
	graph.AddEdge("a", "main")

	result, ok := graph.Toposort()
	assert.True(t, ok)
	assert.Equal(t, []string{"b", "a", "main"}, result)
}

func TestToposortCycle(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	addNodes(graph, "1", "2", "3")

	graph.AddEdge("1", "2")
	graph.AddEdge("2", "3")
	graph.AddEdge("3", "1")

	result, ok := graph.Toposort()
	assert.False(t, ok)
	assert.Empty(t, result)
}

func TestToposortOrderBreaksCycles(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	addNodes(graph, "entry", "a", "b", "leaf")

	// Dependencies point at their importers.
	graph.AddEdge("a", "entry")
	graph.AddEdge("b", "a")
	graph.AddEdge("a", "b")
	graph.AddEdge("leaf", "b")

	assert.Equal(t, []string{"leaf", "a", "entry", "b"}, graph.Order())
}

func TestToposortRemoveEdge(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	addNodes(graph, "1", "2", "3")

	graph.AddEdge("1", "2")
	graph.AddEdge("2", "3")
	graph.AddEdge("3", "1")
	graph.AddEdge("1", "3")

	assert.True(t, graph.RemoveEdge("1", "2"))
	assert.Equal(t, []string{"3"}, graph.FindChildren("1"))
}

func TestToposortFindCycle(t *testing.T) {
	t.Parallel()

	graph := cyclicGraph()

	assert.Equal(t, []string{"2", "3", "1"}, graph.FindCycle("2"))
	assert.Empty(t, graph.FindCycle("5"))
	assert.Empty(t, graph.FindCycle("missing"))
}

func TestToposortCycles(t *testing.T) {
	t.Parallel()

	graph := cyclicGraph()
	graph.AddEdge("4", "6")
	graph.AddEdge("6", "4")

	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "6"}}, graph.Cycles())
}

func TestToposortFindParents(t *testing.T) {
	t.Parallel()

	graph := cyclicGraph()

	assert.Equal(t, []string{"1"}, graph.FindParents("2"))
	assert.Equal(t, []string{"3", "5"}, graph.FindParents("1"))
	assert.Empty(t, graph.FindParents("missing"))
}

func TestToposortFindChildren(t *testing.T) {
	t.Parallel()

	graph := cyclicGraph()

	assert.Equal(t, []string{"2"}, graph.FindChildren("1"))
	assert.Equal(t, []string{"3", "4"}, graph.FindChildren("2"))
	assert.Empty(t, graph.FindChildren("missing"))
}

func TestToposortSerialize(t *testing.T) {
	t.Parallel()

	graph := toposort.NewGraph()
	graph.AddEdge("/p/b.js", "/p/a.js")
	graph.AddEdge("/p/c.js", "/p/a.js")

	gv := graph.Serialize("bundle", []string{"/p/b.js", "/p/c.js", "/p/a.js"})
	assert.Equal(t, `digraph "bundle" {
  "/p/b.js" [label="0 /p/b.js"];
  "/p/a.js" [label="2 /p/a.js"];
  "/p/c.js" [label="1 /p/c.js"];
  "/p/b.js" -> "/p/a.js";
  "/p/c.js" -> "/p/a.js";
}
`, gv)
}
