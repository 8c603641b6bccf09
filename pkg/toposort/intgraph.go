package toposort

import "container/heap"

// IntGraph is a directed graph over dense integer IDs.
type IntGraph struct {
	// nodes[u] lists v for every edge u -> v, in insertion order.
	nodes    [][]int
	inDegree []int
}

// NewIntGraph creates an empty IntGraph.
func NewIntGraph() *IntGraph {
	return &IntGraph{}
}

// Len returns the number of nodes.
func (g *IntGraph) Len() int { return len(g.nodes) }

// EnsureCapacity grows the graph to hold IDs below n.
func (g *IntGraph) EnsureCapacity(n int) {
	for len(g.nodes) < n {
		g.nodes = append(g.nodes, nil)
		g.inDegree = append(g.inDegree, 0)
	}
}

// AddNode makes id part of the graph. It reports whether the graph grew.
func (g *IntGraph) AddNode(id int) bool {
	if id < len(g.nodes) {
		return false
	}

	g.EnsureCapacity(id + 1)

	return true
}

// AddEdge adds u -> v. It reports false when the edge already exists.
func (g *IntGraph) AddEdge(u, v int) bool {
	g.EnsureCapacity(max(u, v) + 1)

	for _, neighbor := range g.nodes[u] {
		if neighbor == v {
			return false
		}
	}

	g.nodes[u] = append(g.nodes[u], v)
	g.inDegree[v]++

	return true
}

// RemoveEdge deletes u -> v if present.
func (g *IntGraph) RemoveEdge(u, v int) bool {
	if u >= len(g.nodes) || v >= len(g.nodes) {
		return false
	}

	for i, neighbor := range g.nodes[u] {
		if neighbor == v {
			g.nodes[u] = append(g.nodes[u][:i], g.nodes[u][i+1:]...)
			g.inDegree[v]--

			return true
		}
	}

	return false
}

// TopoSort orders nodes with Kahn's algorithm, always taking the lowest
// ready ID next. It returns false, with the nodes sorted so far, when the
// graph has a cycle.
func (g *IntGraph) TopoSort() ([]int, bool) {
	order := g.sort(false)

	return order, len(order) == len(g.nodes)
}

// SortBreakingCycles orders every node like TopoSort, but when only nodes
// blocked by cycles remain it releases the lowest ID that lies on a cycle
// and carries on.
func (g *IntGraph) SortBreakingCycles() []int {
	return g.sort(true)
}

func (g *IntGraph) sort(breakCycles bool) []int {
	n := len(g.nodes)
	inDegree := make([]int, n)
	copy(inDegree, g.inDegree)

	done := make([]bool, n)
	ready := &idHeap{}

	for id := range n {
		if inDegree[id] == 0 {
			heap.Push(ready, id)
		}
	}

	result := make([]int, 0, n)
	next := 0

	for len(result) < n {
		if ready.Len() == 0 {
			if !breakCycles {
				break
			}

			forced := g.nextOnCycle(done, &next)
			inDegree[forced] = 0
			heap.Push(ready, forced)
		}

		u, _ := heap.Pop(ready).(int)
		if done[u] {
			continue
		}

		done[u] = true
		result = append(result, u)

		for _, v := range g.nodes[u] {
			if done[v] {
				continue
			}

			inDegree[v]--
			if inDegree[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}

	return result
}

// nextOnCycle returns the lowest pending ID that lies on a cycle, advancing
// *from past IDs that never will. Membership in a cycle is static, and a
// cycle through a finished node is finished as a whole.
func (g *IntGraph) nextOnCycle(done []bool, from *int) int {
	for ; *from < len(g.nodes); *from++ {
		if !done[*from] && len(g.FindCycle(*from)) > 0 {
			return *from
		}
	}

	for id, finished := range done {
		if !finished {
			return id
		}
	}

	return 0
}

// FindCycle returns a shortest cycle through start as start -> ... -> start,
// or an empty slice.
func (g *IntGraph) FindCycle(start int) []int {
	if start < 0 || start >= len(g.nodes) {
		return []int{}
	}

	parent := map[int]int{start: -1}
	queue := []int{start}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.nodes[u] {
			if v == start {
				cycle := []int{start}
				for cur := u; cur != start && cur != -1; cur = parent[cur] {
					cycle = append(cycle, cur)
				}

				cycle = append(cycle, start)

				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}

				return cycle
			}

			if _, seen := parent[v]; !seen {
				parent[v] = u
				queue = append(queue, v)
			}
		}
	}

	return []int{}
}

type idHeap []int

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *idHeap) Push(x any) {
	if id, ok := x.(int); ok {
		*h = append(*h, id)
	}
}

func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]

	return x
}
