package regalloc

import (
	"sort"

	"github.com/cminus-lang/cminusc/pkg/ir"
)

// Graph is an undirected interference graph over virtual register ids,
// represented as an adjacency-set keyed by id (spec.md §4.5: "Represent as
// an adjacency list keyed by node id").
type Graph struct {
	adj map[int]map[int]bool
}

func newGraph() *Graph {
	return &Graph{adj: map[int]map[int]bool{}}
}

func (g *Graph) addNode(v int) {
	if g.adj[v] == nil {
		g.adj[v] = map[int]bool{}
	}
}

func (g *Graph) addEdge(u, v int) {
	if u == v {
		return
	}
	g.addNode(u)
	g.addNode(v)
	g.adj[u][v] = true
	g.adj[v][u] = true
}

// Nodes returns every register id in the graph, sorted for determinism
// (spec.md §8's "emitter determinism" property depends on every upstream
// pass being order-stable).
func (g *Graph) Nodes() []int {
	out := make([]int, 0, len(g.adj))
	for v := range g.adj {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func (g *Graph) Neighbors(v int) []int {
	out := make([]int, 0, len(g.adj[v]))
	for n := range g.adj[v] {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (g *Graph) Degree(v int) int { return len(g.adj[v]) }

func (g *Graph) clone() *Graph {
	cp := newGraph()
	for v, neighbors := range g.adj {
		cp.addNode(v)
		for n := range neighbors {
			cp.adj[v][n] = true
		}
	}
	return cp
}

// remove deletes v and every edge touching it.
func (g *Graph) remove(v int) {
	for n := range g.adj[v] {
		delete(g.adj[n], v)
	}
	delete(g.adj, v)
}

// BuildInterference adds an edge between every definition and each
// still-live (id > 0) register at that definition point (spec.md §4.5).
// Liveness must already have been run on m.
func BuildInterference(m *ir.Module) *Graph {
	g := newGraph()
	for n := m.Head; n != nil; n = n.Next {
		if n.Op == ir.COMMENT {
			continue
		}
		for _, r := range [3]ir.VReg{n.Dest, n.Src1, n.Src2} {
			if r.IsVirtual() {
				g.addNode(int(r))
			}
		}
		if d, ok := def(n); ok {
			for _, w := range n.LiveOut.Members() {
				g.addEdge(int(d), w)
			}
		}
	}
	return g
}
