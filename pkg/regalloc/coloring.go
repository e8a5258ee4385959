package regalloc

import (
	"fmt"

	"github.com/cminus-lang/cminusc/pkg/utils"
)

// K is the number of physical temporary registers made available to the
// colorer (spec.md §4.5 default). Palette names the full pool the assembly
// emitter draws register mnemonics from; only the first K entries are ever
// assigned as colors.
const K = 4

var Palette = []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"}

// Result is the colorer's output: a mapping from virtual register id to a
// color in [0, K).
type Result struct {
	Color map[int]int
}

// pickSimplifiable returns a node with degree < K, preferring the lowest
// id among ties for determinism; ok is false if none qualifies.
func pickSimplifiable(g *Graph, k int) (int, bool) {
	for _, v := range g.Nodes() {
		if g.Degree(v) < k {
			return v, true
		}
	}
	return 0, false
}

// pickSpillCandidate returns the highest-degree node (ties broken by lowest
// id), per spec.md §4.5 step 1's "pop the node with the largest current
// degree" fallback. It is still pushed onto the simplify stack, not spilled
// (spill code generation is an explicit non-goal; failure to color later is
// reported as a fatal error instead).
func pickSpillCandidate(g *Graph) int {
	best, bestDeg := -1, -1
	for _, v := range g.Nodes() {
		if d := g.Degree(v); d > bestDeg {
			best, bestDeg = v, d
		}
	}
	return best
}

// Color runs Chaitin-Briggs simplify/select over g (spec.md §4.5). On
// success every edge (u,v) satisfies Color[u] != Color[v] (the §8
// "coloring correctness" property). Failure returns the "must spill" fatal
// diagnostic text verbatim.
func Color(g *Graph) (*Result, error) {
	working := g.clone()
	var stack utils.Stack[int]

	for len(working.Nodes()) > 0 {
		node, ok := pickSimplifiable(working, K)
		if !ok {
			node = pickSpillCandidate(working)
		}
		stack.Push(node)
		working.remove(node)
	}

	result := &Result{Color: map[int]int{}}
	for stack.Count() > 0 {
		node, _ := stack.Pop()

		used := map[int]bool{}
		for _, nb := range g.Neighbors(node) {
			if c, ok := result.Color[nb]; ok {
				used[c] = true
			}
		}

		assigned := -1
		for c := 0; c < K; c++ {
			if !used[c] {
				assigned = c
				break
			}
		}
		if assigned == -1 {
			return nil, fmt.Errorf("%d registers are not enough, must spill", K)
		}
		result.Color[node] = assigned
	}
	return result, nil
}
