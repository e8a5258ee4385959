// Package regalloc implements the backward liveness dataflow, interference
// graph construction, and Chaitin-Briggs simplify/select coloring of
// spec.md §4.5, grounded directly on original_source/src/backend/
// reg_allocation.c's liveness/interference/color pipeline structure
// (translated into iterative dataflow over the bitset container rather
// than the source's fixed-size bit arrays).
package regalloc

import (
	"github.com/cminus-lang/cminusc/pkg/ir"
	"github.com/cminus-lang/cminusc/pkg/utils"
)

func maxVReg(m *ir.Module) int {
	max := 0
	update := func(r ir.VReg) {
		if r.IsVirtual() && int(r) > max {
			max = int(r)
		}
	}
	for n := m.Head; n != nil; n = n.Next {
		update(n.Dest)
		update(n.Src1)
		update(n.Src2)
	}
	return max
}

func nextNonComment(n *ir.Node) *ir.Node {
	for nx := n.Next; nx != nil; nx = nx.Next {
		if nx.Op != ir.COMMENT {
			return nx
		}
	}
	return nil
}

// successors returns the CFG successors of one instruction per spec.md
// §4.5's rules: an unconditional JUMP goes only to its target; a
// conditional branch goes to both the fall-through and the target;
// JUMP_REG (the epilogue's return) has none; everything else falls through.
func successors(n *ir.Node) []*ir.Node {
	switch {
	case n.Op == ir.JUMP:
		if n.Target != nil {
			return []*ir.Node{n.Target}
		}
		return nil
	case n.Op.IsBranch():
		var out []*ir.Node
		if fall := nextNonComment(n); fall != nil {
			out = append(out, fall)
		}
		if n.Target != nil {
			out = append(out, n.Target)
		}
		return out
	case n.Op == ir.JUMP_REG:
		return nil
	default:
		if fall := nextNonComment(n); fall != nil {
			return []*ir.Node{fall}
		}
		return nil
	}
}

func def(n *ir.Node) (ir.VReg, bool) {
	if n.Dest.IsVirtual() {
		return n.Dest, true
	}
	return 0, false
}

func use(n *ir.Node) []ir.VReg {
	var out []ir.VReg
	if n.Src1.IsVirtual() {
		out = append(out, n.Src1)
	}
	if n.Src2.IsVirtual() {
		out = append(out, n.Src2)
	}
	return out
}

// Liveness runs the backward iterative dataflow to a fixpoint, populating
// LiveIn/LiveOut on every non-comment instruction of m. Safe to call twice:
// a second run converges immediately onto the same sets (spec.md §8's
// "liveness fixpoint" testable property).
func Liveness(m *ir.Module) {
	size := maxVReg(m) + 1

	var instrs []*ir.Node
	for n := m.Head; n != nil; n = n.Next {
		if n.Op == ir.COMMENT {
			continue
		}
		if n.LiveIn == nil {
			n.LiveIn = utils.NewBitSet(size)
		}
		if n.LiveOut == nil {
			n.LiveOut = utils.NewBitSet(size)
		}
		instrs = append(instrs, n)
	}

	for changed := true; changed; {
		changed = false
		for i := len(instrs) - 1; i >= 0; i-- {
			n := instrs[i]

			newOut := utils.NewBitSet(size)
			for _, s := range successors(n) {
				newOut.Union(s.LiveIn)
			}

			newIn := newOut.Copy()
			if d, ok := def(n); ok {
				newIn.Clear(int(d))
			}
			for _, u := range use(n) {
				newIn.Set(int(u))
			}

			if !utils.Equals(newIn, n.LiveIn) || !utils.Equals(newOut, n.LiveOut) {
				changed = true
			}
			n.LiveIn, n.LiveOut = newIn, newOut
		}
	}
}
