package codegen_test

import (
	"bytes"
	"testing"

	"github.com/cminus-lang/cminusc/pkg/codegen"
	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/ir"
	"github.com/cminus-lang/cminusc/pkg/sema"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

func link(a *tree.Arena, ids ...tree.NodeID) tree.NodeID {
	if len(ids) == 0 {
		return tree.NilNode
	}
	for i := 0; i < len(ids)-1; i++ {
		a.AppendSibling(ids[i], ids[i+1])
	}
	return ids[0]
}

func constNode(a *tree.Arena, value int) tree.NodeID {
	id := a.New(tree.NConst, 1)
	n := a.Get(id)
	n.Type, n.Value = tree.Integer, value
	return id
}

func binOp(a *tree.Arena, op string, lhs, rhs tree.NodeID) tree.NodeID {
	id := a.New(tree.NOp, 1)
	n := a.Get(id)
	n.Op, n.Type, n.Children[0], n.Children[1] = op, tree.Integer, lhs, rhs
	return id
}

func relOp(a *tree.Arena, op string, lhs, rhs tree.NodeID) tree.NodeID {
	id := a.New(tree.NOp, 1)
	n := a.Get(id)
	n.Op, n.Type, n.Children[0], n.Children[1] = op, tree.Boolean, lhs, rhs
	return id
}

func writeStmt(a *tree.Arena, expr tree.NodeID) tree.NodeID {
	id := a.New(tree.NWrite, 1)
	a.Get(id).Children[0] = expr
	return id
}

func returnStmt(a *tree.Arena, expr tree.NodeID) tree.NodeID {
	id := a.New(tree.NReturn, 1)
	a.Get(id).Children[0] = expr
	return id
}

func compound(a *tree.Arena, decls, stmts tree.NodeID) tree.NodeID {
	id := a.New(tree.NCompound, 1)
	n := a.Get(id)
	n.Children[0], n.Children[1] = decls, stmts
	return id
}

func funcDecl(a *tree.Arena, name string, retType tree.SemType, params, body tree.NodeID) tree.NodeID {
	id := a.New(tree.NFuncDecl, 1)
	n := a.Get(id)
	n.Name, n.Type, n.Children[0], n.Children[1] = name, retType, params, body
	return id
}

// buildScenario1 builds the tree for
// "int main(void){ write(3+4*2); return 0; }" (spec.md end-to-end scenario 1).
func buildScenario1(t *testing.T) (*tree.Arena, *symtab.Table, tree.NodeID) {
	t.Helper()
	a := tree.NewArena()
	expr := binOp(a, "+", constNode(a, 3), binOp(a, "*", constNode(a, 4), constNode(a, 2)))
	body := compound(a, tree.NilNode, link(a, writeStmt(a, expr), returnStmt(a, constNode(a, 0))))
	main := funcDecl(a, "main", tree.Integer, tree.NilNode, body)

	var buf bytes.Buffer
	sink := diag.NewSink(&buf)
	table := symtab.New()
	sema.Analyze(a, table, sink, main)
	if sink.Failed() {
		t.Fatalf("analysis unexpectedly failed: %s", buf.String())
	}
	return a, table, main
}

func TestGenerateProgramPreamble(t *testing.T) {
	a, table, root := buildScenario1(t)
	m := codegen.Generate(a, table, root)

	if m.Head == nil {
		t.Fatal("empty module")
	}
	// Skip the leading comment; the next three nodes are the preamble.
	n := m.Head
	for n.Op == ir.COMMENT {
		n = n.Next
	}
	if n.Op != ir.CALL || n.Label != "main" {
		t.Errorf("first real instruction = %v %q, want CALL main", n.Op, n.Label)
	}
	n = n.Next
	if n.Op != ir.LI || n.Dest != ir.A7 || n.Imm != 10 {
		t.Errorf("second instruction = %+v, want LI a7, 10", n)
	}
	n = n.Next
	if n.Op != ir.ECALL {
		t.Errorf("third instruction = %v, want ECALL", n.Op)
	}
}

func TestGenerateFunctionHasLabelAndEpilogue(t *testing.T) {
	a, table, root := buildScenario1(t)
	m := codegen.Generate(a, table, root)

	var foundLabel, foundEndLabel bool
	var last *ir.Node
	for n := m.Head; n != nil; n = n.Next {
		if n.Op == ir.LABEL && n.Label == "main" {
			foundLabel = true
		}
		if n.Op == ir.LABEL && n.Label == "end_main" {
			foundEndLabel = true
		}
		last = n
	}
	if !foundLabel {
		t.Error("missing entry label for main")
	}
	if !foundEndLabel {
		t.Error("missing end_main label")
	}
	if last.Op != ir.JUMP_REG {
		t.Errorf("last instruction = %v, want JUMP_REG", last.Op)
	}
}

func TestGenerateAddressesAreMonotonic(t *testing.T) {
	a, table, root := buildScenario1(t)
	m := codegen.Generate(a, table, root)

	addr := -1
	for n := m.Head; n != nil; n = n.Next {
		if n.Op == ir.COMMENT {
			continue
		}
		if n.Address <= addr {
			t.Fatalf("address did not strictly increase: got %d after %d", n.Address, addr)
		}
		addr = n.Address
	}
}

func TestGenerateBranchesAreBackpatched(t *testing.T) {
	a := tree.NewArena()
	cond := relOp(a, "<", constNode(a, 1), constNode(a, 2))
	ifNode := a.New(tree.NIf, 1)
	thenB := returnStmt(a, constNode(a, 1))
	elseB := returnStmt(a, constNode(a, 2))
	n := a.Get(ifNode)
	n.Children[0], n.Children[1], n.Children[2] = cond, thenB, elseB

	body := compound(a, tree.NilNode, link(a, ifNode))
	main := funcDecl(a, "main", tree.Integer, tree.NilNode, body)

	var buf bytes.Buffer
	sink := diag.NewSink(&buf)
	table := symtab.New()
	sema.Analyze(a, table, sink, main)
	if sink.Failed() {
		t.Fatalf("analysis unexpectedly failed: %s", buf.String())
	}

	m := codegen.Generate(a, table, main) // AssertResolved panics on any unbackpatched branch/jump
	count := 0
	for nn := m.Head; nn != nil; nn = nn.Next {
		if nn.Op.IsBranch() || nn.Op == ir.JUMP {
			count++
			if nn.Target == nil {
				t.Errorf("node %v to %q was never backpatched", nn.Op, nn.Label)
			}
		}
	}
	if count == 0 {
		t.Fatal("expected at least one branch/jump to be generated")
	}
}
