package sema_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/sema"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

// link threads a.Next across the given ids in order and returns the head
// (tree.NilNode if ids is empty), mirroring what a parser's sibling-list
// builder would produce.
func link(a *tree.Arena, ids ...tree.NodeID) tree.NodeID {
	if len(ids) == 0 {
		return tree.NilNode
	}
	for i := 0; i < len(ids)-1; i++ {
		a.AppendSibling(ids[i], ids[i+1])
	}
	return ids[0]
}

func constNode(a *tree.Arena, line, value int) tree.NodeID {
	id := a.New(tree.NConst, line)
	a.Get(id).Type = tree.Integer
	a.Get(id).Value = value
	return id
}

func varDecl(a *tree.Arena, line int, name string) tree.NodeID {
	id := a.New(tree.NVarDecl, line)
	n := a.Get(id)
	n.Name, n.Type = name, tree.Integer
	return id
}

func arrDecl(a *tree.Arena, line int, name string, length int) tree.NodeID {
	id := a.New(tree.NArrDecl, line)
	n := a.Get(id)
	n.Name, n.Type = name, tree.Integer
	n.Children[0] = constNode(a, line, length)
	return id
}

func paramVar(a *tree.Arena, line int, name string) tree.NodeID {
	id := a.New(tree.NParamVar, line)
	a.Get(id).Name = name
	a.Get(id).Type = tree.Integer
	return id
}

func paramArr(a *tree.Arena, line int, name string) tree.NodeID {
	id := a.New(tree.NParamArr, line)
	a.Get(id).Name = name
	a.Get(id).Type = tree.Integer
	return id
}

func varUse(a *tree.Arena, line int, name string) tree.NodeID {
	id := a.New(tree.NVar, line)
	a.Get(id).Name = name
	return id
}

func compound(a *tree.Arena, line int, decls, stmts tree.NodeID) tree.NodeID {
	id := a.New(tree.NCompound, line)
	n := a.Get(id)
	n.Children[0], n.Children[1] = decls, stmts
	return id
}

func funcDecl(a *tree.Arena, line int, name string, retType tree.SemType, params, body tree.NodeID) tree.NodeID {
	id := a.New(tree.NFuncDecl, line)
	n := a.Get(id)
	n.Name, n.Type = name, retType
	n.Children[0], n.Children[1] = params, body
	return id
}

func returnStmt(a *tree.Arena, line int, expr tree.NodeID) tree.NodeID {
	id := a.New(tree.NReturn, line)
	a.Get(id).Children[0] = expr
	return id
}

func ifStmt(a *tree.Arena, line int, cond, then, els tree.NodeID) tree.NodeID {
	id := a.New(tree.NIf, line)
	n := a.Get(id)
	n.Children[0], n.Children[1], n.Children[2] = cond, then, els
	return id
}

func boolCond(a *tree.Arena, line int) tree.NodeID {
	id := a.New(tree.NOp, line)
	n := a.Get(id)
	n.Op, n.Type = "<", tree.Boolean
	return id
}

// emptyMain is the minimal valid "int main(void){ return 0; }" required by
// every program (pass 1 fails fatally without it).
func emptyMain(a *tree.Arena) tree.NodeID {
	body := compound(a, 1, tree.NilNode, link(a, returnStmt(a, 1, constNode(a, 1, 0))))
	return funcDecl(a, 1, "main", tree.Integer, tree.NilNode, body)
}

func analyze(t *testing.T, root tree.NodeID, a *tree.Arena) (*symtab.Table, *diag.Sink, string) {
	t.Helper()
	var buf bytes.Buffer
	sink := diag.NewSink(&buf)
	table := symtab.New()
	sema.Analyze(a, table, sink, root)
	return table, sink, buf.String()
}

func TestGlobalAddressMonotonicity(t *testing.T) {
	a := tree.NewArena()
	x := varDecl(a, 1, "x")
	arr := arrDecl(a, 2, "arr", 5)
	y := varDecl(a, 3, "y")
	root := link(a, x, arr, y, emptyMain(a))

	table, sink, out := analyze(t, root, a)
	if sink.Failed() {
		t.Fatalf("unexpected failure: %s", out)
	}

	want := map[string]int{"x": symtab.GlobalAddrBase, "arr": symtab.GlobalAddrBase + 4, "y": symtab.GlobalAddrBase + 4 + 4*5}
	for name, addr := range want {
		e := table.Lookup(name, 0)
		if e == nil {
			t.Fatalf("%s: not found in symbol table", name)
		}
		if e.Addr != addr {
			t.Errorf("%s: got address %#x, want %#x", name, e.Addr, addr)
		}
	}
}

func TestLocalOffsetsAndParamOffsets(t *testing.T) {
	a := tree.NewArena()
	p1, p2 := paramVar(a, 1, "p1"), paramVar(a, 1, "p2")
	v1, v2 := varDecl(a, 2, "v1"), arrDecl(a, 3, "v2", 2)
	body := compound(a, 1, link(a, v1, v2), tree.NilNode)
	f := funcDecl(a, 1, "f", tree.Void, link(a, p1, p2), body)
	root := link(a, f, emptyMain(a))

	table, sink, out := analyze(t, root, a)
	if sink.Failed() {
		t.Fatalf("unexpected failure: %s", out)
	}

	fScope := a.Get(body).Scope
	checkOffset := func(name string, want int) {
		e := table.Lookup(name, fScope)
		if e == nil {
			t.Fatalf("%s: not found at scope %d", name, fScope)
		}
		if e.Offset != want {
			t.Errorf("%s: got offset %d, want %d", name, e.Offset, want)
		}
	}
	checkOffset("p1", 8)
	checkOffset("p2", 12)
	checkOffset("v1", -4)
	checkOffset("v2", -12)
}

func TestScopeUniqueness(t *testing.T) {
	a := tree.NewArena()
	thenBody := compound(a, 2, tree.NilNode, tree.NilNode)
	elseBody := compound(a, 2, tree.NilNode, tree.NilNode)
	ifNode := ifStmt(a, 2, boolCond(a, 2), thenBody, elseBody)
	fBody := compound(a, 1, tree.NilNode, link(a, ifNode))
	f := funcDecl(a, 1, "f", tree.Void, tree.NilNode, fBody)
	root := link(a, f, emptyMain(a))

	_, sink, out := analyze(t, root, a)
	if sink.Failed() {
		t.Fatalf("unexpected failure: %s", out)
	}

	seen := map[int]bool{}
	for _, id := range []tree.NodeID{fBody, thenBody, elseBody} {
		scope := a.Get(id).Scope
		if seen[scope] {
			t.Errorf("scope id %d reused across distinct Compound blocks", scope)
		}
		seen[scope] = true
	}
}

func TestArrayUseReclassification(t *testing.T) {
	a := tree.NewArena()
	arr := arrDecl(a, 1, "a", 3)
	use := varUse(a, 5, "a") // parser always emits bare identifiers as Var
	// Reference 'a' from inside main's body so the use is reachable.
	mainBody := compound(a, 4, tree.NilNode, link(a, returnStmt(a, 5, use)))
	main := funcDecl(a, 4, "main", tree.Integer, tree.NilNode, mainBody)
	root := link(a, arr, main)

	_, sink, out := analyze(t, root, a)
	if sink.Failed() {
		t.Fatalf("unexpected failure: %s", out)
	}

	if a.Get(use).Kind != tree.NArr {
		t.Errorf("got kind %v, want Arr after reclassification", a.Get(use).Kind)
	}
}

func TestArrayShapeMismatchYieldsTypeError(t *testing.T) {
	a := tree.NewArena()
	sumParam := paramArr(a, 1, "v")
	sumBody := compound(a, 1, tree.NilNode, link(a, returnStmt(a, 1, constNode(a, 1, 0))))
	sum := funcDecl(a, 1, "sum", tree.Integer, link(a, sumParam), sumBody)

	scalar := varDecl(a, 5, "x")
	arg := varUse(a, 6, "x") // scalar passed where an array is required
	call := a.New(tree.NFuncCall, 6)
	a.Get(call).Name = "sum"
	a.Get(call).Children[0] = link(a, arg)
	mainBody := compound(a, 4, link(a, scalar), link(a, returnStmt(a, 7, call)))
	main := funcDecl(a, 4, "main", tree.Integer, tree.NilNode, mainBody)
	root := link(a, sum, main)

	_, sink, out := analyze(t, root, a)
	if !sink.Failed() {
		t.Fatalf("expected a type error, got none")
	}
	if n := strings.Count(out, "Type Error"); n != 1 {
		t.Errorf("got %d Type Error diagnostics, want exactly 1:\n%s", n, out)
	}
}

func TestMissingReturnOnAllPaths(t *testing.T) {
	a := tree.NewArena()
	thenRet := returnStmt(a, 1, constNode(a, 1, 1))
	ifOnly := ifStmt(a, 1, boolCond(a, 1), thenRet, tree.NilNode)
	fBody := compound(a, 1, tree.NilNode, link(a, ifOnly))
	f := funcDecl(a, 1, "f", tree.Integer, tree.NilNode, fBody)

	call := a.New(tree.NFuncCall, 2)
	a.Get(call).Name = "f"
	mainBody := compound(a, 2, tree.NilNode, link(a, returnStmt(a, 2, call)))
	main := funcDecl(a, 2, "main", tree.Integer, tree.NilNode, mainBody)
	root := link(a, f, main)

	_, sink, out := analyze(t, root, a)
	if !sink.Failed() {
		t.Fatalf("expected the missing-return diagnostic, got none")
	}
	if !strings.Contains(out, "return") || !strings.Contains(out, "control paths") {
		t.Errorf("diagnostic missing expected wording:\n%s", out)
	}
}

func TestUndefinedNameReported(t *testing.T) {
	a := tree.NewArena()
	use := varUse(a, 3, "ghost")
	mainBody := compound(a, 1, tree.NilNode, link(a, returnStmt(a, 3, use)))
	main := funcDecl(a, 1, "main", tree.Integer, tree.NilNode, mainBody)

	_, sink, out := analyze(t, main, a)
	if !sink.Failed() {
		t.Fatalf("expected a var error, got none")
	}
	if !strings.Contains(out, "never defined") {
		t.Errorf("diagnostic missing expected wording:\n%s", out)
	}
}

func TestMainNotFoundIsFatal(t *testing.T) {
	a := tree.NewArena()
	root := varDecl(a, 1, "x")

	_, sink, out := analyze(t, root, a)
	if !sink.Failed() {
		t.Fatalf("expected a fatal error, got none")
	}
	if !strings.Contains(out, "main not found") {
		t.Errorf("diagnostic missing expected wording:\n%s", out)
	}
}
