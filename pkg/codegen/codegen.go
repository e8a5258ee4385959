// Package codegen implements the syntax-directed AST→IR translator of
// spec.md §4.4: a single recursive traversal where every expression
// evaluates into a fresh virtual register stored on the producing node and
// every statement emits code and returns nothing.
//
// Grounded on the teacher's pkg/jack/lowering.go (one gen* method per node
// kind, emitting into a shared builder) and on pkg/vm/lowering.go's
// addressing-mode dispatch by segment, adapted here to C-minus's
// global/local/parameter/array addressing rules.
package codegen

import (
	"fmt"
	"strings"

	"github.com/cminus-lang/cminusc/pkg/ir"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

// reverseBranch maps a relational operator token to the branch opcode that
// skips the then-body (spec.md §4.4's reverse-branch table: "branch taken
// when condition fails").
var reverseBranch = map[string]ir.Op{
	"==": ir.BNE,
	"!=": ir.BEQ,
	"<":  ir.BGE,
	"<=": ir.BGT,
	">":  ir.BLE,
	">=": ir.BLT,
}

var arithOp = map[string]ir.Op{
	"+": ir.ADD,
	"-": ir.SUB,
	"*": ir.MUL,
	"/": ir.DIV,
}

type Generator struct {
	a *tree.Arena
	t *symtab.Table
	m *ir.Module

	currentEnd string
	endJumps   []*ir.Node
}

// Generate lowers every top-level declaration rooted at 'root' into a fresh
// IR module, preceded by the program preamble (spec.md §4.4: "CALL main;
// then set A7=10 and ECALL").
func Generate(a *tree.Arena, t *symtab.Table, root tree.NodeID) *ir.Module {
	g := &Generator{a: a, t: t, m: ir.NewModule()}

	g.m.InsertComment("program entry")
	g.m.InsertCall("main")
	g.m.InsertLI(ir.A7, 10)
	g.m.InsertECall()

	for id := root; id != tree.NilNode; id = a.Get(id).Next {
		if a.Get(id).Kind == tree.NFuncDecl {
			g.genFunc(id)
		}
	}

	g.m.AssertResolved()
	return g.m
}

func (g *Generator) newSuffix(prefix string) string {
	return strings.TrimPrefix(g.m.NewLabel(prefix), prefix+"_")
}

func (g *Generator) resolve(n *tree.Node) *symtab.Entry {
	return g.t.Lookup(n.Name, n.Scope)
}

// frameSize sums 4 bytes per local scalar and 4×length per local array
// declared anywhere in the function's body subtree (spec.md §9: "count each
// declaration once ... not following sibling links at the top level of the
// function body" — the walk below only ever follows Next within one decl or
// stmt list, never re-descends into a sibling's own nested blocks twice).
func frameSize(a *tree.Arena, compoundID tree.NodeID) int {
	n := a.Get(compoundID)
	size := 0
	for id := n.Children[0]; id != tree.NilNode; id = a.Get(id).Next {
		size += 4 * arrayLength(a, id)
	}
	return size + frameSizeStmts(a, n.Children[1])
}

func frameSizeStmts(a *tree.Arena, head tree.NodeID) int {
	size := 0
	for id := head; id != tree.NilNode; id = a.Get(id).Next {
		size += frameSizeStmt(a, id)
	}
	return size
}

func frameSizeStmt(a *tree.Arena, id tree.NodeID) int {
	n := a.Get(id)
	switch n.Kind {
	case tree.NCompound:
		return frameSize(a, id)
	case tree.NIf:
		return frameSizeOpt(a, n.Children[1]) + frameSizeOpt(a, n.Children[2])
	case tree.NWhile:
		return frameSizeOpt(a, n.Children[1])
	default:
		return 0
	}
}

func frameSizeOpt(a *tree.Arena, id tree.NodeID) int {
	if id == tree.NilNode {
		return 0
	}
	return frameSizeStmt(a, id)
}

func arrayLength(a *tree.Arena, declID tree.NodeID) int {
	n := a.Get(declID)
	if n.Kind != tree.NArrDecl || n.Children[0] == tree.NilNode {
		return 1
	}
	return a.Get(n.Children[0]).Value
}

// genFunc emits the prologue, body, and epilogue for one FuncDecl (spec.md
// §4.4's calling convention).
func (g *Generator) genFunc(id tree.NodeID) {
	n := g.a.Get(id)
	body := g.a.Get(n.Children[1])
	size := frameSize(g.a, n.Children[1])

	g.m.InsertComment(fmt.Sprintf("function %s", n.Name))
	g.m.InsertLabel(n.Name)
	g.m.InsertArithImm(ir.ADD, ir.SP, ir.SP, -8)
	g.m.InsertStore(ir.RA, ir.SP, 4)
	g.m.InsertStore(ir.FP, ir.SP, 0)
	g.m.InsertMov(ir.FP, ir.SP)
	if size > 0 {
		g.m.InsertArithImm(ir.ADD, ir.SP, ir.SP, int64(-size))
	}

	prevEnd, prevJumps := g.currentEnd, g.endJumps
	g.currentEnd = "end_" + n.Name
	g.endJumps = nil

	g.genStmtList(body.Children[1])

	end := g.m.InsertLabel(g.currentEnd)
	for _, j := range g.endJumps {
		ir.Backpatch(j, end)
	}
	g.currentEnd, g.endJumps = prevEnd, prevJumps

	g.m.InsertMov(ir.SP, ir.FP)
	g.m.InsertLoad(ir.RA, ir.SP, 4)
	g.m.InsertLoad(ir.FP, ir.SP, 0)
	g.m.InsertArithImm(ir.ADD, ir.SP, ir.SP, 8)
	g.m.InsertJumpReg(ir.RA)
}

func (g *Generator) genStmtList(head tree.NodeID) {
	for id := head; id != tree.NilNode; id = g.a.Get(id).Next {
		g.genStmt(id)
	}
}

func (g *Generator) genStmt(id tree.NodeID) {
	n := g.a.Get(id)
	switch n.Kind {
	case tree.NCompound:
		g.genStmtList(n.Children[1])
	case tree.NIf:
		g.genIf(n)
	case tree.NWhile:
		g.genWhile(n)
	case tree.NReturn:
		g.genReturn(n)
	case tree.NRead:
		g.genRead(n)
	case tree.NWrite:
		g.genWrite(n)
	case tree.NAssign:
		g.genAssign(n)
	}
}

func (g *Generator) genReturn(n *tree.Node) {
	if n.Children[0] != tree.NilNode {
		v := g.genExpr(n.Children[0])
		g.m.InsertMov(ir.A0, v)
	}
	j := g.m.InsertJump(g.currentEnd)
	g.endJumps = append(g.endJumps, j)
}

func (g *Generator) genRead(n *tree.Node) {
	g.m.InsertLI(ir.A7, 5)
	g.m.InsertECall()
	g.genStore(g.a.Get(n.Children[0]), ir.A0)
}

func (g *Generator) genWrite(n *tree.Node) {
	v := g.genExpr(n.Children[0])
	g.m.InsertLI(ir.A7, 1)
	g.m.InsertMov(ir.A0, v)
	g.m.InsertECall()
	g.m.InsertLI(ir.A7, 11)
	g.m.InsertLI(ir.A0, 10) // newline
	g.m.InsertECall()
}

func (g *Generator) genAssign(n *tree.Node) {
	v := g.genExpr(n.Children[1])
	g.genStore(g.a.Get(n.Children[0]), v)
}

func (g *Generator) genIf(n *tree.Node) {
	suffix := g.newSuffix("if")
	endIf := "end_if_" + suffix

	branch := g.genReverseBranch(n.Children[0], endIf)
	g.genStmt(n.Children[1])

	if n.Children[2] != tree.NilNode {
		endElse := "end_else_" + suffix
		skip := g.m.InsertJump(endElse)
		ir.Backpatch(branch, g.m.InsertLabel(endIf))
		g.genStmt(n.Children[2])
		ir.Backpatch(skip, g.m.InsertLabel(endElse))
	} else {
		ir.Backpatch(branch, g.m.InsertLabel(endIf))
	}
}

func (g *Generator) genWhile(n *tree.Node) {
	suffix := g.newSuffix("start_while")
	startLabel := "start_while_" + suffix
	endLabel := "end_while_" + suffix

	top := g.m.InsertLabel(startLabel)
	branch := g.genReverseBranch(n.Children[0], endLabel)
	g.genStmt(n.Children[1])
	ir.Backpatch(g.m.InsertJump(startLabel), top)
	ir.Backpatch(branch, g.m.InsertLabel(endLabel))
}

func (g *Generator) genReverseBranch(condID tree.NodeID, label string) *ir.Node {
	cond := g.a.Get(condID)
	lhs := g.genExpr(cond.Children[0])
	rhs := g.genExpr(cond.Children[1])
	return g.m.InsertBranch(reverseBranch[cond.Op], lhs, rhs, label)
}

func (g *Generator) genExpr(id tree.NodeID) ir.VReg {
	n := g.a.Get(id)
	switch n.Kind {
	case tree.NConst:
		dest := g.m.NewVReg()
		g.m.InsertLI(dest, int64(n.Value))
		n.Reg = dest
		return dest
	case tree.NOp:
		lhs := g.genExpr(n.Children[0])
		rhs := g.genExpr(n.Children[1])
		dest := g.m.NewVReg()
		g.m.InsertArithReg(arithOp[n.Op], dest, lhs, rhs)
		n.Reg = dest
		return dest
	case tree.NVar, tree.NArr:
		n.Reg = g.genLoad(n)
		return n.Reg
	case tree.NFuncCall:
		n.Reg = g.genCall(n)
		return n.Reg
	default:
		panic(fmt.Sprintf("codegen: unexpected expression kind %v", n.Kind))
	}
}

// genArrayAddress returns a register holding the address of a bare array
// reference n (spec.md §4.4: "An argument that is a bare array ... is
// passed by address"), dispatching by scope and, for non-globals, by the
// sign of the stored offset (locals negative, parameters positive).
func (g *Generator) genArrayAddress(n *tree.Node) ir.VReg {
	e := g.resolve(n)
	dest := g.m.NewVReg()
	switch {
	case e.Scope == 0:
		g.m.InsertLI(dest, int64(e.Addr))
	case e.Offset > 0: // parameter: the caller's address was stored here
		g.m.InsertLoad(dest, ir.FP, int64(e.Offset))
	default: // local array: its storage begins at FP+offset
		g.m.InsertArithImm(ir.ADD, dest, ir.FP, int64(e.Offset))
	}
	return dest
}

// genElementAddress returns a register holding the address of n[index],
// combining the array's base address with the scaled index (spec.md §4.4's
// three indexed-addressing forms, unified since they differ only in how
// the base address is produced).
func (g *Generator) genElementAddress(n *tree.Node) ir.VReg {
	idx := g.genExpr(n.Children[0])
	scaled := g.m.NewVReg()
	g.m.InsertShiftImm(ir.SLLI, scaled, idx, 2)

	base := g.genArrayAddress(n)
	addr := g.m.NewVReg()
	g.m.InsertArithReg(ir.ADD, addr, base, scaled)
	return addr
}

func (g *Generator) genLoad(n *tree.Node) ir.VReg {
	e := g.resolve(n)
	dest := g.m.NewVReg()
	indexed := n.Children[0] != tree.NilNode

	switch {
	case e.Scope == 0 && !indexed:
		base := g.m.NewVReg()
		g.m.InsertLI(base, int64(e.Addr))
		g.m.InsertLoad(dest, base, 0)
	case !indexed: // local or parameter scalar: both are offset(FP)
		g.m.InsertLoad(dest, ir.FP, int64(e.Offset))
	default: // global/local/param array element
		addr := g.genElementAddress(n)
		g.m.InsertLoad(dest, addr, 0)
	}
	return dest
}

func (g *Generator) genStore(n *tree.Node, src ir.VReg) {
	e := g.resolve(n)
	indexed := n.Children[0] != tree.NilNode

	switch {
	case e.Scope == 0 && !indexed:
		base := g.m.NewVReg()
		g.m.InsertLI(base, int64(e.Addr))
		g.m.InsertStore(src, base, 0)
	case !indexed:
		g.m.InsertStore(src, ir.FP, int64(e.Offset))
	default:
		addr := g.genElementAddress(n)
		g.m.InsertStore(src, addr, 0)
	}
}

// genCall evaluates each argument left-to-right, reserves stack space for
// all of them in one ADDI, stores them into 4*i(SP), emits the call, then
// restores SP and copies the return value into a fresh register (spec.md
// §4.4's call sequence).
func (g *Generator) genCall(n *tree.Node) ir.VReg {
	args := g.a.Siblings(n.Children[0])
	regs := make([]ir.VReg, len(args))
	for i, argID := range args {
		regs[i] = g.genCallArg(argID)
	}

	if len(args) > 0 {
		g.m.InsertArithImm(ir.ADD, ir.SP, ir.SP, int64(-4*len(args)))
		for i, r := range regs {
			g.m.InsertStore(r, ir.SP, int64(4*i))
		}
	}

	g.m.InsertCall(n.Name)

	if len(args) > 0 {
		g.m.InsertArithImm(ir.ADD, ir.SP, ir.SP, int64(4*len(args)))
	}

	dest := g.m.NewVReg()
	g.m.InsertMov(dest, ir.A0)
	return dest
}

// genCallArg evaluates one call argument, special-casing a bare (unindexed)
// array reference: it is passed by address rather than by value.
func (g *Generator) genCallArg(id tree.NodeID) ir.VReg {
	n := g.a.Get(id)
	if n.Kind == tree.NArr && n.Children[0] == tree.NilNode {
		return g.genArrayAddress(n)
	}
	return g.genExpr(id)
}
