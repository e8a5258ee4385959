package ir

import "fmt"

// Module is the append-only, doubly-linked instruction list produced by the
// code generator. Addresses are assigned in insertion order, 4 bytes per
// non-comment instruction (every rv32i/rv32im encoding is one 32-bit word).
type Module struct {
	Head, Tail *Node
	nextAddr   int
	nextVReg   int32
	labelSeq   map[string]int // per-prefix counters for if_N / end_if_N / ...
}

// NewModule returns an empty Module ready for insertion.
func NewModule() *Module {
	return &Module{nextVReg: 1, labelSeq: map[string]int{}}
}

// NewVReg returns the next virtual register id, starting at 1 (0 is the
// reserved hardware zero register, spec.md §3.3).
func (m *Module) NewVReg() VReg {
	r := VReg(m.nextVReg)
	m.nextVReg++
	return r
}

// NewLabel mints a fresh symbolic label of the given prefix, e.g.
// NewLabel("if") -> "if_0", the next call -> "if_1". Separate counters are
// kept per prefix so "if_N"/"end_if_N"/"end_else_N"/"start_while_N"/
// "end_while_N" can be paired by the caller using the same N (see codegen,
// which mints "N" once and formats every prefix with it).
func (m *Module) NewLabel(prefix string) string {
	n := m.labelSeq[prefix]
	m.labelSeq[prefix] = n + 1
	return fmt.Sprintf("%s_%d", prefix, n)
}

// insert appends a pre-built node, wiring Prev/Next and assigning its
// address unless it is a COMMENT (spec.md §3.3: "comments do not advance
// [the address]"). LABEL nodes do occupy an address since they are valid
// branch targets.
func (m *Module) insert(n *Node) *Node {
	if m.Tail != nil {
		m.Tail.Next = n
		n.Prev = m.Tail
	} else {
		m.Head = n
	}
	m.Tail = n

	if n.Op != COMMENT {
		n.Address = m.nextAddr
		m.nextAddr += 4
	}
	return n
}

// InsertComment appends a COMMENT node; it occupies no address.
func (m *Module) InsertComment(text string) *Node {
	return m.insert(&Node{Op: COMMENT, Comment: text})
}

// InsertLabel appends a LABEL node with the given symbolic name.
func (m *Module) InsertLabel(name string) *Node {
	return m.insert(&Node{Op: LABEL, Label: name})
}

// InsertLI appends `li dest, imm`.
func (m *Module) InsertLI(dest VReg, imm int64) *Node {
	return m.insert(&Node{Op: LI, Kind: KindConst, Dest: dest, Imm: imm})
}

// InsertLUI appends `lui dest, imm`.
func (m *Module) InsertLUI(dest VReg, imm int64) *Node {
	return m.insert(&Node{Op: LUI, Kind: KindConst, Dest: dest, Imm: imm})
}

// InsertMov appends `mv dest, src`.
func (m *Module) InsertMov(dest, src VReg) *Node {
	return m.insert(&Node{Op: MOV, Kind: KindRegister, Dest: dest, Src1: src})
}

// InsertLoad appends a LOAD of `offset(base)` into dest.
func (m *Module) InsertLoad(dest, base VReg, offset int64) *Node {
	return m.insert(&Node{Op: LOAD, Kind: KindConst, Dest: dest, Src1: base, Imm: offset})
}

// InsertStore appends a STORE of src into `offset(base)`.
func (m *Module) InsertStore(src, base VReg, offset int64) *Node {
	return m.insert(&Node{Op: STORE, Kind: KindConst, Src1: base, Src2: src, Imm: offset})
}

// InsertArithImm appends a reg-imm arithmetic op (e.g. ADD with an
// immediate becomes addi at emission time because Kind == KindConst).
func (m *Module) InsertArithImm(op Op, dest, src VReg, imm int64) *Node {
	return m.insert(&Node{Op: op, Kind: KindConst, Dest: dest, Src1: src, Imm: imm})
}

// InsertArithReg appends a reg-reg arithmetic op.
func (m *Module) InsertArithReg(op Op, dest, src1, src2 VReg) *Node {
	return m.insert(&Node{Op: op, Kind: KindRegister, Dest: dest, Src1: src1, Src2: src2})
}

// InsertShiftImm appends a shift-by-immediate op.
func (m *Module) InsertShiftImm(op Op, dest, src VReg, imm int64) *Node {
	return m.insert(&Node{Op: op, Kind: KindConst, Dest: dest, Src1: src, Imm: imm})
}

// InsertJump appends an unconditional JUMP to 'label' and returns the node
// so the caller can backpatch its Target once the destination LABEL exists.
func (m *Module) InsertJump(label string) *Node {
	return m.insert(&Node{Op: JUMP, Label: label})
}

// InsertJumpReg appends `jalr rd, ra, 0` (epilogue return).
func (m *Module) InsertJumpReg(src VReg) *Node {
	return m.insert(&Node{Op: JUMP_REG, Src1: src})
}

// InsertBranch appends a conditional branch comparing src1/src2, targeting
// 'label'. Returns the node for backpatching (spec.md §4.3/§9).
func (m *Module) InsertBranch(op Op, src1, src2 VReg, label string) *Node {
	return m.insert(&Node{Op: op, Kind: KindRegister, Src1: src1, Src2: src2, Label: label})
}

// InsertCall appends `call label`.
func (m *Module) InsertCall(label string) *Node {
	return m.insert(&Node{Op: CALL, Label: label})
}

// InsertECall appends `ecall`.
func (m *Module) InsertECall() *Node {
	return m.insert(&Node{Op: ECALL})
}

// Backpatch resolves a previously-returned branch/jump node's Target
// pointer to the label node that was just inserted. It is a programming
// error to leave a branch/jump unresolved past this point (spec.md §9:
// "absence means unresolved (a bug) and is asserted away before
// allocation") — AssertResolved checks this.
func Backpatch(branch, label *Node) { branch.Target = label }

// AssertResolved panics if any JUMP or conditional-branch node in the
// module has a nil Target, i.e. was never backpatched. CALL nodes resolve
// by name at link time (there is no linker here, so CALL targets are never
// required to carry a Target pointer) and are excluded.
func (m *Module) AssertResolved() {
	for n := m.Head; n != nil; n = n.Next {
		if (n.Op == JUMP || n.Op.IsBranch()) && n.Target == nil {
			panic(fmt.Sprintf("ir: unresolved branch/jump to label %q", n.Label))
		}
	}
}
