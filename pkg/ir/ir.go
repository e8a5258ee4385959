// Package ir implements the linear doubly-linked intermediate representation
// described in spec.md §3.3/§4.3: an unbounded virtual-register file,
// symbolic labels, and the handful of opcodes the code generator emits.
package ir

import "github.com/cminus-lang/cminusc/pkg/utils"

// VReg identifies either a virtual register (positive ids, unbounded,
// allocated in the order the code generator produces values) or, when
// negative, one of the fixed hardware registers named below. Id 0 is the
// hardware zero register and is never allocated as a virtual register.
type VReg int32

const (
	Zero VReg = 0 // hardwired x0

	SP VReg = -1 // stack pointer
	FP VReg = -2 // frame pointer (saved caller FP base)
	RA VReg = -3 // return address
	A0 VReg = -4 // argument / return value
	A1 VReg = -5 // argument
	A7 VReg = -6 // syscall number
	T0 VReg = -7 // scratch t0; neither codegen nor the emitter emits it (t0 is also palette color 0)
)

// IsPhysical reports whether a VReg names a fixed hardware register rather
// than a virtual register awaiting allocation.
func (r VReg) IsPhysical() bool { return r < 0 }

// IsVirtual reports whether r is an allocatable virtual register (id > 0).
func (r VReg) IsVirtual() bool { return r > 0 }

// SourceKind tags how a source operand of an instruction should be read.
type SourceKind uint8

const (
	// KindNone: the operand slot is unused by this opcode.
	KindNone SourceKind = iota
	// KindConst: the operand is the instruction's Imm field.
	KindConst
	// KindRegister: the operand is a register (virtual or physical).
	KindRegister
	// KindVarRef: the operand addresses a variable (global/local/param).
	// No builder method sets it and the emitter does not read it.
	KindVarRef
)

// Op enumerates every IR opcode grouped as in spec.md §3.3.
type Op uint8

const (
	// Data motion
	MOV Op = iota
	LI
	LUI
	AUIPC
	LOAD
	STORE
	// Arithmetic / logical
	ADD
	SUB
	MUL
	DIV
	REM
	SLLI
	SLL
	SRAI
	SRA
	SRLI
	SRL
	// Control
	JUMP
	JUMP_REG
	BEQ
	BNE
	BLT
	BLE
	BGE
	BGT
	// Calls
	CALL
	ECALL
	// Synthetic
	NOP
	COMMENT
	LABEL
)

var opNames = map[Op]string{
	MOV: "MOV", LI: "LI", LUI: "LUI", AUIPC: "AUIPC", LOAD: "LOAD", STORE: "STORE",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", REM: "REM",
	SLLI: "SLLI", SLL: "SLL", SRAI: "SRAI", SRA: "SRA", SRLI: "SRLI", SRL: "SRL",
	JUMP: "JUMP", JUMP_REG: "JUMP_REG", BEQ: "BEQ", BNE: "BNE", BLT: "BLT",
	BLE: "BLE", BGE: "BGE", BGT: "BGT", CALL: "CALL", ECALL: "ECALL",
	NOP: "NOP", COMMENT: "COMMENT", LABEL: "LABEL",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// branchOps is used by the liveness pass and the emitter to recognize the
// six conditional branch opcodes as a group (spec.md §4.5 successor rule).
var branchOps = map[Op]bool{BEQ: true, BNE: true, BLT: true, BLE: true, BGE: true, BGT: true}

// IsBranch reports whether op is one of the six conditional branches.
func (op Op) IsBranch() bool { return branchOps[op] }

// Node is one instruction in the linear IR. Address is assigned by the
// Module at insertion time (step 4 bytes per instruction); COMMENT nodes
// do not advance it. Target resolves branches/jumps to their destination
// LABEL node and is filled in by backpatching once the destination exists
// (spec.md §4.3, §9); CALL nodes name their callee by Label only and keep
// a nil Target.
type Node struct {
	Op      Op
	Kind    SourceKind // tags the second operand: Imm (KindConst) or Src2 (KindRegister)
	Dest    VReg
	Src1    VReg
	Src2    VReg
	Imm     int64
	Target  *Node  // branch/jump destination (nil until backpatched; always nil for CALL)
	Label   string // this node's own label name (LABEL) or the branch/jump/call's target name
	Comment string

	Address int // byte address, monotonically assigned; COMMENT nodes don't advance it

	// LiveIn/LiveOut are populated by pkg/regalloc's liveness pass (spec.md
	// §4.5); nil until that pass runs.
	LiveIn  *utils.BitSet
	LiveOut *utils.BitSet

	Prev, Next *Node
}
