// Package tree defines the shared AST node model consumed by every core
// pass of the compiler (spec.md §3.1): the analyzer mutates it in place,
// the code generator walks it to produce IR, and the (out of scope) front
// end is the only producer of fresh nodes.
package tree

import "github.com/cminus-lang/cminusc/pkg/ir"

// NodeID indexes into an Arena. The zero value NilNode means "absent" and
// must never be dereferenced with Get.
type NodeID int32

// NilNode is the reserved "no node" id, used for an absent else-branch, an
// absent return expression, or the terminator of a sibling list.
const NilNode NodeID = 0

// NodeClass distinguishes the two top-level kinds from spec.md §3.1.
type NodeClass uint8

const (
	StatementClass NodeClass = iota
	ExpressionClass
)

// Kind enumerates every concrete Statement/Expression variant.
type Kind uint8

const (
	// Statement variants
	NCompound Kind = iota
	NIf
	NWhile
	NReturn
	NRead
	NWrite
	NAssign
	// Expression variants
	NOp
	NConst
	NVarDecl
	NVar
	NParamVar
	NArrDecl
	NArr
	NParamArr
	NFuncDecl
	NFuncCall
)

func (k Kind) String() string {
	switch k {
	case NCompound:
		return "Compound"
	case NIf:
		return "If"
	case NWhile:
		return "While"
	case NReturn:
		return "Return"
	case NRead:
		return "Read"
	case NWrite:
		return "Write"
	case NAssign:
		return "Assign"
	case NOp:
		return "Op"
	case NConst:
		return "Const"
	case NVarDecl:
		return "VarDecl"
	case NVar:
		return "Var"
	case NParamVar:
		return "ParamVar"
	case NArrDecl:
		return "ArrDecl"
	case NArr:
		return "Arr"
	case NParamArr:
		return "ParamArr"
	case NFuncDecl:
		return "FuncDecl"
	case NFuncCall:
		return "FuncCall"
	default:
		return "Unknown"
	}
}

// Class returns the StatementClass/ExpressionClass a Kind belongs to.
func (k Kind) Class() NodeClass {
	if k <= NAssign {
		return StatementClass
	}
	return ExpressionClass
}

// SemType is the semantic type lattice used by the type checker (spec.md
// §3.1). Op nodes are pre-typed by the parser: arithmetic ops are Integer,
// the six relational ops are Boolean.
type SemType uint8

const (
	Void SemType = iota
	Integer
	Boolean
)

func (t SemType) String() string {
	switch t {
	case Void:
		return "void"
	case Integer:
		return "int"
	case Boolean:
		return "bool"
	default:
		return "?"
	}
}

// Node is one arena slot. Attr fields are a union-by-convention: only the
// field(s) relevant to Kind are meaningful (Op for NOp, Value for NConst,
// Name for every declaration/use/call node).
type Node struct {
	Kind Kind
	Line int
	Type SemType

	Op    string // NOp: one of "+","-","*","/","<","<=",">",">=","==","!="
	Value int    // NConst: the literal's integer value
	Name  string // declarations, uses, calls: the identifier

	Children [3]NodeID
	Next     NodeID // sibling link

	// Analyzer-assigned (post-parse)
	Scope int
	Reg   ir.VReg
}

// Arena owns every Node allocated for one translation unit. NodeID 0 is
// reserved and never returned by New, so the zero value of NodeID can be
// used as "absent" throughout the tree and IR.
type Arena struct {
	nodes []Node
}

// NewArena returns an Arena with slot 0 reserved as NilNode.
func NewArena() *Arena {
	return &Arena{nodes: make([]Node, 1)}
}

// New allocates a fresh node of the given kind/line and returns its id.
func (a *Arena) New(kind Kind, line int) NodeID {
	a.nodes = append(a.nodes, Node{Kind: kind, Line: line})
	return NodeID(len(a.nodes) - 1)
}

// Get returns a mutable pointer to the node at 'id'. It performs no NilNode
// check: Get(NilNode) returns the reserved, zero-valued slot 0 and does not
// panic. Only an id past the end of the arena panics (index out of range).
func (a *Arena) Get(id NodeID) *Node {
	return &a.nodes[id]
}

// Valid reports whether 'id' refers to an allocated, non-nil node.
func (a *Arena) Valid(id NodeID) bool { return id != NilNode && int(id) < len(a.nodes) }

// AppendSibling links 'next' after 'tail' (tail.Next = next) and returns
// 'next', so callers can thread a running "last sibling" cursor while
// parsing a statement or declaration list. If tail is NilNode, 'next'
// becomes the head of a fresh list and is returned unchanged.
func (a *Arena) AppendSibling(tail, next NodeID) NodeID {
	if tail != NilNode {
		a.Get(tail).Next = next
	}
	return next
}

// Siblings returns the list starting at 'head' as a slice, by walking Next
// links. Used anywhere a pass needs random access instead of a walk.
func (a *Arena) Siblings(head NodeID) []NodeID {
	var out []NodeID
	for id := head; id != NilNode; id = a.Get(id).Next {
		out = append(out, id)
	}
	return out
}
