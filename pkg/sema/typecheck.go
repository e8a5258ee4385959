package sema

import (
	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

// typeCheck runs pass 2 (spec.md §4.2): preorder activate_node re-enters
// each Compound's declarations as the walk reaches them again, postorder
// check_node performs the actual type/shape/return checks.
func typeCheck(a *tree.Arena, t *symtab.Table, sink *diag.Sink, root tree.NodeID) {
	walkList(a, root, func(id tree.NodeID) { activateNode(a, t, id) },
		func(id tree.NodeID) { checkNode(a, t, sink, id) })
}

func activateNode(a *tree.Arena, t *symtab.Table, id tree.NodeID) {
	n := a.Get(id)
	if n.Kind != tree.NCompound {
		return
	}
	for _, e := range t.Entries() {
		if e.Scope == n.Scope {
			t.Activate(e.Name, e.Scope)
		}
	}
}

func checkNode(a *tree.Arena, t *symtab.Table, sink *diag.Sink, id tree.NodeID) {
	n := a.Get(id)

	switch n.Kind {
	case tree.NCompound:
		t.DeactivateScope(n.Scope)

	case tree.NVarDecl, tree.NArrDecl:
		if n.Type != tree.Integer {
			sink.Type(n.Line, "variable '%s' must have type int", n.Name)
		}

	case tree.NIf, tree.NWhile:
		cond := a.Get(n.Children[0])
		if cond.Type != tree.Boolean {
			sink.Type(n.Line, "condition must be of type bool")
		}

	case tree.NAssign:
		rvalue := a.Get(n.Children[1])
		if rvalue.Type != tree.Integer {
			sink.Type(n.Line, "assigned value must be of type int")
		}

	case tree.NWrite:
		operand := a.Get(n.Children[0])
		if operand.Type != tree.Integer {
			sink.Type(n.Line, "write operand must be of type int")
		}

	case tree.NFuncDecl:
		if n.Type != tree.Void {
			body := a.Get(n.Children[1])
			if !returnsList(a, body.Children[1]) {
				sink.Type(n.Line, "function '%s' does not return in all control paths", n.Name)
			}
		}

	case tree.NFuncCall:
		checkCall(a, t, sink, n)
	}
}

// returns reports whether the single statement at id unconditionally
// returns, by the inductive predicate of spec.md §4.2: a Return returns; an
// If with both branches returning returns; a Compound returns if its
// statement list returns; anything else does not.
func returns(a *tree.Arena, id tree.NodeID) bool {
	if id == tree.NilNode {
		return false
	}
	n := a.Get(id)

	switch n.Kind {
	case tree.NReturn:
		return true
	case tree.NIf:
		if n.Children[2] == tree.NilNode {
			return false
		}
		return returns(a, n.Children[1]) && returns(a, n.Children[2])
	case tree.NCompound:
		return returnsList(a, n.Children[1])
	default:
		return false
	}
}

// returnsList reports whether any element of the sibling list returns
// (spec.md §4.2: "a sibling-sequence returns if any element returns").
func returnsList(a *tree.Arena, head tree.NodeID) bool {
	for id := head; id != tree.NilNode; id = a.Get(id).Next {
		if returns(a, id) {
			return true
		}
	}
	return false
}

func checkCall(a *tree.Arena, t *symtab.Table, sink *diag.Sink, call *tree.Node) {
	entry := t.LookupSoft(call.Name)
	if entry == nil {
		return // already reported as "never defined" in pass 1
	}
	decl := a.Get(entry.Node)
	if decl.Kind != tree.NFuncDecl {
		return // already reported as "called as a function" in pass 1
	}

	params := a.Siblings(decl.Children[0])
	args := a.Siblings(call.Children[0])

	if len(params) != len(args) {
		sink.Type(call.Line, "function '%s' called with %d argument(s), expected %d", call.Name, len(args), len(params))
		call.Type = decl.Type
		return
	}

	for i, argID := range args {
		arg := a.Get(argID)
		param := a.Get(params[i])

		// An argument naming a ParamArr-declared variable was already
		// reclassified from Var to Arr in pass 1, so a bare (unindexed) Arr
		// node covers both "local/global array" and "array parameter"
		// arguments here.
		paramIsArray := param.Kind == tree.NParamArr
		argIsArray := arg.Kind == tree.NArr && arg.Children[0] == tree.NilNode

		if paramIsArray && !argIsArray {
			sink.Type(arg.Line, "argument %d of '%s' must be an array", i+1, call.Name)
			continue
		}
		if !paramIsArray && argIsArray {
			sink.Type(arg.Line, "argument %d of '%s' must not be an array", i+1, call.Name)
			continue
		}
		if !paramIsArray && arg.Type != tree.Integer {
			sink.Type(arg.Line, "argument %d of '%s' must have type int", i+1, call.Name)
		}
	}

	call.Type = decl.Type
}
