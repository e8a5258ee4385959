package sema

import (
	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

// buildSymtab runs pass 1 (spec.md §4.2): preorder insert_node, postorder
// delete_node. It populates the symbol table and stamps every node with the
// scope it was resolved in, reclassifying every Var use (indexed or not)
// whose declaration is an array from Var to Arr.
func buildSymtab(a *tree.Arena, t *symtab.Table, sink *diag.Sink, root tree.NodeID) {
	s := newState()
	walkList(a, root, func(id tree.NodeID) { insertNode(a, t, sink, s, id) },
		func(id tree.NodeID) { deleteNode(a, t, s, id) })

	if t.Lookup("main", 0) == nil {
		sink.Fatal(0, "main not found")
	}
}

func arrayLength(a *tree.Arena, declID tree.NodeID) int {
	n := a.Get(declID)
	if n.Kind != tree.NArrDecl || n.Children[0] == tree.NilNode {
		return 1
	}
	return a.Get(n.Children[0]).Value
}

func insertNode(a *tree.Arena, t *symtab.Table, sink *diag.Sink, s *state, id tree.NodeID) {
	n := a.Get(id)
	n.Scope = s.scope() // default; declaration/use/Compound cases below may override

	switch n.Kind {
	case tree.NCompound:
		if s.funcBody {
			s.funcBody = false
			n.Scope = s.scope()
		} else {
			n.Scope = s.pushScope()
		}

	case tree.NFuncDecl:
		n.Scope = s.scope()
		s.paramOffset = 8
		s.localOffset = 0

		if prior := t.Lookup(n.Name, 0); prior != nil {
			sink.Var(n.Line, 0, "function", n.Name, "is redefined")
		} else {
			t.Insert(n.Name, id, 0, 0, 0, n.Line)
		}

		// The body's Compound must share this function's scope rather than
		// push a fresh one, so parameters (visited next, as child[0]) land
		// in the same scope as the locals declared in the body.
		s.pushScope()
		s.funcBody = true

	case tree.NParamVar:
		n.Scope = s.scope()
		t.Insert(n.Name, id, n.Scope, 0, s.paramOffset, n.Line)
		s.paramOffset += 4

	case tree.NParamArr:
		n.Scope = s.scope()
		t.Insert(n.Name, id, n.Scope, 0, s.paramOffset, n.Line)
		s.paramOffset += 4

	case tree.NVarDecl, tree.NArrDecl:
		n.Scope = s.scope()
		length := arrayLength(a, id)

		if existing := t.Lookup(n.Name, n.Scope); existing != nil {
			sink.Var(n.Line, n.Scope, "variable", n.Name, "is redefined")
			break
		}
		if fn := t.Lookup(n.Name, 0); fn != nil && a.Get(fn.Node).Kind == tree.NFuncDecl {
			sink.Var(n.Line, n.Scope, "variable", n.Name, "is redefined (clashes with a function)")
			break
		}

		if n.Scope == 0 {
			addr := s.globalAddr
			s.globalAddr += 4 * length
			t.Insert(n.Name, id, 0, addr, 0, n.Line)
		} else {
			s.localOffset -= 4 * length
			t.Insert(n.Name, id, n.Scope, 0, s.localOffset, n.Line)
		}

	case tree.NVar, tree.NArr, tree.NFuncCall:
		n.Scope = s.scope()
		entry := t.LookupSoft(n.Name)
		if entry == nil {
			sink.Var(n.Line, n.Scope, "identifier", n.Name, "is never defined")
			break
		}

		declKind := a.Get(entry.Node).Kind
		if n.Kind == tree.NFuncCall && declKind != tree.NFuncDecl {
			sink.Var(n.Line, n.Scope, "identifier", n.Name, "is called as a function")
			break
		}
		t.Insert(n.Name, entry.Node, entry.Scope, entry.Addr, entry.Offset, n.Line)

		n.Type = a.Get(entry.Node).Type
		n.Scope = entry.Scope
		if (declKind == tree.NArrDecl || declKind == tree.NParamArr) && n.Kind == tree.NVar {
			n.Kind = tree.NArr
		}
	}
}

func deleteNode(a *tree.Arena, t *symtab.Table, s *state, id tree.NodeID) {
	n := a.Get(id)
	if n.Kind == tree.NCompound {
		t.DeactivateScope(n.Scope)
		s.popScope()
	}
}
