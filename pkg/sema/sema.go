// Package sema implements the two-pass semantic analyzer of spec.md §4.2:
// scope-aware name resolution with stack-frame layout assignment (pass 1,
// build_symtab), followed by type checking and all-paths-return
// verification (pass 2, type_check). Grounded on the original
// cml-compiler's analyze.c traversal structure and on the teacher's
// pkg/jack/typechecking.go two-pass scope push/pop idiom.
package sema

import (
	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/symtab"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

// Analyze runs both passes over the program rooted at the sibling list
// 'root' (the top-level declarations), mutating the tree in place and
// populating t. Pass 2 only runs if pass 1 left the sink unfailed, matching
// the sticky-error-flag propagation policy of spec.md §7.
func Analyze(a *tree.Arena, t *symtab.Table, sink *diag.Sink, root tree.NodeID) {
	buildSymtab(a, t, sink, root)
	if sink.Failed() {
		return
	}
	typeCheck(a, t, sink, root)
}
