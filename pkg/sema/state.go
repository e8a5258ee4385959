package sema

import "github.com/cminus-lang/cminusc/pkg/symtab"

// state replaces the source compiler's module-level mutable counters (scope
// id, parameter/local offset, global address) with a single value threaded
// through both walks, per spec.md §9 ("Globals in the analyzer").
type state struct {
	scopes []int // stack of enclosing scope ids; scopes[0] == 0 (global) and is never popped
	next   int   // next scope id to hand out, monotonically increasing (spec.md §3.2)

	globalAddr  int
	paramOffset int
	localOffset int

	// funcBody is set true immediately after a FuncDecl pushes a fresh
	// scope for its parameters, and consumed by the very next Compound so
	// that the function's own body does not push a second scope on top of
	// it (spec.md §3.2: "Function parameters live at scope = (enclosing +
	// 1), i.e., the same scope as the function body").
	funcBody bool
}

func newState() *state {
	return &state{scopes: []int{0}, next: 1, globalAddr: symtab.GlobalAddrBase}
}

func (s *state) scope() int { return s.scopes[len(s.scopes)-1] }

func (s *state) pushScope() int {
	id := s.next
	s.next++
	s.scopes = append(s.scopes, id)
	return id
}

func (s *state) popScope() int {
	id := s.scope()
	s.scopes = s.scopes[:len(s.scopes)-1]
	return id
}
