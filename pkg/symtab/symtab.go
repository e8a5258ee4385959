// Package symtab implements the scoped symbol table described in spec.md
// §3.2/§4.1: a keyed store of declared names carrying scope, address/offset,
// an active flag (scope exit deactivates rather than removes), and an
// append-only list of line numbers where the name was referenced.
//
// Grounded on the original cml-compiler's symtab.c hash-bucket design
// (insertion-ordered chaining, logical deletion via an 'active' bit) and on
// the teacher's pkg/jack/scopes.go scope-stack idiom.
package symtab

import "github.com/cminus-lang/cminusc/pkg/tree"

// GlobalAddrBase is the fixed base address at which global variables are
// allocated, advancing by 4*elementCount per declaration (spec.md §3.2).
const GlobalAddrBase = 0x10008000

// Entry is one declared-or-used name inside a given lexical scope.
type Entry struct {
	Name   string
	Node   tree.NodeID // the declaring node; never changes after a successful insert
	Scope  int
	Active bool

	// Addressing: exactly one of Addr (globals, scope 0) or Offset
	// (locals/params, frame-pointer relative) is meaningful, selected by
	// Scope == 0.
	Addr   int
	Offset int

	Lines []int // append-only, appearance order
}

// key identifies a bucket chain: declarations and later uses of the same
// (name, scope) pair share one Entry.
type key struct {
	name  string
	scope int
}

// Table is the flat hash map backing the symbol table. A single flat map
// with per-entry Active flags is used rather than a layered per-scope
// stack, matching spec.md §9's note that this is the variant consistent
// with the all-uses-retained symbol-table dump (the --ta trace flag).
type Table struct {
	buckets map[key]*Entry
	// order preserves insertion order for deterministic dumps/printers.
	order []*Entry
}

// New returns an empty Table.
func New() *Table {
	return &Table{buckets: map[key]*Entry{}}
}

// Insert creates a new entry for (name, scope) if none exists yet; otherwise
// it appends 'line' to the existing entry's use-list and leaves the
// existing entry's Node untouched (spec.md §4.1: "after a successful insert
// of a declaration the entry's node points at the declaration ... and never
// changes"). Returns the entry and whether a new one was created.
func (t *Table) Insert(name string, node tree.NodeID, scope, addr, offset, line int) (*Entry, bool) {
	k := key{name, scope}
	if e, found := t.buckets[k]; found {
		e.Lines = append(e.Lines, line)
		return e, false
	}

	e := &Entry{Name: name, Node: node, Scope: scope, Active: true, Addr: addr, Offset: offset, Lines: []int{line}}
	t.buckets[k] = e
	t.order = append(t.order, e)
	return e, true
}

// Lookup finds the exact (name, scope) entry, or nil if none exists.
func (t *Table) Lookup(name string, scope int) *Entry {
	return t.buckets[key{name, scope}]
}

// LookupSoft returns any *active* entry with this name, scanning the
// insertion-ordered bucket chain (spec.md §4.1: "Linear scan over the
// bucket is acceptable"). Among multiple active entries (shadowing across
// nested scopes) the most recently inserted one wins, matching nearest
// enclosing scope semantics.
func (t *Table) LookupSoft(name string) *Entry {
	var found *Entry
	for _, e := range t.order {
		if e.Name == name && e.Active {
			found = e
		}
	}
	return found
}

// Activate sets the active bit for (name, scope). Used by the type-check
// pass (pass 2) to re-enter a Compound's declarations as it revisits it.
func (t *Table) Activate(name string, scope int) {
	if e := t.buckets[key{name, scope}]; e != nil {
		e.Active = true
	}
}

// Delete logically deactivates (name, scope); the entry is retained for
// later printing (spec.md §4.1).
func (t *Table) Delete(name string, scope int) {
	if e := t.buckets[key{name, scope}]; e != nil {
		e.Active = false
	}
}

// DeactivateScope deactivates every entry belonging to exactly 'scope',
// used when a Compound block is exited during either analyzer pass.
func (t *Table) DeactivateScope(scope int) {
	for _, e := range t.order {
		if e.Scope == scope {
			e.Active = false
		}
	}
}

// Entries returns every entry in insertion order; the type-check pass uses
// it to re-activate a Compound's entries.
func (t *Table) Entries() []*Entry { return t.order }
