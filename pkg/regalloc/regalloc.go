package regalloc

import (
	"github.com/cminus-lang/cminusc/pkg/diag"
	"github.com/cminus-lang/cminusc/pkg/ir"
)

// Allocate runs the full pipeline (spec.md §4.5): liveness to a fixpoint,
// interference graph construction, then simplify/select coloring. On
// failure it reports the fatal "must spill" diagnostic and returns nil,
// matching the sticky-error-flag propagation policy of spec.md §7 (the
// emitter stage is skipped when this returns nil).
func Allocate(m *ir.Module, sink *diag.Sink) *Result {
	Liveness(m)
	g := BuildInterference(m)

	result, err := Color(g)
	if err != nil {
		sink.Fatal(0, "%s", err.Error())
		return nil
	}
	return result
}
