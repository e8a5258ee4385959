// Package diag centralizes the compiler's diagnostic reporting: the sticky
// error flag that gates every pipeline stage (spec.md §5/§7) and the textual
// formatting of the four diagnostic kinds the front end and every core pass
// can raise.
package diag

import (
	"fmt"
	"io"
)

// Kind enumerates the diagnostic categories a Sink can report. The wording
// follows the original cml-compiler's analyze.c error banners verbatim.
type Kind string

const (
	TypeError  Kind = "Type Error"
	VarError   Kind = "Var Error"
	FatalError Kind = "Fatal Error"
	GenericErr Kind = "Error"
)

// Diagnostic is a single reportable compiler message.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Message string

	// Optional scope-qualified variant (spec.md §6: "<Kind>: <what> '<name>'
	// <detail> at line N and scope S"). When Name is non-empty the
	// scope-qualified form is rendered instead of the plain one.
	Name  string
	What  string
	Scope int
}

// Sink is the process-global listing output plus the sticky error bit: once
// any diagnostic is reported, Failed() returns true for the rest of the
// compile job and never resets (spec.md §7 propagation policy).
type Sink struct {
	w      io.Writer
	failed bool
}

// NewSink wraps the given writer (typically stdout, or a *bytes.Buffer in
// tests) as a diagnostic listing sink.
func NewSink(w io.Writer) *Sink { return &Sink{w: w} }

// Failed reports whether any diagnostic has been reported so far.
func (s *Sink) Failed() bool { return s.failed }

// Report prints the diagnostic to the listing sink and sets the sticky
// error flag. It never demotes a diagnostic to a warning and is never
// itself an error: a write failure on the listing sink is not fatal to the
// compile job, it is simply best-effort.
func (s *Sink) Report(d Diagnostic) {
	s.failed = true

	if d.Name != "" {
		fmt.Fprintf(s.w, "%s: %s '%s' %s at line %d and scope %d\n", d.Kind, d.What, d.Name, d.Message, d.Line, d.Scope)
		return
	}

	fmt.Fprintf(s.w, "%s at line %d: %s\n", d.Kind, d.Line, d.Message)
}

// Type reports a spec.md §4.2 type-checking diagnostic.
func (s *Sink) Type(line int, format string, args ...any) {
	s.Report(Diagnostic{Kind: TypeError, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Var reports a spec.md §4.2 name-resolution diagnostic in the scope-qualified form.
func (s *Sink) Var(line, scope int, what, name, detail string) {
	s.Report(Diagnostic{Kind: VarError, Line: line, Scope: scope, What: what, Name: name, Message: detail})
}

// Fatal reports a spec.md §4.5/§7 unrecoverable diagnostic (e.g. spill required,
// 'main' not found).
func (s *Sink) Fatal(line int, format string, args ...any) {
	s.Report(Diagnostic{Kind: FatalError, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Error reports a generic (I/O, driver-level) diagnostic.
func (s *Sink) Error(format string, args ...any) {
	s.Report(Diagnostic{Kind: GenericErr, Line: 0, Message: fmt.Sprintf(format, args...)})
}
