package riscv_test

import (
	"strings"
	"testing"

	"github.com/cminus-lang/cminusc/pkg/ir"
	"github.com/cminus-lang/cminusc/pkg/regalloc"
	"github.com/cminus-lang/cminusc/pkg/riscv"
)

func TestDataMotionAndMemory(t *testing.T) {
	result := &regalloc.Result{Color: map[int]int{}}
	emitter := riscv.NewEmitter(result, false)

	m := ir.NewModule()
	a, b := m.NewVReg(), m.NewVReg()
	result.Color[int(a)] = 0
	result.Color[int(b)] = 1

	m.InsertMov(a, ir.SP)
	m.InsertLI(b, 42)
	m.InsertLoad(a, ir.FP, -8)
	m.InsertStore(b, ir.FP, -4)

	lines, err := emitter.Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"mv t0, sp",
		"li t1, 0x2a",
		"lw t0, -8(fp)",
		"sw t1, -4(fp)",
	}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d = %q, want to contain %q", i, lines[i], w)
		}
	}
}

func TestArithmeticSelectsImmediateOrRegisterForm(t *testing.T) {
	m := ir.NewModule()
	a, b, c := m.NewVReg(), m.NewVReg(), m.NewVReg()
	result := &regalloc.Result{Color: map[int]int{int(a): 0, int(b): 1, int(c): 2}}
	emitter := riscv.NewEmitter(result, false)

	m.InsertArithImm(ir.ADD, ir.SP, ir.SP, -8)
	m.InsertArithReg(ir.ADD, c, a, b)
	m.InsertArithReg(ir.MUL, c, a, b)
	m.InsertArithReg(ir.DIV, c, a, b)

	lines, err := emitter.Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"addi sp, sp, -8", "add t2, t0, t1", "mul t2, t0, t1", "div t2, t0, t1"}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d = %q, want to contain %q", i, lines[i], w)
		}
	}
}

func TestBranchesRenderWithTargetLabel(t *testing.T) {
	m := ir.NewModule()
	a, b := m.NewVReg(), m.NewVReg()
	result := &regalloc.Result{Color: map[int]int{int(a): 0, int(b): 1}}
	emitter := riscv.NewEmitter(result, false)

	branch := m.InsertBranch(ir.BGE, a, b, "end_if_0")
	label := m.InsertLabel("end_if_0")
	ir.Backpatch(branch, label)

	lines, err := emitter.Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(lines[0], "bge t0, t1, end_if_0") {
		t.Errorf("got %q, want a bge to end_if_0", lines[0])
	}
}

func TestCallsAndEcallsAndReturn(t *testing.T) {
	m := ir.NewModule()
	emitter := riscv.NewEmitter(&regalloc.Result{}, false)

	m.InsertCall("main")
	m.InsertLI(ir.A7, 10)
	m.InsertECall()
	m.InsertJumpReg(ir.RA)

	lines, err := emitter.Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"call main", "li a7, 0xa", "ecall", "jalr zero, ra, 0"}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d = %q, want to contain %q", i, lines[i], w)
		}
	}
}

func TestCommentsAreGatedBehindTraceFlag(t *testing.T) {
	m := ir.NewModule()
	m.InsertComment("function main")
	m.InsertECall()

	quiet, err := riscv.NewEmitter(&regalloc.Result{}, false).Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quiet) != 1 {
		t.Fatalf("expected comment to be dropped, got %d lines: %v", len(quiet), quiet)
	}

	traced, err := riscv.NewEmitter(&regalloc.Result{}, true).Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(traced) != 2 || !strings.Contains(traced[0], "function main") {
		t.Fatalf("expected comment line to survive with tracing on, got %v", traced)
	}
}

func TestLabelsRenderWithSurroundingBlankLine(t *testing.T) {
	m := ir.NewModule()
	m.InsertLabel("main")
	m.InsertECall()

	lines, err := riscv.NewEmitter(&regalloc.Result{}, false).Generate(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(lines[0], "main:") {
		t.Errorf("got %q, want a main: label", lines[0])
	}
}

func TestUnresolvedColorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when a virtual register has no assigned color")
		}
	}()

	m := ir.NewModule()
	r := m.NewVReg()
	m.InsertLI(r, 1)

	riscv.NewEmitter(&regalloc.Result{Color: map[int]int{}}, false).Generate(m)
}

func TestEmitJoinsLinesWithTrailingNewline(t *testing.T) {
	m := ir.NewModule()
	m.InsertLI(ir.A7, 10)
	m.InsertECall()

	text, err := riscv.Emit(m, &regalloc.Result{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Errorf("expected trailing newline, got %q", text)
	}
	if !strings.Contains(text, "li a7, 0xa") || !strings.Contains(text, "ecall") {
		t.Errorf("expected both instructions in output, got %q", text)
	}
}
