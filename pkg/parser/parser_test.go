package parser_test

import (
	"strings"
	"testing"

	"github.com/cminus-lang/cminusc/pkg/parser"
	"github.com/cminus-lang/cminusc/pkg/tree"
)

func parse(t *testing.T, source string) (*tree.Arena, tree.NodeID) {
	t.Helper()
	p := parser.NewParser(strings.NewReader(source))
	a, root, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", source, err)
	}
	return a, root
}

func TestParsesGlobalScalarAndArrayDecls(t *testing.T) {
	a, root := parse(t, "int x; int a[10];")

	decls := a.Siblings(root)
	if len(decls) != 2 {
		t.Fatalf("expected 2 top-level decls, got %d", len(decls))
	}

	x := a.Get(decls[0])
	if x.Kind != tree.NVarDecl || x.Name != "x" || x.Type != tree.Integer {
		t.Fatalf("unexpected first decl: %+v", x)
	}

	arr := a.Get(decls[1])
	if arr.Kind != tree.NArrDecl || arr.Name != "a" {
		t.Fatalf("unexpected second decl: %+v", arr)
	}
	if length := a.Get(arr.Children[0]).Value; length != 10 {
		t.Fatalf("expected array length 10, got %d", length)
	}
}

func TestParsesFunDeclWithParamsAndBody(t *testing.T) {
	a, root := parse(t, `int add(int x, int y) {
  return x + y;
}`)

	decls := a.Siblings(root)
	if len(decls) != 1 {
		t.Fatalf("expected 1 top-level decl, got %d", len(decls))
	}

	fn := a.Get(decls[0])
	if fn.Kind != tree.NFuncDecl || fn.Name != "add" || fn.Type != tree.Integer {
		t.Fatalf("unexpected fun_decl: %+v", fn)
	}

	params := a.Siblings(fn.Children[0])
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(params))
	}
	for i, name := range []string{"x", "y"} {
		p := a.Get(params[i])
		if p.Kind != tree.NParamVar || p.Name != name {
			t.Fatalf("unexpected param %d: %+v", i, p)
		}
	}

	body := a.Get(fn.Children[1])
	if body.Kind != tree.NCompound {
		t.Fatalf("expected compound body, got %v", body.Kind)
	}
	stmts := a.Siblings(body.Children[1])
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	ret := a.Get(stmts[0])
	if ret.Kind != tree.NReturn {
		t.Fatalf("expected return statement, got %v", ret.Kind)
	}
	sum := a.Get(ret.Children[0])
	if sum.Kind != tree.NOp || sum.Op != "+" || sum.Type != tree.Integer {
		t.Fatalf("unexpected return expr: %+v", sum)
	}
}

func TestParsesVoidParams(t *testing.T) {
	a, root := parse(t, "void main(void) { }")

	fn := a.Get(a.Siblings(root)[0])
	if fn.Kind != tree.NFuncDecl || fn.Type != tree.Void {
		t.Fatalf("unexpected fun_decl: %+v", fn)
	}
	if fn.Children[0] != tree.NilNode {
		t.Fatalf("expected no params for a void-only param list, got head %v", fn.Children[0])
	}
}

func TestParsesArrayParam(t *testing.T) {
	a, root := parse(t, "void fill(int a[]) { }")

	fn := a.Get(a.Siblings(root)[0])
	params := a.Siblings(fn.Children[0])
	if len(params) != 1 || a.Get(params[0]).Kind != tree.NParamArr {
		t.Fatalf("expected a single array param, got %v", params)
	}
}

func TestParsesIfElseAndWhile(t *testing.T) {
	a, root := parse(t, `void main(void) {
  int x;
  if (x < 10)
    x = x + 1;
  else
    x = 0;
  while (x > 0)
    x = x - 1;
}`)

	fn := a.Get(a.Siblings(root)[0])
	body := a.Get(fn.Children[1])
	stmts := a.Siblings(body.Children[1])
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements (if, while), got %d", len(stmts))
	}

	ifStmt := a.Get(stmts[0])
	if ifStmt.Kind != tree.NIf {
		t.Fatalf("expected NIf, got %v", ifStmt.Kind)
	}
	if ifStmt.Children[2] == tree.NilNode {
		t.Fatalf("expected an else branch")
	}
	cond := a.Get(ifStmt.Children[0])
	if cond.Kind != tree.NOp || cond.Op != "<" || cond.Type != tree.Boolean {
		t.Fatalf("unexpected if condition: %+v", cond)
	}

	whileStmt := a.Get(stmts[1])
	if whileStmt.Kind != tree.NWhile {
		t.Fatalf("expected NWhile, got %v", whileStmt.Kind)
	}
}

func TestParsesReadWriteAndArrayIndexing(t *testing.T) {
	a, root := parse(t, `void main(void) {
  int a[5];
  int i;
  read i;
  write a[i];
}`)

	fn := a.Get(a.Siblings(root)[0])
	body := a.Get(fn.Children[1])
	stmts := a.Siblings(body.Children[1])
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}

	read := a.Get(stmts[0])
	if read.Kind != tree.NRead {
		t.Fatalf("expected NRead, got %v", read.Kind)
	}

	write := a.Get(stmts[1])
	if write.Kind != tree.NWrite {
		t.Fatalf("expected NWrite, got %v", write.Kind)
	}
	indexed := a.Get(write.Children[0])
	if indexed.Kind != tree.NVar || indexed.Name != "a" || indexed.Children[0] == tree.NilNode {
		t.Fatalf("expected an indexed array use, got %+v", indexed)
	}
}

func TestParsesNestedCallsAndPrecedence(t *testing.T) {
	a, root := parse(t, `int f(int x) {
  return f(x - 1) * 2 + 3;
}`)

	fn := a.Get(a.Siblings(root)[0])
	body := a.Get(fn.Children[1])
	ret := a.Get(a.Siblings(body.Children[1])[0])

	top := a.Get(ret.Children[0])
	if top.Kind != tree.NOp || top.Op != "+" {
		t.Fatalf("expected '+' at the top of the expression tree, got %+v", top)
	}

	mul := a.Get(top.Children[0])
	if mul.Kind != tree.NOp || mul.Op != "*" {
		t.Fatalf("expected '*' nested under '+', got %+v", mul)
	}

	call := a.Get(mul.Children[0])
	if call.Kind != tree.NFuncCall || call.Name != "f" {
		t.Fatalf("expected a call to 'f', got %+v", call)
	}
	args := a.Siblings(call.Children[0])
	if len(args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(args))
	}
}

func TestParsesAssignmentAsStatement(t *testing.T) {
	a, root := parse(t, `void main(void) {
  int x;
  x = 5;
}`)

	fn := a.Get(a.Siblings(root)[0])
	body := a.Get(fn.Children[1])
	stmt := a.Get(a.Siblings(body.Children[1])[0])
	if stmt.Kind != tree.NAssign {
		t.Fatalf("expected NAssign, got %v", stmt.Kind)
	}
	rhs := a.Get(stmt.Children[1])
	if rhs.Kind != tree.NConst || rhs.Value != 5 {
		t.Fatalf("unexpected rhs: %+v", rhs)
	}
}

func TestRejectsMalformedInput(t *testing.T) {
	p := parser.NewParser(strings.NewReader("int x"))
	if _, _, err := p.Parse(); err == nil {
		t.Fatalf("expected an error for a var-decl missing its terminating ';'")
	}
}
