package parser

import (
	"fmt"
	"strconv"

	pc "github.com/prataprc/goparsec"

	"github.com/cminus-lang/cminusc/pkg/tree"
)

// typeOf maps a matched type-spec leaf ("INT" or "VOID", per pTypeSpec in
// grammar.go) to the tree.SemType pkg/sema expects to find already stamped
// on every declaration node.
func typeOf(q pc.Queryable) tree.SemType {
	if q.GetValue() == "void" {
		return tree.Void
	}
	return tree.Integer
}

// named reports whether q is non-nil and carries one of the given names,
// the same "match by name, else treat as absent" idiom the teacher's own
// pc.Maybe/OrdChoice call sites use (see pkg/asm/parsing.go's HandleCInst).
func named(q pc.Queryable, names ...string) bool {
	if q == nil {
		return false
	}
	for _, n := range names {
		if q.GetName() == n {
			return true
		}
	}
	return false
}

// FromAST walks the raw goparsec AST rooted at 'root' (the "program" node)
// into a fresh tree.Arena, returning the head of the top-level
// var-decl/fun-decl sibling list that pkg/sema and pkg/codegen expect.
//
// goparsec's OrdChoice and Maybe are transparent: a matched alternative
// surfaces as the chosen sub-parser's own node, never wrapped under the
// combinator's own name (confirmed against the teacher's pkg/asm/parsing.go
// and pkg/vm/parsing.go, whose FromAST/Handle* functions switch on the
// inner alternative's name directly). Only And/Kleene/Many/ManyUntil
// materialize a node under the name they were given.
func FromAST(root pc.Queryable) (*tree.Arena, tree.NodeID, error) {
	if root == nil {
		return nil, tree.NilNode, fmt.Errorf("empty parse result")
	}
	if root.GetName() != "program" {
		return nil, tree.NilNode, fmt.Errorf("expected node 'program', found %s", root.GetName())
	}

	a := tree.NewArena()

	var head, tail tree.NodeID
	for _, child := range root.GetChildren() {
		id, err := buildTopDecl(a, child)
		if err != nil {
			return nil, tree.NilNode, err
		}
		if head == tree.NilNode {
			head = id
		}
		tail = a.AppendSibling(tail, id)
	}

	return a, head, nil
}

func buildTopDecl(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	switch q.GetName() {
	case "var_decl":
		return buildVarDecl(a, q)
	case "fun_decl":
		return buildFunDecl(a, q)
	default:
		return tree.NilNode, fmt.Errorf("unrecognized top-level node %q", q.GetName())
	}
}

// buildVarDecl handles both a top-level and a local "var_decl" node: type-
// spec ID (';' | '[' NUM ']' ';').
func buildVarDecl(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 3 {
		return tree.NilNode, fmt.Errorf("expected node 'var_decl' with 3 leaves, got %d", len(children))
	}
	typeSpec, ident, tail := children[0], children[1], children[2]
	name := ident.GetValue()

	switch {
	case named(tail, "SEMI"):
		id := a.New(tree.NVarDecl, 0)
		n := a.Get(id)
		n.Name, n.Type = name, typeOf(typeSpec)
		return id, nil

	case named(tail, "array_suffix"):
		suffix := tail.GetChildren()
		if len(suffix) != 4 {
			return tree.NilNode, fmt.Errorf("expected node 'array_suffix' with 4 leaves, got %d", len(suffix))
		}
		length, err := strconv.Atoi(suffix[1].GetValue())
		if err != nil {
			return tree.NilNode, fmt.Errorf("invalid array length %q: %w", suffix[1].GetValue(), err)
		}
		id := a.New(tree.NArrDecl, 0)
		constID := a.New(tree.NConst, 0)
		a.Get(constID).Value = length
		n := a.Get(id)
		n.Name, n.Type, n.Children[0] = name, typeOf(typeSpec), constID
		return id, nil

	default:
		return tree.NilNode, fmt.Errorf("unrecognized 'var_decl' tail %q", tail.GetName())
	}
}

// buildFunDecl handles type-spec ID '(' params ')' compound-stmt.
func buildFunDecl(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 5 {
		return tree.NilNode, fmt.Errorf("expected node 'fun_decl' with 5 leaves, got %d", len(children))
	}
	typeSpec, ident, _, params, compound := children[0], children[1], children[2], children[3], children[4]

	paramsHead, err := buildParams(a, params)
	if err != nil {
		return tree.NilNode, err
	}
	bodyID, err := buildCompoundStmt(a, compound)
	if err != nil {
		return tree.NilNode, err
	}

	id := a.New(tree.NFuncDecl, 0)
	n := a.Get(id)
	n.Name, n.Type = ident.GetValue(), typeOf(typeSpec)
	n.Children[0], n.Children[1] = paramsHead, bodyID
	return id, nil
}

// buildParams handles params := 'void' | param (',' param)*, folded in
// grammar.go with its own trailing ')' into "void_params"/"param_list_params".
func buildParams(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	switch q.GetName() {
	case "void_params":
		return tree.NilNode, nil

	case "param_list_params":
		children := q.GetChildren()
		if len(children) != 2 {
			return tree.NilNode, fmt.Errorf("expected node 'param_list_params' with 2 leaves, got %d", len(children))
		}
		var head, tail tree.NodeID
		for _, p := range children[0].GetChildren() {
			id, err := buildParam(a, p)
			if err != nil {
				return tree.NilNode, err
			}
			if head == tree.NilNode {
				head = id
			}
			tail = a.AppendSibling(tail, id)
		}
		return head, nil

	default:
		return tree.NilNode, fmt.Errorf("unrecognized 'params' node %q", q.GetName())
	}
}

// buildParam handles param := type-spec ID ('[' ']')?.
func buildParam(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 3 {
		return tree.NilNode, fmt.Errorf("expected node 'param' with 3 leaves, got %d", len(children))
	}
	typeSpec, ident, arraySuffix := children[0], children[1], children[2]

	kind := tree.NParamVar
	if named(arraySuffix, "array_param") {
		kind = tree.NParamArr
	}
	id := a.New(kind, 0)
	n := a.Get(id)
	n.Name, n.Type = ident.GetValue(), typeOf(typeSpec)
	return id, nil
}

// buildCompoundStmt handles '{' local-decl* stmt* '}'.
func buildCompoundStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 4 {
		return tree.NilNode, fmt.Errorf("expected node 'compound_stmt' with 4 leaves, got %d", len(children))
	}
	localDecls, stmts := children[1], children[2]

	var declHead, declTail tree.NodeID
	for _, d := range localDecls.GetChildren() {
		id, err := buildVarDecl(a, d)
		if err != nil {
			return tree.NilNode, err
		}
		if declHead == tree.NilNode {
			declHead = id
		}
		declTail = a.AppendSibling(declTail, id)
	}

	var stmtHead, stmtTail tree.NodeID
	for _, s := range stmts.GetChildren() {
		id, err := buildStmt(a, s)
		if err != nil {
			return tree.NilNode, err
		}
		if id == tree.NilNode { // a bare ';' expr-stmt: no-op, nothing to link in
			continue
		}
		if stmtHead == tree.NilNode {
			stmtHead = id
		}
		stmtTail = a.AppendSibling(stmtTail, id)
	}

	id := a.New(tree.NCompound, 0)
	n := a.Get(id)
	n.Children[0], n.Children[1] = declHead, stmtHead
	return id, nil
}

func buildStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	switch q.GetName() {
	case "compound_stmt":
		return buildCompoundStmt(a, q)
	case "if_stmt":
		return buildIfStmt(a, q)
	case "while_stmt":
		return buildWhileStmt(a, q)
	case "return_stmt":
		return buildReturnStmt(a, q)
	case "read_stmt":
		return buildReadStmt(a, q)
	case "write_stmt":
		return buildWriteStmt(a, q)
	case "expr_stmt":
		return buildExprStmt(a, q)
	default:
		return tree.NilNode, fmt.Errorf("unrecognized 'stmt' node %q", q.GetName())
	}
}

// buildIfStmt handles 'if' '(' expr ')' stmt ('else' stmt)?.
func buildIfStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 6 {
		return tree.NilNode, fmt.Errorf("expected node 'if_stmt' with 6 leaves, got %d", len(children))
	}
	cond, then, elseClause := children[2], children[4], children[5]

	condID, err := buildExpr(a, cond)
	if err != nil {
		return tree.NilNode, err
	}
	thenID, err := buildStmt(a, then)
	if err != nil {
		return tree.NilNode, err
	}

	elseID := tree.NilNode
	if named(elseClause, "else_clause") {
		elseChildren := elseClause.GetChildren()
		if len(elseChildren) != 2 {
			return tree.NilNode, fmt.Errorf("expected node 'else_clause' with 2 leaves, got %d", len(elseChildren))
		}
		elseID, err = buildStmt(a, elseChildren[1])
		if err != nil {
			return tree.NilNode, err
		}
	}

	id := a.New(tree.NIf, 0)
	n := a.Get(id)
	n.Children[0], n.Children[1], n.Children[2] = condID, thenID, elseID
	return id, nil
}

// buildWhileStmt handles 'while' '(' expr ')' stmt.
func buildWhileStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 5 {
		return tree.NilNode, fmt.Errorf("expected node 'while_stmt' with 5 leaves, got %d", len(children))
	}
	condID, err := buildExpr(a, children[2])
	if err != nil {
		return tree.NilNode, err
	}
	bodyID, err := buildStmt(a, children[4])
	if err != nil {
		return tree.NilNode, err
	}

	id := a.New(tree.NWhile, 0)
	n := a.Get(id)
	n.Children[0], n.Children[1] = condID, bodyID
	return id, nil
}

// buildReturnStmt handles 'return' expr? ';'.
func buildReturnStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 3 {
		return tree.NilNode, fmt.Errorf("expected node 'return_stmt' with 3 leaves, got %d", len(children))
	}

	exprID := tree.NilNode
	if isExpr(children[1]) {
		var err error
		exprID, err = buildExpr(a, children[1])
		if err != nil {
			return tree.NilNode, err
		}
	}

	id := a.New(tree.NReturn, 0)
	a.Get(id).Children[0] = exprID
	return id, nil
}

// buildReadStmt handles 'read' var ';'.
func buildReadStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 3 {
		return tree.NilNode, fmt.Errorf("expected node 'read_stmt' with 3 leaves, got %d", len(children))
	}
	varID, err := buildVar(a, children[1])
	if err != nil {
		return tree.NilNode, err
	}
	id := a.New(tree.NRead, 0)
	a.Get(id).Children[0] = varID
	return id, nil
}

// buildWriteStmt handles 'write' expr ';'.
func buildWriteStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 3 {
		return tree.NilNode, fmt.Errorf("expected node 'write_stmt' with 3 leaves, got %d", len(children))
	}
	exprID, err := buildExpr(a, children[1])
	if err != nil {
		return tree.NilNode, err
	}
	id := a.New(tree.NWrite, 0)
	a.Get(id).Children[0] = exprID
	return id, nil
}

// buildExprStmt handles expr? ';'. A bare ';' (no expression) is a no-op
// and builds no node at all: the caller skips NilNode results rather than
// linking an empty statement into the sibling list.
func buildExprStmt(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 2 {
		return tree.NilNode, fmt.Errorf("expected node 'expr_stmt' with 2 leaves, got %d", len(children))
	}
	if !isExpr(children[0]) {
		return tree.NilNode, nil
	}
	return buildExpr(a, children[0])
}

// isExpr reports whether q is a present "expr" match: 'assign_expr' and
// 'simple_expr' are built by ast.And (see grammar.go), which always
// materializes its own node, so either name reliably means "present" where
// pc.Maybe wraps an optional expr.
func isExpr(q pc.Queryable) bool {
	return named(q, "assign_expr", "simple_expr")
}

// buildExpr handles expr := var '=' expr | simple-expr.
func buildExpr(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	switch q.GetName() {
	case "assign_expr":
		return buildAssignExpr(a, q)
	case "simple_expr":
		return buildSimpleExpr(a, q)
	default:
		return tree.NilNode, fmt.Errorf("unrecognized 'expr' node %q", q.GetName())
	}
}

// buildAssignExpr handles var '=' expr. Grammar-wise 'expr' also nests
// under factor's '(' expr ')' alternative, so an assignment can in
// principle appear as a parenthesized sub-expression (e.g. "x = (y = 1)");
// pkg/codegen's genExpr has no case for an NAssign operand there, matching
// how this dialect is actually exercised (assignment only ever appears
// directly at statement position in practice).
func buildAssignExpr(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 3 {
		return tree.NilNode, fmt.Errorf("expected node 'assign_expr' with 3 leaves, got %d", len(children))
	}
	targetID, err := buildVar(a, children[0])
	if err != nil {
		return tree.NilNode, err
	}
	rhsID, err := buildExpr(a, children[2])
	if err != nil {
		return tree.NilNode, err
	}

	id := a.New(tree.NAssign, 0)
	n := a.Get(id)
	n.Children[0], n.Children[1] = targetID, rhsID
	return id, nil
}

// buildSimpleExpr handles additive-expr (relop additive-expr)?.
func buildSimpleExpr(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 2 {
		return tree.NilNode, fmt.Errorf("expected node 'simple_expr' with 2 leaves, got %d", len(children))
	}
	lhsID, err := buildAdditiveExpr(a, children[0])
	if err != nil {
		return tree.NilNode, err
	}
	if !named(children[1], "rel_step") {
		return lhsID, nil
	}

	step := children[1].GetChildren()
	if len(step) != 2 {
		return tree.NilNode, fmt.Errorf("expected node 'rel_step' with 2 leaves, got %d", len(step))
	}
	rhsID, err := buildAdditiveExpr(a, step[1])
	if err != nil {
		return tree.NilNode, err
	}

	id := a.New(tree.NOp, 0)
	n := a.Get(id)
	n.Op, n.Type = step[0].GetValue(), tree.Boolean
	n.Children[0], n.Children[1] = lhsID, rhsID
	return id, nil
}

// buildAdditiveExpr handles term (addop term)*, left-folding each step into
// a fresh NOp node.
func buildAdditiveExpr(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 2 {
		return tree.NilNode, fmt.Errorf("expected node 'additive_expr' with 2 leaves, got %d", len(children))
	}
	result, err := buildTerm(a, children[0])
	if err != nil {
		return tree.NilNode, err
	}

	for _, step := range children[1].GetChildren() {
		stepChildren := step.GetChildren()
		if len(stepChildren) != 2 {
			return tree.NilNode, fmt.Errorf("expected node 'add_step' with 2 leaves, got %d", len(stepChildren))
		}
		rhs, err := buildTerm(a, stepChildren[1])
		if err != nil {
			return tree.NilNode, err
		}
		id := a.New(tree.NOp, 0)
		n := a.Get(id)
		n.Op, n.Type = stepChildren[0].GetValue(), tree.Integer
		n.Children[0], n.Children[1] = result, rhs
		result = id
	}
	return result, nil
}

// buildTerm handles factor (mulop factor)*, the same left-fold as
// buildAdditiveExpr one precedence level down.
func buildTerm(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 2 {
		return tree.NilNode, fmt.Errorf("expected node 'term' with 2 leaves, got %d", len(children))
	}
	result, err := buildFactor(a, children[0])
	if err != nil {
		return tree.NilNode, err
	}

	for _, step := range children[1].GetChildren() {
		stepChildren := step.GetChildren()
		if len(stepChildren) != 2 {
			return tree.NilNode, fmt.Errorf("expected node 'mul_step' with 2 leaves, got %d", len(stepChildren))
		}
		rhs, err := buildFactor(a, stepChildren[1])
		if err != nil {
			return tree.NilNode, err
		}
		id := a.New(tree.NOp, 0)
		n := a.Get(id)
		n.Op, n.Type = stepChildren[0].GetValue(), tree.Integer
		n.Children[0], n.Children[1] = result, rhs
		result = id
	}
	return result, nil
}

// buildFactor handles '(' expr ')' | call | var | NUM.
func buildFactor(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	switch q.GetName() {
	case "paren":
		children := q.GetChildren()
		if len(children) != 3 {
			return tree.NilNode, fmt.Errorf("expected node 'paren' with 3 leaves, got %d", len(children))
		}
		return buildExpr(a, children[1])

	case "call":
		return buildCall(a, q)

	case "var":
		return buildVar(a, q)

	case "INT":
		value, err := strconv.Atoi(q.GetValue())
		if err != nil {
			return tree.NilNode, fmt.Errorf("invalid integer literal %q: %w", q.GetValue(), err)
		}
		id := a.New(tree.NConst, 0)
		n := a.Get(id)
		n.Value, n.Type = value, tree.Integer
		return id, nil

	default:
		return tree.NilNode, fmt.Errorf("unrecognized 'factor' node %q", q.GetName())
	}
}

// buildVar handles var := ID ('[' expr ']')?. Every use starts out as an
// NVar; pkg/sema's buildSymtab reclassifies it to NArr once it sees the
// declaration it resolves to is array-shaped.
func buildVar(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 2 {
		return tree.NilNode, fmt.Errorf("expected node 'var' with 2 leaves, got %d", len(children))
	}
	id := a.New(tree.NVar, 0)
	a.Get(id).Name = children[0].GetValue()

	if named(children[1], "index") {
		indexChildren := children[1].GetChildren()
		if len(indexChildren) != 3 {
			return tree.NilNode, fmt.Errorf("expected node 'index' with 3 leaves, got %d", len(indexChildren))
		}
		idxID, err := buildExpr(a, indexChildren[1])
		if err != nil {
			return tree.NilNode, err
		}
		a.Get(id).Children[0] = idxID
	}
	return id, nil
}

// buildCall handles call := ID '(' args ')'.
func buildCall(a *tree.Arena, q pc.Queryable) (tree.NodeID, error) {
	children := q.GetChildren()
	if len(children) != 4 {
		return tree.NilNode, fmt.Errorf("expected node 'call' with 4 leaves, got %d", len(children))
	}

	id := a.New(tree.NFuncCall, 0)
	a.Get(id).Name = children[0].GetValue()

	var head, tail tree.NodeID
	for _, arg := range children[2].GetChildren() {
		argID, err := buildExpr(a, arg)
		if err != nil {
			return tree.NilNode, err
		}
		if head == tree.NilNode {
			head = argID
		}
		tail = a.AppendSibling(tail, argID)
	}
	a.Get(id).Children[0] = head

	return id, nil
}
