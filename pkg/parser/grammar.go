package parser

import (
	pc "github.com/prataprc/goparsec"
)

// Top level object, will generate the traversable AST based on the input
// plus the PCs below (same idiom as the teacher's pkg/asm/pkg/jack/pkg/vm
// parsers: one package-level *pc.AST, grammar rules as package-level
// combinator vars).
var ast = pc.NewAST("cminus", 0)

// pExpr and pStmt are mutually/self recursive (factor -> '(' expr ')',
// var -> '[' expr ']', compound-stmt -> stmt*, if/while -> stmt), which a
// package-level var block cannot express directly (Go rejects an
// initialization cycle among package vars). Both are declared here and
// assigned in init(), after every combinator that only needs to reference
// them indirectly has already been built via the exprFwd/stmtFwd
// forwarding thunks below.
var (
	pExpr pc.Parser
	pStmt pc.Parser
)

func exprFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return pExpr(s) }
func stmtFwd(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return pStmt(s) }

var (
	pIdent  = pc.Token(`[A-Za-z_][0-9a-zA-Z_]*`, "IDENT")
	pNumber = pc.Int()

	pSemi     = pc.Atom(";", "SEMI")
	pComma    = pc.Atom(",", "COMMA")
	pLParen   = pc.Atom("(", "LPAREN")
	pRParen   = pc.Atom(")", "RPAREN")
	pLBrace   = pc.Atom("{", "LBRACE")
	pRBrace   = pc.Atom("}", "RBRACE")
	pLBracket = pc.Atom("[", "LBRACKET")
	pRBracket = pc.Atom("]", "RBRACKET")
	pAssignOp = pc.Atom("=", "ASSIGN")

	// type-spec := 'int' | 'void'
	pTypeSpec = ast.OrdChoice("type_spec", nil, pc.Atom("int", "INT"), pc.Atom("void", "VOID"))

	pAddop = ast.OrdChoice("addop", nil, pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"))
	pMulop = ast.OrdChoice("mulop", nil, pc.Atom("*", "TIMES"), pc.Atom("/", "OVER"))
	pRelop = ast.OrdChoice("relop", nil,
		pc.Atom("<=", "LE"), pc.Atom(">=", "GE"), pc.Atom("==", "EQ"), pc.Atom("!=", "NE"),
		pc.Atom("<", "LT"), pc.Atom(">", "GT"),
	)
)

// var := ID ('[' expr ']')?
var pVar = ast.And("var", nil, pIdent, pc.Maybe(nil, ast.And("index", nil, pLBracket, pc.Parser(exprFwd), pRBracket)))

// call := ID '(' args ')'; args := (expr (',' expr)*)?
var (
	pArgs = ast.Kleene("args", nil, pc.Parser(exprFwd), pComma)
	pCall = ast.And("call", nil, pIdent, pLParen, pArgs, pRParen)
)

// factor := '(' expr ')' | call | var | NUM
//
// call and var share the ID prefix; call is tried first as a complete unit
// (its own '(' ... ')' must match or the whole alternative fails, per
// goparsec's non-backtracking-across-alternatives OrdChoice semantics) so
// ambiguity resolves by which full alternative actually consumes.
var pFactor = ast.OrdChoice("factor", nil,
	ast.And("paren", nil, pLParen, pc.Parser(exprFwd), pRParen),
	pCall,
	pVar,
	pNumber,
)

// term := factor (mulop factor)*
var pTerm = ast.And("term", nil, pFactor, ast.Kleene("term_tail", nil, ast.And("mul_step", nil, pMulop, pFactor)))

// additive-expr := term (addop term)*
var pAdditiveExpr = ast.And("additive_expr", nil, pTerm, ast.Kleene("additive_tail", nil, ast.And("add_step", nil, pAddop, pTerm)))

// simple-expr := additive-expr (relop additive-expr)?
var pSimpleExpr = ast.And("simple_expr", nil, pAdditiveExpr, pc.Maybe(nil, ast.And("rel_step", nil, pRelop, pAdditiveExpr)))

// expr := var '=' expr | simple-expr
//
// Same non-backtracking concern as factor/call/var: pAssignExpr must
// consume the '=' or fail outright (so OrdChoice falls through to
// pSimpleExpr, which can itself re-derive a bare 'var' as a degenerate
// simple-expr).
var (
	pAssignExpr = ast.And("assign_expr", nil, pVar, pAssignOp, pc.Parser(exprFwd))
	pExprRule   = ast.OrdChoice("expr", nil, pAssignExpr, pSimpleExpr)
)

// param := type-spec ID ('[' ']')?
var pParam = ast.And("param", nil, pTypeSpec, pIdent, pc.Maybe(nil, ast.And("array_param", nil, pLBracket, pRBracket)))
var pParamList = ast.Many("param_list", nil, pParam, pComma)

// params := 'void' | param (',' param)*
//
// The bare 'void' form and a (possibly void-typed) parameter list share the
// 'void' prefix; both alternatives below consume through the closing ')'
// as one atomic unit so the wrong one simply fails outright instead of
// silently under-consuming (see the comment on pTopDecl below for why this
// matters here but not for var-decl vs. fun-decl).
var pParams = ast.OrdChoice("params", nil,
	ast.And("void_params", nil, pc.Atom("void", "VOID"), pRParen),
	ast.And("param_list_params", nil, pParamList, pRParen),
)

// local-decl := type-spec ID (';' | '[' NUM ']' ';')
var pVarDeclTail = ast.OrdChoice("var_decl_tail", nil,
	pSemi,
	ast.And("array_suffix", nil, pLBracket, pNumber, pRBracket, pSemi),
)
var pVarDecl = ast.And("var_decl", nil, pTypeSpec, pIdent, pVarDeclTail)

// compound-stmt := '{' local-decl* stmt* '}'
var pCompoundStmt = ast.And("compound_stmt", nil,
	pLBrace,
	ast.Kleene("local_decls", nil, pVarDecl),
	ast.Kleene("stmts", nil, pc.Parser(stmtFwd)),
	pRBrace,
)

// fun-decl := type-spec ID '(' params ')' compound-stmt
//
// params is folded together with its own trailing ')' (see pParams above),
// so the sequence here only needs '(' then the combined params+')' node.
var pFunDecl = ast.And("fun_decl", nil, pTypeSpec, pIdent, pLParen, pParams, pCompoundStmt)

// selection-stmt := 'if' '(' expr ')' stmt ('else' stmt)?
var pIfStmt = ast.And("if_stmt", nil,
	pc.Atom("if", "IF"), pLParen, pc.Parser(exprFwd), pRParen, pc.Parser(stmtFwd),
	pc.Maybe(nil, ast.And("else_clause", nil, pc.Atom("else", "ELSE"), pc.Parser(stmtFwd))),
)

// iteration-stmt := 'while' '(' expr ')' stmt
var pWhileStmt = ast.And("while_stmt", nil, pc.Atom("while", "WHILE"), pLParen, pc.Parser(exprFwd), pRParen, pc.Parser(stmtFwd))

// return-stmt := 'return' expr? ';'
var pReturnStmt = ast.And("return_stmt", nil, pc.Atom("return", "RETURN"), pc.Maybe(nil, pc.Parser(exprFwd)), pSemi)

// read-stmt := 'read' var ';'
var pReadStmt = ast.And("read_stmt", nil, pc.Atom("read", "READ"), pVar, pSemi)

// write-stmt := 'write' expr ';'
var pWriteStmt = ast.And("write_stmt", nil, pc.Atom("write", "WRITE"), pc.Parser(exprFwd), pSemi)

// expr-stmt := expr? ';'
var pExprStmt = ast.And("expr_stmt", nil, pc.Maybe(nil, pc.Parser(exprFwd)), pSemi)

// var-decl or fun-decl: both start with type-spec ID but diverge cleanly at
// the token right after ID ('(' for fun-decl, ';'/'[' for var-decl), so
// unlike params/expr above the two full alternatives never partially
// overlap in what they consume — ordinary OrdChoice suffices.
var pTopDecl = ast.OrdChoice("top_decl", nil, pVarDecl, pFunDecl)

// program := (var-decl | fun-decl)*
var pProgram = ast.ManyUntil("program", nil, pTopDecl, pc.End())

func init() {
	pStmt = ast.OrdChoice("stmt", nil,
		pCompoundStmt, pIfStmt, pWhileStmt, pReturnStmt, pReadStmt, pWriteStmt, pExprStmt,
	)
	pExpr = pExprRule
}
