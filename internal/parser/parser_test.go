package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisplang/wisp/internal/ast"
	"github.com/wisplang/wisp/internal/lexer"
	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/werr"
)

func parse(t *testing.T, src string) ([]ast.Stmt, []*werr.Error) {
	t.Helper()
	toks, lexErrs := lexer.New(src).ScanTokens()
	require.Empty(t, lexErrs)
	return New(toks).Parse()
}

func parseOK(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	stmts, errs := parse(t, src)
	require.Empty(t, errs)
	return stmts
}

func TestParse_ExpressionStatement(t *testing.T) {
	stmts := parseOK(t, "1 + 2 * 3;")
	require.Len(t, stmts, 1)
	expr, ok := stmts[0].(*ast.Expression)
	require.True(t, ok)
	assert.Equal(t, "(1 + (2 * 3))", expr.Expr.String())
}

func TestParse_PrecedenceClimbing(t *testing.T) {
	stmts := parseOK(t, "1 < 2 == 3 >= 4;")
	require.Len(t, stmts, 1)
	expr := stmts[0].(*ast.Expression).Expr
	assert.Equal(t, "((1 < 2) == (3 >= 4))", expr.String())
}

func TestParse_UnaryAndGrouping(t *testing.T) {
	stmts := parseOK(t, "!(-1 == 1);")
	expr := stmts[0].(*ast.Expression).Expr
	assert.Equal(t, "(!(group ((-1) == 1)))", expr.String())
}

func TestParse_VarDeclNoInitializer(t *testing.T) {
	stmts := parseOK(t, "var x;")
	decl, ok := stmts[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name.Lexeme)
	_, isEmpty := decl.Initializer.(*ast.Empty)
	assert.True(t, isEmpty)
}

func TestParse_VarDeclWithInitializer(t *testing.T) {
	stmts := parseOK(t, "var x = 1 + 2;")
	decl := stmts[0].(*ast.VarDecl)
	assert.Equal(t, "(1 + 2)", decl.Initializer.String())
}

func TestParse_Assignment(t *testing.T) {
	stmts := parseOK(t, "x = 5;")
	expr := stmts[0].(*ast.Expression).Expr
	assign, ok := expr.(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name.Lexeme)
}

func TestParse_InvalidAssignmentTarget(t *testing.T) {
	_, errs := parse(t, "1 + 2 = 3;")
	require.Len(t, errs, 1)
	assert.Equal(t, werr.InvalidAssignmentTarget, errs[0].Kind)
}

func TestParse_LogicalShortCircuitNodes(t *testing.T) {
	stmts := parseOK(t, "true or false and true;")
	expr := stmts[0].(*ast.Expression).Expr
	logical, ok := expr.(*ast.Logical)
	require.True(t, ok)
	assert.Equal(t, "or", logical.Op.Lexeme)
}

func TestParse_IfElse(t *testing.T) {
	stmts := parseOK(t, "if (true) print 1; else print 2;")
	ifStmt, ok := stmts[0].(*ast.If)
	require.True(t, ok)
	assert.NotNil(t, ifStmt.Then)
	assert.NotNil(t, ifStmt.Else)
}

func TestParse_IfNoElse(t *testing.T) {
	stmts := parseOK(t, "if (true) print 1;")
	ifStmt := stmts[0].(*ast.If)
	assert.Nil(t, ifStmt.Else)
}

func TestParse_WhileLoop(t *testing.T) {
	stmts := parseOK(t, "while (x < 10) { x = x + 1; }")
	while, ok := stmts[0].(*ast.While)
	require.True(t, ok)
	block, ok := while.Body.(*ast.Block)
	require.True(t, ok)
	assert.Len(t, block.Statements, 1)
}

func TestParse_ForDesugarsToWhile(t *testing.T) {
	stmts := parseOK(t, "for (var i = 0; i < 10; i = i + 1) print i;")
	require.Len(t, stmts, 1)

	outer, ok := stmts[0].(*ast.Block)
	require.True(t, ok, "for-loop with an initializer desugars into a wrapping block")
	require.Len(t, outer.Statements, 2)

	_, isVarDecl := outer.Statements[0].(*ast.VarDecl)
	assert.True(t, isVarDecl)

	while, ok := outer.Statements[1].(*ast.While)
	require.True(t, ok, "for-loop desugars to a while loop")
	assert.Equal(t, "(i < 10)", while.Condition.String())

	body, ok := while.Body.(*ast.Block)
	require.True(t, ok, "increment is appended into the while body as a block")
	require.Len(t, body.Statements, 2)
}

func TestParse_ForWithOmittedClausesDefaultsConditionTrue(t *testing.T) {
	stmts := parseOK(t, "for (;;) break;")
	while, ok := stmts[0].(*ast.While)
	require.True(t, ok)
	lit, ok := while.Condition.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, true, lit.Value)
}

func TestParse_BreakStatement(t *testing.T) {
	stmts := parseOK(t, "while (true) break;")
	while := stmts[0].(*ast.While)
	_, ok := while.Body.(*ast.Break)
	assert.True(t, ok)
}

func TestParse_FunctionDeclaration(t *testing.T) {
	stmts := parseOK(t, "fun add(a, b) { print a + b; }")
	fn, ok := stmts[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name.Lexeme)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Lexeme)
	assert.Equal(t, "b", fn.Params[1].Lexeme)
	require.Len(t, fn.Body, 1)
}

func TestParse_CallExpression(t *testing.T) {
	stmts := parseOK(t, "add(1, 2);")
	call, ok := stmts[0].(*ast.Expression).Expr.(*ast.Call)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
}

func TestParse_CallWithTooManyArgumentsIsMaxArguments(t *testing.T) {
	src := "f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += "1"
	}
	src += ");"

	_, errs := parse(t, src)
	require.NotEmpty(t, errs)
	assert.Equal(t, werr.MaxArguments, errs[0].Kind)
}

func TestParse_FunctionWithTooManyParamsIsMaxArguments(t *testing.T) {
	src := "fun f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += "p"
	}
	src += ") { }"

	_, errs := parse(t, src)
	require.NotEmpty(t, errs)
	assert.Equal(t, werr.MaxArguments, errs[0].Kind)
}

func TestParse_MissingSemicolonIsParseError(t *testing.T) {
	_, errs := parse(t, "print 1")
	require.Len(t, errs, 1)
	assert.Equal(t, werr.ParseError, errs[0].Kind)
	assert.Equal(t, "at end", errs[0].Where)
}

func TestParse_SynchronizeRecoversAcrossStatements(t *testing.T) {
	// The first statement is malformed (missing variable name), so consume
	// unwinds to synchronize(), which skips past that statement's ';'; the
	// parser then keeps going with the next statement.
	stmts, errs := parse(t, "var = 1;\nprint 1;")
	require.NotEmpty(t, errs)
	var sawPrint bool
	for _, s := range stmts {
		if _, ok := s.(*ast.Print); ok {
			sawPrint = true
		}
	}
	assert.True(t, sawPrint, "parser should recover and still parse the print statement")
}

func TestParse_Block(t *testing.T) {
	stmts := parseOK(t, "{ var x = 1; print x; }")
	block, ok := stmts[0].(*ast.Block)
	require.True(t, ok)
	assert.Len(t, block.Statements, 2)
}

func TestParse_StringAndNumberLiterals(t *testing.T) {
	stmts := parseOK(t, `print "hi"; print 3.14;`)
	p1 := stmts[0].(*ast.Print).Expr.(*ast.Literal)
	assert.Equal(t, "hi", p1.Value)
	p2 := stmts[1].(*ast.Print).Expr.(*ast.Literal)
	assert.Equal(t, 3.14, p2.Value)
}

func TestParse_ExactTreeShapeForVarDeclAndAssignment(t *testing.T) {
	stmts := parseOK(t, "var x = 1; x = 2;")

	want := []ast.Stmt{
		&ast.VarDecl{
			Name:        token.Token{Type: token.Identifier, Lexeme: "x", Line: 1},
			Initializer: &ast.Literal{Value: 1.0},
		},
		&ast.Expression{
			Expr: &ast.Assign{
				Name:  token.Token{Type: token.Identifier, Lexeme: "x", Line: 1},
				Value: &ast.Literal{Value: 2.0},
			},
		},
	}

	if diff := cmp.Diff(want, stmts); diff != "" {
		t.Errorf("parse tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NilAndBooleanLiterals(t *testing.T) {
	stmts := parseOK(t, "print nil; print true; print false;")
	assert.Nil(t, stmts[0].(*ast.Print).Expr.(*ast.Literal).Value)
	assert.Equal(t, true, stmts[1].(*ast.Print).Expr.(*ast.Literal).Value)
	assert.Equal(t, false, stmts[2].(*ast.Print).Expr.(*ast.Literal).Value)
}
