// Package ast defines the typed abstract syntax tree produced by the
// parser and walked by the interpreter. Expr and Stmt are tagged unions
// (spec §3): one interface per family, one concrete struct per variant.
package ast

import (
	"fmt"
	"strings"

	"github.com/wisplang/wisp/internal/token"
)

// Expr is any expression node. Operator nodes carry their operator token
// so the interpreter can report the right line number on a runtime error.
type Expr interface {
	exprNode()
	String() string
}

// Stmt is any statement node.
type Stmt interface {
	stmtNode()
	String() string
}

// ---- Expressions ----

type Literal struct {
	Value any
}

type Var struct {
	Name token.Token
}

type Assign struct {
	Name  token.Token
	Value Expr
}

type Unary struct {
	Op    token.Token
	Right Expr
}

type Binary struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

// Logical is distinct from Binary because and/or short-circuit (spec §4.3).
type Logical struct {
	Left  Expr
	Op    token.Token
	Right Expr
}

type Grouping struct {
	Expression Expr
}

type Call struct {
	Callee       Expr
	ClosingParen token.Token // for ArityMismatch line reporting
	Args         []Expr
}

// Empty is the absent-expression placeholder (e.g. `var x;` with no
// initializer); it always evaluates to Nil.
type Empty struct{}

func (*Literal) exprNode()  {}
func (*Var) exprNode()      {}
func (*Assign) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Logical) exprNode()  {}
func (*Grouping) exprNode() {}
func (*Call) exprNode()     {}
func (*Empty) exprNode()    {}

func (e *Literal) String() string {
	if e.Value == nil {
		return "nil"
	}
	return fmt.Sprintf("%v", e.Value)
}
func (e *Var) String() string    { return e.Name.Lexeme }
func (e *Assign) String() string { return fmt.Sprintf("%s = %s", e.Name.Lexeme, e.Value) }
func (e *Unary) String() string  { return fmt.Sprintf("(%s%s)", e.Op.Lexeme, e.Right) }
func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op.Lexeme, e.Right)
}
func (e *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op.Lexeme, e.Right)
}
func (e *Grouping) String() string { return fmt.Sprintf("(group %s)", e.Expression) }
func (e *Call) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(parts, ", "))
}
func (e *Empty) String() string { return "" }

// ---- Statements ----

type Expression struct {
	Expr Expr
}

type Print struct {
	Expr Expr
}

type VarDecl struct {
	Name        token.Token
	Initializer Expr
}

type If struct {
	Condition Expr
	Then      Stmt
	Else      Stmt // nil if absent
}

type While struct {
	Condition Expr
	Body      Stmt
}

type Block struct {
	Statements []Stmt
}

type Break struct {
	Keyword token.Token
}

type Function struct {
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

// StmtEmpty is a no-op statement that executes to nothing. The parser does
// not produce it: error recovery drops a failed declaration instead.
type StmtEmpty struct{}

func (*Expression) stmtNode() {}
func (*Print) stmtNode()      {}
func (*VarDecl) stmtNode()    {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*Block) stmtNode()      {}
func (*Break) stmtNode()      {}
func (*Function) stmtNode()   {}
func (*StmtEmpty) stmtNode()  {}

func (s *Expression) String() string { return fmt.Sprintf("%s;", s.Expr) }
func (s *Print) String() string      { return fmt.Sprintf("print %s;", s.Expr) }
func (s *VarDecl) String() string {
	if s.Initializer == nil {
		return fmt.Sprintf("var %s;", s.Name.Lexeme)
	}
	return fmt.Sprintf("var %s = %s;", s.Name.Lexeme, s.Initializer)
}
func (s *If) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if (%s) %s", s.Condition, s.Then)
	}
	return fmt.Sprintf("if (%s) %s else %s", s.Condition, s.Then, s.Else)
}
func (s *While) String() string { return fmt.Sprintf("while (%s) %s", s.Condition, s.Body) }
func (s *Block) String() string {
	parts := make([]string, len(s.Statements))
	for i, st := range s.Statements {
		parts[i] = st.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
func (s *Break) String() string { return "break;" }
func (s *Function) String() string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Lexeme
	}
	return fmt.Sprintf("fun %s(%s) { ... }", s.Name.Lexeme, strings.Join(names, ", "))
}
func (s *StmtEmpty) String() string { return ";" }
