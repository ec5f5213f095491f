// Package token defines the closed set of lexical tokens produced by the
// scanner and consumed by the parser.
package token

import "fmt"

// Type ranges over the closed set of token kinds (spec §6.2).
type Type int

const (
	// Single-char tokens.
	LeftParen Type = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// One-or-two-char tokens.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	String
	Number

	// Keywords.
	And
	Class
	Else
	False
	Fun
	For
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While
	Break

	// Sentinel.
	Eof
)

var names = map[Type]string{
	LeftParen: "LeftParen", RightParen: "RightParen",
	LeftBrace: "LeftBrace", RightBrace: "RightBrace",
	Comma: "Comma", Dot: "Dot", Minus: "Minus", Plus: "Plus",
	Semicolon: "Semicolon", Slash: "Slash", Star: "Star",
	Bang: "Bang", BangEqual: "BangEqual", Equal: "Equal", EqualEqual: "EqualEqual",
	Greater: "Greater", GreaterEqual: "GreaterEqual", Less: "Less", LessEqual: "LessEqual",
	Identifier: "Identifier", String: "String", Number: "Number",
	And: "And", Class: "Class", Else: "Else", False: "False", Fun: "Fun", For: "For",
	If: "If", Nil: "Nil", Or: "Or", Print: "Print", Return: "Return", Super: "Super",
	This: "This", True: "True", Var: "Var", While: "While", Break: "Break",
	Eof: "Eof",
}

func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Keywords maps reserved words to their token type. class/super/this/return
// are recognized here even though nothing downstream of the scanner acts on
// them yet — forward compatibility, per spec §4.1.
var Keywords = map[string]Type{
	"and":    And,
	"class":  Class,
	"else":   Else,
	"false":  False,
	"for":    For,
	"fun":    Fun,
	"if":     If,
	"nil":    Nil,
	"or":     Or,
	"print":  Print,
	"return": Return,
	"super":  Super,
	"this":   This,
	"true":   True,
	"var":    Var,
	"while":  While,
	"break":  Break,
}

// Token is an immutable record of one lexical unit.
type Token struct {
	Type    Type
	Lexeme  string
	Literal any // string body, float64, or nil
	Line    int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q %v", t.Type, t.Lexeme, t.Literal)
}
