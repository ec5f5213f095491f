// Package interp walks the AST produced by internal/parser and evaluates
// it directly: no bytecode, no separate resolution pass (spec §5).
package interp

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wisplang/wisp/internal/ast"
	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/werr"
)

// breakSignal unwinds a running loop body back to its enclosing While.
// It is deliberately not a werr.Kind: break is ordinary control flow, not
// an error (spec §9's design note on why Break lives outside the error
// taxonomy).
type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

// Interpreter holds the mutable state of one evaluation session: its
// global scope, current scope, the nesting depth used to reject a
// top-level break, and whether it is running as a REPL (spec §3's
// isRepl field).
type Interpreter struct {
	globals   *Environment
	env       *Environment
	loopDepth int
	isRepl    bool
	out       io.Writer
	logger    *slog.Logger
}

// New creates an Interpreter that writes `print` output to out.
func New(out io.Writer) *Interpreter {
	return newInterpreter(out, false)
}

// NewREPL creates an Interpreter in REPL mode: per spec §4.3, a bare
// expression statement also echoes its stringified value to out.
func NewREPL(out io.Writer) *Interpreter {
	return newInterpreter(out, true)
}

func newInterpreter(out io.Writer, isRepl bool) *Interpreter {
	level := slog.LevelInfo
	if os.Getenv("WISP_DEBUG_INTERP") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	globals := NewEnvironment()
	return &Interpreter{globals: globals, env: globals, isRepl: isRepl, out: out, logger: logger}
}

// Run executes stmts against the interpreter's current (persistent) state,
// so a REPL can call Run repeatedly over one Interpreter and keep variables
// and function definitions alive across lines (spec §10).
func (in *Interpreter) Run(stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := in.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---- statements ----

func (in *Interpreter) execute(stmt ast.Stmt) error {
	in.logger.Debug("execute", "stmt", stmt.String())
	switch s := stmt.(type) {
	case *ast.Expression:
		v, err := in.eval(s.Expr)
		if err != nil {
			return err
		}
		if in.isRepl {
			fmt.Fprintln(in.out, stringify(v))
		}
		return nil
	case *ast.Print:
		v, err := in.eval(s.Expr)
		if err != nil {
			return err
		}
		fmt.Fprintln(in.out, stringify(v))
		return nil
	case *ast.VarDecl:
		v, err := in.eval(s.Initializer)
		if err != nil {
			return err
		}
		in.env.define(s.Name.Lexeme, v)
		return nil
	case *ast.Block:
		return in.executeBlock(s.Statements, in.env.enclose())
	case *ast.If:
		cond, err := in.eval(s.Condition)
		if err != nil {
			return err
		}
		if isTruthy(cond) {
			return in.execute(s.Then)
		}
		if s.Else != nil {
			return in.execute(s.Else)
		}
		return nil
	case *ast.While:
		in.loopDepth++
		defer func() { in.loopDepth-- }()
		for {
			cond, err := in.eval(s.Condition)
			if err != nil {
				return err
			}
			if !isTruthy(cond) {
				return nil
			}
			if err := in.execute(s.Body); err != nil {
				if _, isBreak := err.(breakSignal); isBreak {
					return nil
				}
				return err
			}
		}
	case *ast.Break:
		if in.loopDepth == 0 {
			return werr.NewAt(werr.BreakOutsideLoop, s.Keyword.Line, "at 'break'", "Cannot break outside of a loop.")
		}
		return breakSignal{}
	case *ast.Function:
		fn := &Function{Name: s.Name.Lexeme, Params: paramNames(s.Params), Body: s.Body}
		in.env.define(s.Name.Lexeme, fn)
		return nil
	case *ast.StmtEmpty:
		return nil
	default:
		return werr.New(werr.ParseError, 0, fmt.Sprintf("unhandled statement %T", s))
	}
}

func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) error {
	previous := in.env
	in.env = env
	defer func() { in.env = previous }()

	for _, stmt := range stmts {
		if err := in.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

func paramNames(params []token.Token) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Lexeme
	}
	return names
}

// ---- expressions ----

func (in *Interpreter) eval(expr ast.Expr) (Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil
	case *ast.Empty:
		return nil, nil
	case *ast.Grouping:
		return in.eval(e.Expression)
	case *ast.Var:
		return in.env.get(e.Name)
	case *ast.Assign:
		v, err := in.eval(e.Value)
		if err != nil {
			return nil, err
		}
		if err := in.env.assign(e.Name, v); err != nil {
			return nil, err
		}
		return v, nil
	case *ast.Unary:
		return in.evalUnary(e)
	case *ast.Binary:
		return in.evalBinary(e)
	case *ast.Logical:
		return in.evalLogical(e)
	case *ast.Call:
		return in.evalCall(e)
	default:
		return nil, werr.New(werr.ParseError, 0, fmt.Sprintf("unhandled expression %T", e))
	}
}

func (in *Interpreter) evalUnary(e *ast.Unary) (Value, error) {
	right, err := in.eval(e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Op.Type {
	case token.Bang:
		return !isTruthy(right), nil
	case token.Minus:
		num, ok := right.(float64)
		if !ok {
			return nil, typeMismatch(e.Op.Line, "Operand must be a number.")
		}
		return -num, nil
	default:
		return nil, werr.New(werr.ParseError, e.Op.Line, "unknown unary operator "+e.Op.Lexeme)
	}
}

func (in *Interpreter) evalLogical(e *ast.Logical) (Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	// Short-circuit: the right operand is never evaluated when the left
	// side already decides the result (spec §5.2).
	if e.Op.Type == token.Or {
		if isTruthy(left) {
			return left, nil
		}
	} else {
		if !isTruthy(left) {
			return left, nil
		}
	}
	return in.eval(e.Right)
}

func (in *Interpreter) evalBinary(e *ast.Binary) (Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Type {
	case token.Minus, token.Slash, token.Star,
		token.Greater, token.GreaterEqual, token.Less, token.LessEqual:
		lnum, lok := left.(float64)
		rnum, rok := right.(float64)
		if !lok || !rok {
			return nil, typeMismatch(e.Op.Line, "Operands must be numbers.")
		}
		switch e.Op.Type {
		case token.Minus:
			return lnum - rnum, nil
		case token.Slash:
			if rnum == 0 {
				return nil, werr.NewAt(werr.DividedByZero, e.Op.Line, "at '/'", "Division by zero.")
			}
			return lnum / rnum, nil
		case token.Star:
			return lnum * rnum, nil
		case token.Greater:
			return lnum > rnum, nil
		case token.GreaterEqual:
			return lnum >= rnum, nil
		case token.Less:
			return lnum < rnum, nil
		case token.LessEqual:
			return lnum <= rnum, nil
		}
	case token.Plus:
		if lnum, ok := left.(float64); ok {
			if rnum, ok := right.(float64); ok {
				return lnum + rnum, nil
			}
		}
		if lstr, ok := left.(string); ok {
			if rstr, ok := right.(string); ok {
				return lstr + rstr, nil
			}
		}
		return nil, typeMismatch(e.Op.Line, fmt.Sprintf(
			"Operands must be two numbers or two strings (got %s and %s).",
			typeName(left), typeName(right)))
	case token.BangEqual:
		return !isEqual(left, right), nil
	case token.EqualEqual:
		return isEqual(left, right), nil
	}
	return nil, werr.New(werr.ParseError, e.Op.Line, "unknown binary operator "+e.Op.Lexeme)
}

func (in *Interpreter) evalCall(e *ast.Call) (Value, error) {
	callee, err := in.eval(e.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := in.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	fn, ok := callee.(*Function)
	if !ok {
		return nil, werr.NewAt(werr.NotCallable, e.ClosingParen.Line, "at ')'", "Can only call functions.")
	}
	if len(args) != fn.Arity() {
		return nil, werr.NewAt(werr.ArityMismatch, e.ClosingParen.Line, "at ')'",
			fmt.Sprintf("Expected %d arguments but got %d.", fn.Arity(), len(args)))
	}

	in.logger.Debug("call", "function", fn.Name, "args", args)

	// Function bodies run in a fresh scope chained off globals, not the
	// caller's scope — functions never close over locals (spec §5.3).
	callEnv := in.globals.enclose()
	for i, name := range fn.Params {
		callEnv.define(name, args[i])
	}

	savedDepth := in.loopDepth
	in.loopDepth = 0
	err = in.executeBlock(fn.Body, callEnv)
	in.loopDepth = savedDepth

	if err != nil {
		if _, isBreak := err.(breakSignal); isBreak {
			return nil, werr.New(werr.BreakOutsideLoop, e.ClosingParen.Line, "Cannot break outside of a loop.")
		}
		return nil, err
	}
	return nil, nil
}

func typeMismatch(line int, msg string) error {
	return werr.New(werr.TypeMismatch, line, msg)
}
