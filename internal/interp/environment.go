package interp

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/werr"
)

// Environment is one lexical scope: a flat variable table plus a link to
// its enclosing scope (spec §5.4 — block scoping via a parent chain, no
// closures over locals).
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

// NewEnvironment creates a top-level (global) scope.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

// enclose creates a child scope nested inside e, used on entry to a block
// or a function call.
func (e *Environment) enclose() *Environment {
	return &Environment{values: make(map[string]Value), enclosing: e}
}

// define binds name in this scope, shadowing any binding of the same name
// in an enclosing scope. Re-declaring a name in the same scope silently
// replaces it (spec §5.4 places no restriction on this).
func (e *Environment) define(name string, v Value) {
	e.values[name] = v
}

// get resolves name by walking outward through enclosing scopes, reporting
// UnboundVariable — with a fuzzy "did you mean" suggestion drawn from every
// name visible at this point — if nothing binds it.
func (e *Environment) get(name token.Token) (Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values[name.Lexeme]; ok {
			return v, nil
		}
	}
	return nil, e.unboundError(name)
}

// assign rebinds an existing name in the nearest scope that declares it.
// Unlike define, assign never creates a new binding: assigning to an
// undeclared name is an UnboundVariable error (spec §5.4).
func (e *Environment) assign(name token.Token, v Value) error {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = v
			return nil
		}
	}
	return e.unboundError(name)
}

func (e *Environment) unboundError(name token.Token) error {
	msg := fmt.Sprintf("Undefined variable '%s'.", name.Lexeme)
	if closest := e.findClosestName(name.Lexeme); closest != "" {
		msg = fmt.Sprintf("%s Did you mean '%s'?", msg, closest)
	}
	return werr.New(werr.UnboundVariable, name.Line, msg)
}

// findClosestName ranks every name visible from e against target using
// fuzzy matching, mirroring the teacher's findClosestMatch helper.
func (e *Environment) findClosestName(target string) string {
	var candidates []string
	for env := e; env != nil; env = env.enclosing {
		for name := range env.values {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
