package interp

import (
	"fmt"
	"strconv"

	"github.com/wisplang/wisp/internal/ast"
)

// Value is any runtime wisp value: nil, bool, float64, string, or *Function
// (spec §5.1). Go's any plays the role of a closed tagged union here; every
// operator site below does an exhaustive type switch rather than relying on
// an open interface hierarchy, since the value set itself is closed.
type Value = any

// Function is a user-defined function value produced by a Function
// declaration. Functions do not close over the environment they were
// declared in — spec §5.3 deliberately omits closures over locals — so a
// Function only remembers its own parameter/body shape.
type Function struct {
	Name   string
	Params []string
	Body   []ast.Stmt
}

func (f *Function) Arity() int { return len(f.Params) }

func (f *Function) String() string {
	return fmt.Sprintf("<fn %s>", f.Name)
}

// isTruthy implements spec §5.2's truthiness rule: nil and false are
// falsy, every other value (including 0 and "") is truthy.
func isTruthy(v Value) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}

// isEqual implements spec §5.2's equality rule: nil equals only nil, and
// two non-nil values of different dynamic types are never equal.
func isEqual(a, b Value) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	default:
		return false
	}
}

// stringify renders v the way `print` does (spec §5.2): nil prints as an
// empty string, numbers drop a trailing ".0" for integral values,
// everything else uses its natural textual form.
func stringify(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		text := strconv.FormatFloat(v, 'f', -1, 64)
		return text
	case string:
		return v
	case *Function:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// typeName gives the human-facing type label used in TypeMismatch messages.
func typeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Function:
		return "function"
	default:
		return "value"
	}
}
