package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Truthy implements Sald's truthiness rule: everything is truthy except
// `null` and `false`.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Null:
		return false
	case nil:
		return false
	case Bool:
		return bool(t)
	default:
		return true
	}
}

// Equal implements §4.5's equality rule: by value for primitives and
// interned strings, by identity for containers/functions/classes.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case *Str:
		y, ok := b.(*Str)
		return ok && x.S == y.S
	case *Array:
		y, ok := b.(*Array)
		return ok && x == y
	case *Dictionary:
		y, ok := b.(*Dictionary)
		return ok && x == y
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x == y
	case *Class:
		y, ok := b.(*Class)
		return ok && x == y
	case *Closure:
		y, ok := b.(*Closure)
		return ok && x == y
	case *NativeFunction:
		y, ok := b.(*NativeFunction)
		return ok && x == y
	case *BoundMethod:
		y, ok := b.(*BoundMethod)
		return ok && x == y
	case *Namespace:
		y, ok := b.(*Namespace)
		return ok && x == y
	case *Enum:
		y, ok := b.(*Enum)
		return ok && x == y
	case *EnumVariant:
		y, ok := b.(*EnumVariant)
		return ok && *x == *y
	case *Future:
		y, ok := b.(*Future)
		return ok && x == y
	default:
		return a == b
	}
}

// Stringify renders v the way console.print and string concatenation do.
func Stringify(v Value) string {
	switch t := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(float64(t))
	case *Str:
		return t.S
	case *Array:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = quoteIfString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Dictionary:
		parts := make([]string, 0, len(t.Keys))
		for _, k := range t.Keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, quoteIfString(t.Vals[k])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Instance:
		return fmt.Sprintf("<%s instance>", t.Class.Name)
	case *Class:
		return fmt.Sprintf("<class %s>", t.Name)
	case *Closure:
		name := t.Template.Name
		if name == "" {
			name = "anonymous"
		}
		return fmt.Sprintf("<fun %s>", name)
	case *NativeFunction:
		return fmt.Sprintf("<native fun %s>", t.Name)
	case *BoundMethod:
		return fmt.Sprintf("<bound method %s>", t.Method.Template.Name)
	case *InstanceMethod:
		return fmt.Sprintf("<bound method %s>", t.Name)
	case *Namespace:
		return fmt.Sprintf("<namespace %s>", t.Name)
	case *Enum:
		return fmt.Sprintf("<enum %s>", t.Name)
	case *EnumVariant:
		return fmt.Sprintf("%s.%s", t.EnumName, t.Name)
	case *Future:
		return "<future>"
	case *Range:
		op := ".."
		if !t.Inclusive {
			op = "..<"
		}
		return fmt.Sprintf("%d%s%d", t.Start, op, t.End)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quoteIfString(v Value) string {
	if s, ok := v.(*Str); ok {
		return strconv.Quote(s.S)
	}
	return Stringify(v)
}

// formatNumber matches the teacher's convention of printing integral
// floats without a trailing ".0".
func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName returns the language-facing type name used by error messages
// and the `typeOf`-style native.
func TypeName(v Value) string {
	if v == nil {
		return "Null"
	}
	return v.Type()
}
