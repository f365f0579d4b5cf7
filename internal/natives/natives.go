// Package natives is the native-method contract of §6.2: three callable
// shapes (static, instance, callable-instance) plus a small demo library
// (console, Timer, @Test) enough to run spec.md's §8 worked examples without
// pretending to implement a full external standard library — and the
// built-in classes GetProperty dispatches to for String/Array/Dictionary/
// Number/Boolean/Null (§4.5 "same via their built-in classes").
//
// Grounded on the teacher's internal/evaluator/builtins_*.go idiom: a
// package-level registration step building name -> wrapped-Go-function
// tables, called once from VM setup, adapted from Funxy's trait/extension
// method tables to Sald's three native-callable kinds.
package natives

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sald-lang/sald/internal/async"
	"github.com/sald-lang/sald/internal/gc"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// Registry owns the built-in classes GetProperty dispatches to for
// non-Instance receivers, plus the globals a fresh VM should seed.
type Registry struct {
	ArrayClass      *value.Class
	StringClass     *value.Class
	DictionaryClass *value.Class
	NumberClass     *value.Class
	BooleanClass    *value.Class
	NullClass       *value.Class

	collector *gc.Collector
}

// NewRegistry builds every built-in class and wires gc tracking for newly
// allocated containers (the arrays returned by map, filter and keys).
func NewRegistry(collector *gc.Collector) *Registry {
	r := &Registry{collector: collector}
	r.ArrayClass = buildArrayClass(collector)
	r.StringClass = buildStringClass()
	r.DictionaryClass = buildDictionaryClass(collector)
	r.NumberClass = value.NewClass("Number")
	r.BooleanClass = value.NewClass("Boolean")
	r.NullClass = value.NewClass("Null")
	return r
}

// ClassFor returns the built-in class GetProperty should consult for a
// non-Instance, non-Namespace, non-Enum receiver, or nil if v has no
// built-in class (a bare function value, say).
func (r *Registry) ClassFor(v value.Value) *value.Class {
	switch v.(type) {
	case *value.Str:
		return r.StringClass
	case *value.Array:
		return r.ArrayClass
	case *value.Dictionary:
		return r.DictionaryClass
	case value.Number:
		return r.NumberClass
	case value.Bool:
		return r.BooleanClass
	case value.Null, nil:
		return r.NullClass
	default:
		return nil
	}
}

// ---- Array ----

func buildArrayClass(collector *gc.Collector) *value.Class {
	c := value.NewClass("Array")
	c.NativeMethods["length"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		return value.Number(len(a.Elems)), nil
	}
	c.NativeMethods["push"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		for _, v := range args {
			value.Retain(v)
		}
		a.Elems = append(a.Elems, args...)
		return recv, nil
	}
	c.NativeMethods["pop"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		if len(a.Elems) == 0 {
			return value.Null{}, nil
		}
		last := a.Elems[len(a.Elems)-1]
		a.Elems = a.Elems[:len(a.Elems)-1]
		return last, nil
	}
	c.NativeMethods["contains"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		if len(args) != 1 {
			return nil, argErr("Array.contains", 1, len(args))
		}
		for _, e := range a.Elems {
			if value.Equal(e, args[0]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}
	c.NativeMethods["join"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		a := recv.(*value.Array)
		sep := ","
		if len(args) == 1 {
			s, ok := args[0].(*value.Str)
			if !ok {
				return nil, source.New(source.TypeError, "", source.Span{}, "Array.join separator must be a String")
			}
			sep = s.S
		}
		out := ""
		for i, e := range a.Elems {
			if i > 0 {
				out += sep
			}
			out += value.Stringify(e)
		}
		return value.NewStr(out), nil
	}
	c.NativeCallable = map[string]value.CallableInstanceNativeFunc{
		"map": func(recv value.Value, args []value.Value, call value.VMCallback) (value.Value, error) {
			a := recv.(*value.Array)
			if len(args) != 1 {
				return nil, argErr("Array.map", 1, len(args))
			}
			out := make([]value.Value, len(a.Elems))
			for i, e := range a.Elems {
				r, err := call(args[0], []value.Value{e})
				if err != nil {
					return nil, err
				}
				out[i] = r
			}
			return value.NewArray(collector, out), nil
		},
		"filter": func(recv value.Value, args []value.Value, call value.VMCallback) (value.Value, error) {
			a := recv.(*value.Array)
			if len(args) != 1 {
				return nil, argErr("Array.filter", 1, len(args))
			}
			var out []value.Value
			for _, e := range a.Elems {
				r, err := call(args[0], []value.Value{e})
				if err != nil {
					return nil, err
				}
				if value.Truthy(r) {
					out = append(out, e)
				}
			}
			return value.NewArray(collector, out), nil
		},
		"forEach": func(recv value.Value, args []value.Value, call value.VMCallback) (value.Value, error) {
			a := recv.(*value.Array)
			if len(args) != 1 {
				return nil, argErr("Array.forEach", 1, len(args))
			}
			for _, e := range a.Elems {
				if _, err := call(args[0], []value.Value{e}); err != nil {
					return nil, err
				}
			}
			return value.Null{}, nil
		},
	}
	return c
}

// ---- String ----

func buildStringClass() *value.Class {
	c := value.NewClass("String")
	c.NativeMethods["length"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(*value.Str)
		return value.Number(len([]rune(s.S))), nil
	}
	c.NativeMethods["upper"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(*value.Str)
		return value.NewStr(toUpper(s.S)), nil
	}
	c.NativeMethods["lower"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(*value.Str)
		return value.NewStr(toLower(s.S)), nil
	}
	c.NativeMethods["contains"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		s := recv.(*value.Str)
		if len(args) != 1 {
			return nil, argErr("String.contains", 1, len(args))
		}
		sub, ok := args[0].(*value.Str)
		if !ok {
			return nil, source.New(source.TypeError, "", source.Span{}, "String.contains expects a String")
		}
		return value.Bool(indexOf(s.S, sub.S) >= 0), nil
	}
	return c
}

// ---- Dictionary ----

func buildDictionaryClass(collector *gc.Collector) *value.Class {
	c := value.NewClass("Dictionary")
	c.NativeMethods["length"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		d := recv.(*value.Dictionary)
		return value.Number(len(d.Keys)), nil
	}
	c.NativeMethods["has"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		d := recv.(*value.Dictionary)
		if len(args) != 1 {
			return nil, argErr("Dictionary.has", 1, len(args))
		}
		key, ok := args[0].(*value.Str)
		if !ok {
			return value.Bool(false), nil
		}
		_, exists := d.Get(key.S)
		return value.Bool(exists), nil
	}
	c.NativeMethods["keys"] = func(recv value.Value, args []value.Value) (value.Value, error) {
		d := recv.(*value.Dictionary)
		out := make([]value.Value, len(d.Keys))
		for i, k := range d.Keys {
			out[i] = value.NewStr(k)
		}
		return value.NewArray(collector, out), nil
	}
	return c
}

func argErr(name string, want, got int) error {
	return source.New(source.ArgumentError, "", source.Span{}, "%s expects %d argument(s), got %d", name, want, got)
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func indexOf(s, sub string) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// SeedGlobals installs console/Timer/@Test into a fresh VM's global scope
// (§6.2 "registers a console namespace ... a Timer namespace ... the @Test
// decorator as the identity"). Timer.sleep is spawned through rt so a
// cancelled runtime unblocks any pending await instead of leaking the
// goroutine past program teardown.
func SeedGlobals(define func(name string, v value.Value), stdout func(string), rt *async.Runtime) {
	consoleNs := value.NewNamespace("console")
	consoleNs.Members["print"] = &value.NativeFunction{Name: "print", Fn: func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			stdout(value.Stringify(a))
		}
		return value.Null{}, nil
	}}
	consoleNs.Members["println"] = &value.NativeFunction{Name: "println", Fn: func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			stdout(value.Stringify(a))
		}
		stdout("\n")
		return value.Null{}, nil
	}}
	define("console", consoleNs)

	timerNs := value.NewNamespace("Timer")
	timerNs.Members["sleep"] = &value.NativeFunction{Name: "sleep", Fn: func(args []value.Value) (value.Value, error) {
		var ms float64
		if len(args) == 1 {
			if n, ok := args[0].(value.Number); ok {
				ms = float64(n)
			}
		}
		f := value.NewFuture()
		rt.SpawnFuture(f, func(ctx context.Context) (value.Value, string) {
			timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
			defer timer.Stop()
			select {
			case <-timer.C:
				return value.Null{}, ""
			case <-ctx.Done():
				return nil, "cancelled"
			}
		})
		return f, nil
	}}
	define("Timer", timerNs)

	define("Test", &value.NativeFunction{Name: "Test", Fn: func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, argErr("Test", 1, len(args))
		}
		return args[0], nil
	}})

	define("print", &value.NativeFunction{Name: "print", Fn: func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			stdout(value.Stringify(a))
		}
		stdout("\n")
		return value.Null{}, nil
	}})

	define("typeOf", &value.NativeFunction{Name: "typeOf", Fn: func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, argErr("typeOf", 1, len(args))
		}
		return value.NewStr(value.TypeName(args[0])), nil
	}})

	define("uuid", &value.NativeFunction{Name: "uuid", Fn: func(args []value.Value) (value.Value, error) {
		return value.NewStr(uuid.NewString()), nil
	}})
}
