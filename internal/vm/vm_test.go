package vm

import (
	"testing"

	"github.com/sald-lang/sald/internal/compiler"
	"github.com/sald-lang/sald/internal/gc"
	"github.com/sald-lang/sald/internal/parser"
	"github.com/sald-lang/sald/internal/value"
)

// run compiles and executes src (which must end in a `return` statement) in
// a fresh VM, failing the test on any parse, compile, or runtime error.
// Grounded on the teacher's internal/vm/vm_test.go parse-compile-run helper
// chain.
func run(t *testing.T, src string) value.Value {
	t.Helper()
	p := parser.New("test.sald", src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %s", errs[0])
	}
	c := compiler.New("test.sald")
	tmpl := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		t.Fatalf("compile error: %s", errs[0])
	}
	machine := New("test.sald", gc.New(gc.Config{}))
	result, err := machine.Run(tmpl)
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	machine.Async.Cancel()
	machine.Async.Wait()
	return result
}

// runErr is like run but expects a runtime error and returns it.
func runErr(t *testing.T, src string) error {
	t.Helper()
	p := parser.New("test.sald", src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %s", errs[0])
	}
	c := compiler.New("test.sald")
	tmpl := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		t.Fatalf("compile error: %s", errs[0])
	}
	machine := New("test.sald", gc.New(gc.Config{}))
	_, err := machine.Run(tmpl)
	machine.Async.Cancel()
	machine.Async.Wait()
	if err == nil {
		t.Fatalf("expected a runtime error, got none")
	}
	return err
}

func number(t *testing.T, v value.Value, want float64) {
	t.Helper()
	n, ok := v.(value.Number)
	if !ok {
		t.Fatalf("expected Number, got %T (%v)", v, v)
	}
	if float64(n) != want {
		t.Errorf("got %v, want %v", float64(n), want)
	}
}

func str(t *testing.T, v value.Value, want string) {
	t.Helper()
	s, ok := v.(*value.Str)
	if !ok {
		t.Fatalf("expected Str, got %T (%v)", v, v)
	}
	if s.S != want {
		t.Errorf("got %q, want %q", s.S, want)
	}
}

func boolean(t *testing.T, v value.Value, want bool) {
	t.Helper()
	b, ok := v.(value.Bool)
	if !ok {
		t.Fatalf("expected Bool, got %T (%v)", v, v)
	}
	if bool(b) != want {
		t.Errorf("got %v, want %v", bool(b), want)
	}
}

func isNull(t *testing.T, v value.Value) {
	t.Helper()
	if _, ok := v.(value.Null); !ok {
		t.Fatalf("expected Null, got %T (%v)", v, v)
	}
}

func array(t *testing.T, v value.Value) *value.Array {
	t.Helper()
	a, ok := v.(*value.Array)
	if !ok {
		t.Fatalf("expected Array, got %T (%v)", v, v)
	}
	return a
}
