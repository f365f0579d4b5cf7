package vm

import (
	"strings"
	"testing"

	"github.com/sald-lang/sald/internal/compiler"
	"github.com/sald-lang/sald/internal/gc"
	"github.com/sald-lang/sald/internal/parser"
	"github.com/sald-lang/sald/internal/value"
)

func TestTryCatchCatchesExplicitThrow(t *testing.T) {
	v := run(t, `
		try {
			throw "boom";
		} catch (e) {
			return e;
		}
	`)
	str(t, v, "boom")
}

// TestTryCatchUnwindsNestedFunctionCalls exercises §4.8's unwind path across
// several frames: the throw happens two calls deep, and the only active try
// is in the outermost script frame.
func TestTryCatchUnwindsNestedFunctionCalls(t *testing.T) {
	v := run(t, `
		fun explode() {
			throw "deep";
		}
		fun middle() {
			explode();
			return "unreachable";
		}
		try {
			middle();
			return "unreachable too";
		} catch (e) {
			return e;
		}
	`)
	str(t, v, "deep")
}

// TestTryCatchCatchesUndefinedGlobal is a regression test: OP_GET_GLOBAL
// used to return its NameError directly instead of routing it through
// vm.handleThrow, so it could never be caught.
func TestTryCatchCatchesUndefinedGlobal(t *testing.T) {
	v := run(t, `
		try {
			return missingGlobal;
		} catch (e) {
			return e;
		}
	`)
	s, ok := v.(*value.Str)
	if !ok {
		t.Fatalf("expected Str, got %T (%v)", v, v)
	}
	if !strings.Contains(s.S, "NameError") || !strings.Contains(s.S, "missingGlobal") {
		t.Errorf("got %q, want it to mention NameError and missingGlobal", s.S)
	}
}

// TestTryCatchCatchesIterationError is a regression test for the same
// missing-handleThrow bug in OP_ITER_INIT.
func TestTryCatchCatchesIterationError(t *testing.T) {
	v := run(t, `
		try {
			for x in 5 {
			}
			return "unreachable";
		} catch (e) {
			return "caught";
		}
	`)
	str(t, v, "caught")
}

// TestTryCatchCatchesAwaitRejection is a regression test for OP_AWAIT: a
// rejected Future's error used to escape straight out of callAndRun instead
// of being routed through vm.handleThrow, so `try { await rejecting(); }
// catch (e) {}` never reached the catch body (spec.md §4.10 "On Err(msg),
// synthesize a Throw"). Injects a pre-rejected Future as a global since
// nothing in the seeded native library rejects one directly.
func TestTryCatchCatchesAwaitRejection(t *testing.T) {
	src := `
		try {
			await rejected;
			return "unreachable";
		} catch (e) {
			return e;
		}
	`
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
	fut := value.NewFuture()
	fut.Reject("boom")
	machine.DefineGlobal("rejected", fut)

	result, err := machine.Run(tmpl)
	machine.Async.Cancel()
	machine.Async.Wait()
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	s, ok := result.(*value.Str)
	if !ok {
		t.Fatalf("expected Str, got %T (%v)", result, result)
	}
	if !strings.Contains(s.S, "boom") {
		t.Errorf("got %q, want it to mention boom", s.S)
	}
}

func TestUncaughtThrowPropagatesAsRuntimeError(t *testing.T) {
	err := runErr(t, `throw "unhandled";`)
	if err.Error() != "unhandled" {
		t.Errorf("got %q, want %q", err.Error(), "unhandled")
	}
}
