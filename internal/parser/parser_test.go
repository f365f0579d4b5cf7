package parser

import (
	"testing"

	"github.com/sald-lang/sald/internal/ast"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New("test.sald", src)
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return prog
}

func TestParse_LetAndArithmetic(t *testing.T) {
	prog := parseOK(t, `let x = 1 + 2 * 3;`)
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 stmt, got %d", len(prog.Stmts))
	}
	let, ok := prog.Stmts[0].(*ast.Let)
	if !ok {
		t.Fatalf("expected *ast.Let, got %T", prog.Stmts[0])
	}
	bin, ok := let.Init.(*ast.Binary)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level '+', got %#v", let.Init)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != "*" {
		t.Fatalf("expected '*' nested on the right for precedence, got %#v", bin.Right)
	}
}

func TestParse_FunctionAndCall(t *testing.T) {
	prog := parseOK(t, `
		fun add(a, b = 1) {
			return a + b;
		}
		let r = add(1, b: 2);
	`)
	if len(prog.Stmts) != 2 {
		t.Fatalf("expected 2 stmts, got %d", len(prog.Stmts))
	}
	fn, ok := prog.Stmts[0].(*ast.Function)
	if !ok {
		t.Fatalf("expected *ast.Function, got %T", prog.Stmts[0])
	}
	if len(fn.Def.Params) != 2 || fn.Def.Params[1].DefaultValue == nil {
		t.Fatalf("expected 2 params with a default on the second, got %#v", fn.Def.Params)
	}
	let := prog.Stmts[1].(*ast.Let)
	call, ok := let.Init.(*ast.Call)
	if !ok || len(call.Args) != 2 {
		t.Fatalf("expected call with 2 args, got %#v", let.Init)
	}
	if call.Args[1].Name != "b" {
		t.Fatalf("expected named arg 'b', got %q", call.Args[1].Name)
	}
}

func TestParse_ClassWithSuperAndInterface(t *testing.T) {
	prog := parseOK(t, `
		class Animal {
			speak() { return "..."; }
		}
		class Dog extends Animal implements Speaker {
			speak() { return super.speak(); }
		}
	`)
	cls, ok := prog.Stmts[1].(*ast.Class)
	if !ok {
		t.Fatalf("expected *ast.Class, got %T", prog.Stmts[1])
	}
	if cls.Def.Extends != "Animal" {
		t.Fatalf("expected extends Animal, got %q", cls.Def.Extends)
	}
	if len(cls.Def.Implements) != 1 || cls.Def.Implements[0] != "Speaker" {
		t.Fatalf("expected implements [Speaker], got %#v", cls.Def.Implements)
	}
}

func TestParse_Lambdas(t *testing.T) {
	prog := parseOK(t, `
		let f1 = x => x + 1;
		let f2 = (a, b) => a + b;
		let f3 = (a, b) -> { return a - b; };
	`)
	for i, name := range []string{"f1", "f2", "f3"} {
		let := prog.Stmts[i].(*ast.Let)
		if _, ok := let.Init.(*ast.Lambda); !ok {
			t.Fatalf("%s: expected *ast.Lambda, got %T", name, let.Init)
		}
	}
}

func TestParse_SwitchExpression(t *testing.T) {
	prog := parseOK(t, `
		let x = switch (n) {
			0 => "zero",
			1, 2 => "small",
			default => "big",
		};
	`)
	let := prog.Stmts[0].(*ast.Let)
	sw, ok := let.Init.(*ast.Switch)
	if !ok {
		t.Fatalf("expected *ast.Switch, got %T", let.Init)
	}
	if len(sw.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(sw.Arms))
	}
	if len(sw.Arms[1].Patterns) != 2 {
		t.Fatalf("expected 2 patterns on second arm, got %d", len(sw.Arms[1].Patterns))
	}
	if sw.Default == nil {
		t.Fatal("expected a default arm")
	}
}

func TestParse_OptionalChaining(t *testing.T) {
	prog := parseOK(t, `let x = a?.b?.(1)?.[0];`)
	let := prog.Stmts[0].(*ast.Let)
	idx, ok := let.Init.(*ast.Index)
	if !ok || !idx.IsOptional {
		t.Fatalf("expected optional index at top, got %#v", let.Init)
	}
}

func TestParse_TryCatch(t *testing.T) {
	prog := parseOK(t, `
		try {
			throw "boom";
		} catch (e) {
			let x = e;
		}
	`)
	tc, ok := prog.Stmts[0].(*ast.TryCatch)
	if !ok {
		t.Fatalf("expected *ast.TryCatch, got %T", prog.Stmts[0])
	}
	if tc.CatchVar != "e" {
		t.Fatalf("expected catch var 'e', got %q", tc.CatchVar)
	}
}

func TestParse_ForAndRange(t *testing.T) {
	prog := parseOK(t, `
		for i in 0..<10 {
			let y = i;
		}
	`)
	f, ok := prog.Stmts[0].(*ast.For)
	if !ok {
		t.Fatalf("expected *ast.For, got %T", prog.Stmts[0])
	}
	rng, ok := f.Iterable.(*ast.Range)
	if !ok || rng.Inclusive {
		t.Fatalf("expected exclusive range, got %#v", f.Iterable)
	}
}

func TestParse_DestructuringLet(t *testing.T) {
	prog := parseOK(t, `let [a, b, ...rest] = values;`)
	ld, ok := prog.Stmts[0].(*ast.LetDestructure)
	if !ok {
		t.Fatalf("expected *ast.LetDestructure, got %T", prog.Stmts[0])
	}
	if !ld.Pattern.IsArray || len(ld.Pattern.Names) != 2 || ld.Pattern.Rest != "rest" {
		t.Fatalf("unexpected pattern: %#v", ld.Pattern)
	}
}

func TestParse_InvalidAssignmentTarget(t *testing.T) {
	p := New("test.sald", `1 + 1 = 2;`)
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a syntax error for invalid assignment target")
	}
}

func TestParse_FormatString(t *testing.T) {
	prog := parseOK(t, `let s = $"hello {name}, you are {age} today";`)
	let := prog.Stmts[0].(*ast.Let)
	fs, ok := let.Init.(*ast.FormatString)
	if !ok {
		t.Fatalf("expected *ast.FormatString, got %T", let.Init)
	}
	if len(fs.Exprs) != 2 || len(fs.Parts) != 3 {
		t.Fatalf("expected 2 interpolations / 3 parts, got %d/%d", len(fs.Exprs), len(fs.Parts))
	}
}
