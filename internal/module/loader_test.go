package module_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/compiler"
	"github.com/sald-lang/sald/internal/gc"
	"github.com/sald-lang/sald/internal/module"
	"github.com/sald-lang/sald/internal/parser"
	"github.com/sald-lang/sald/internal/value"
	"github.com/sald-lang/sald/internal/vm"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func compileAndRun(t *testing.T, root, file, src string) (value.Value, error) {
	t.Helper()
	p := parser.New(file, src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %s", errs[0])
	}
	c := compiler.New(file)
	tmpl := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		t.Fatalf("compile error: %s", errs[0])
	}
	machine := vm.New(file, gc.New(gc.Config{}))
	machine.Modules = module.NewLoader(root)
	result, err := machine.Run(tmpl)
	machine.Async.Cancel()
	machine.Async.Wait()
	return result, err
}

func TestImportAsExposesNamespaceMembers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathutils.sald", `
		let _secret = 1;
		let PI = 3;
		fun square(n) {
			return n * n;
		}
	`)
	main := writeFile(t, dir, "main.sald", `
		import "mathutils" as math;
		return math.square(math.PI);
	`)
	src, _ := os.ReadFile(main)
	result, err := compileAndRun(t, dir, main, string(src))
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	n, ok := result.(value.Number)
	if !ok {
		t.Fatalf("expected Number, got %T", result)
	}
	if float64(n) != 9 {
		t.Errorf("got %v, want 9", float64(n))
	}
}

func TestImportMergesGlobals(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greeting.sald", `
		let greeting = "hi";
	`)
	main := writeFile(t, dir, "main.sald", `
		import "greeting";
		return greeting;
	`)
	src, _ := os.ReadFile(main)
	result, err := compileAndRun(t, dir, main, string(src))
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	s, ok := result.(*value.Str)
	if !ok {
		t.Fatalf("expected Str, got %T", result)
	}
	if s.S != "hi" {
		t.Errorf("got %q, want %q", s.S, "hi")
	}
}

func TestImportUnderscoreNamesStayPrivate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hidden.sald", `
		let _internal = 1;
		let visible = 2;
	`)
	main := writeFile(t, dir, "main.sald", `
		import "hidden" as h;
		return h._internal;
	`)
	src, _ := os.ReadFile(main)
	_, err := compileAndRun(t, dir, main, string(src))
	if err == nil {
		t.Fatalf("expected a privacy error accessing an underscore-prefixed import member")
	}
}

func TestModuleExecutesAtMostOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "once.sald", `
		let value = 1;
	`)
	main := writeFile(t, dir, "main.sald", `
		import "once" as a;
		import "once" as b;
		return a == b ? a.value + b.value : 0;
	`)
	src, _ := os.ReadFile(main)
	result, err := compileAndRun(t, dir, main, string(src))
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	n, ok := result.(value.Number)
	if !ok {
		t.Fatalf("expected Number, got %T", result)
	}
	if float64(n) != 2 {
		t.Errorf("got %v, want 2", float64(n))
	}
}

func TestPrecompiledModuleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := parser.New("lib.sald", `let answer = 42;`)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse error: %s", errs[0])
	}
	c := compiler.New("lib.sald")
	tmpl := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		t.Fatalf("compile error: %s", errs[0])
	}

	compiledPath := filepath.Join(dir, "lib.saldc")
	f, err := os.Create(compiledPath)
	if err != nil {
		t.Fatalf("creating %s: %v", compiledPath, err)
	}
	if err := bytecode.WriteProgram(f, tmpl); err != nil {
		t.Fatalf("WriteProgram: %v", err)
	}
	f.Close()

	main := writeFile(t, dir, "main.sald", `
		import "lib.saldc" as lib;
		return lib.answer;
	`)
	src, _ := os.ReadFile(main)
	result, err := compileAndRun(t, dir, main, string(src))
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	n, ok := result.(value.Number)
	if !ok {
		t.Fatalf("expected Number, got %T", result)
	}
	if float64(n) != 42 {
		t.Errorf("got %v, want 42", float64(n))
	}
}
