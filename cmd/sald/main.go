// Command sald is the language's CLI entry point: run a script, compile it
// to the precompiled module format of §4.12, run an already-compiled
// module, or run a set of files one after another (`sald test`). The test
// subcommand runs each file's top-level script; since `@Test` is the
// identity decorator, decorated functions are not looked up or called
// separately.
// Grounded on the teacher's cmd/funxy/main.go subcommand dispatch over
// os.Args (no flag package, matching the rest of the pack's CLI idiom), but
// considerably thinner: no analyzer passes, no backend switch, no bundle
// embedding, since Sald has neither a static type checker nor a
// self-contained-binary build mode.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/compiler"
	"github.com/sald-lang/sald/internal/config"
	"github.com/sald-lang/sald/internal/gc"
	"github.com/sald-lang/sald/internal/module"
	"github.com/sald-lang/sald/internal/parser"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/vm"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "-c", "--compile":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		compileFile(os.Args[2], compileOutputPath(os.Args[2], os.Args[3:]))
	case "-r", "--run":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		runCompiled(os.Args[2])
	case "test":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		config.IsTestMode = true
		failed := false
		for _, path := range os.Args[2:] {
			fmt.Printf("\n=== %s ===\n", path)
			if !runSource(path) {
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	case "-h", "--help", "help":
		usage()
	default:
		if !runSource(os.Args[1]) {
			os.Exit(1)
		}
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: sald <script%s>\n", config.SourceFileExt)
	fmt.Fprintf(os.Stderr, "       sald -c <script%s> [-o out.saldc]\n", config.SourceFileExt)
	fmt.Fprintf(os.Stderr, "       sald -r <compiled.saldc>\n")
	fmt.Fprintf(os.Stderr, "       sald test <file%s> [file2%s...]\n", config.SourceFileExt, config.SourceFileExt)
}

// runSource compiles and executes path, reporting true on success.
func runSource(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	src, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sald: %s\n", err)
		return false
	}

	tmpl, err := compileSource(absPath, string(src))
	if err != nil {
		reportError(err)
		return false
	}

	machine := newVM(absPath)
	if _, err := machine.Run(tmpl); err != nil {
		reportError(err)
		machine.Async.Cancel()
		machine.Async.Wait()
		return false
	}
	machine.Async.Cancel()
	machine.Async.Wait()
	return true
}

func compileSource(file, src string) (*bytecode.FunctionTemplate, error) {
	p := parser.New(file, src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	c := compiler.New(file)
	tmpl := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return tmpl, nil
}

func compileFile(srcPath, outPath string) {
	absPath, err := filepath.Abs(srcPath)
	if err != nil {
		absPath = srcPath
	}
	src, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sald: %s\n", err)
		os.Exit(1)
	}
	tmpl, err := compileSource(absPath, string(src))
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sald: %s\n", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := bytecode.WriteProgram(f, tmpl); err != nil {
		fmt.Fprintf(os.Stderr, "sald: %s\n", err)
		os.Exit(1)
	}
}

func compileOutputPath(srcPath string, rest []string) string {
	for i, a := range rest {
		if a == "-o" && i+1 < len(rest) {
			return rest[i+1]
		}
	}
	return config.TrimSourceExt(srcPath) + ".saldc"
}

func runCompiled(path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sald: %s\n", err)
		os.Exit(1)
	}
	tmpl, err := bytecode.ReadProgram(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sald: %s\n", err)
		os.Exit(1)
	}
	absPath, _ := filepath.Abs(path)
	machine := newVM(absPath)
	if _, err := machine.Run(tmpl); err != nil {
		reportError(err)
		machine.Async.Cancel()
		machine.Async.Wait()
		os.Exit(1)
	}
	machine.Async.Cancel()
	machine.Async.Wait()
}

// newVM builds a VM rooted at file's directory as the import workspace
// root, applying any sald.yaml collector overrides found there.
func newVM(file string) *vm.VM {
	root := filepath.Dir(file)
	gcCfg := gc.DefaultConfig()
	loader := module.NewLoader(root)
	if wc, err := config.LoadWorkspaceConfig(root); err == nil {
		if wc.GCInitialThreshold > 0 {
			gcCfg.InitialThreshold = wc.GCInitialThreshold
		}
		if wc.GCGrowFactor > 0 {
			gcCfg.GrowFactor = wc.GCGrowFactor
		}
		loader.ModulesDir = wc.EffectiveModulesDir()
	}
	machine := vm.New(file, gc.New(gcCfg))
	machine.Modules = loader
	return machine
}

func reportError(err error) {
	if se, ok := err.(*source.SaldError); ok {
		fmt.Fprintln(os.Stderr, se.Format(isatty.IsTerminal(os.Stderr.Fd())))
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
