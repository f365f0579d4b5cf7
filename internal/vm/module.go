// Import execution (§4.11): resolves and runs a module body in a fresh
// child VM, then either merges its published globals into the importing
// VM's own globals (plain `import`) or returns them as a Namespace value
// (`import ... as`). Grounded on the teacher's module-scope-as-Namespace
// convention; retargeted to internal/vm.Modules rather than funxy's
// PersistentMap-backed module cache since Sald's cache lives in
// internal/module to avoid an import cycle.
package vm

import (
	"path/filepath"

	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/config"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// doImport resolves path through vm.Modules and runs it exactly once
// (memoized by internal/module). merge selects plain `import "x"` (true:
// members copied into vm.globals, caller discards the pushed Null) from
// `import "x" as alias` (false: the Namespace itself is pushed for the
// compiler's defineVariable to bind).
func (vm *VM) doImport(path string, merge bool) (value.Value, error) {
	if vm.Modules == nil {
		return nil, vm.runtimeErr(source.ImportError, "no module loader configured")
	}
	ns, err := vm.Modules.Load(path, vm.File, func(resolvedPath string, tmpl *bytecode.FunctionTemplate) (value.Value, error) {
		return vm.runModule(resolvedPath, tmpl)
	})
	if err != nil {
		return nil, err
	}
	if !merge {
		return ns, nil
	}
	namespace, ok := ns.(*value.Namespace)
	if !ok {
		return nil, vm.runtimeErr(source.ImportError, "module %q did not produce a namespace", path)
	}
	for name, v := range namespace.Members {
		vm.globals[name] = v
	}
	return value.Null{}, nil
}

// runModule executes tmpl in a fresh child VM rooted at resolvedPath (so
// the module's own relative imports resolve against its own directory, not
// the importer's), sharing this VM's collector and module loader, then
// collects every non-underscore-prefixed global the module body defined
// into a Namespace (§4.3 "Private declarations are those prefixed by _"
// applied at the module-export boundary too). The FunctionTemplate's own
// Name is always "<script>" (every compiled program's top-level template
// shares that name, §4.3), so the Namespace takes its name from
// resolvedPath's file stem instead.
func (vm *VM) runModule(resolvedPath string, tmpl *bytecode.FunctionTemplate) (value.Value, error) {
	child := New(resolvedPath, vm.GC)
	child.Modules = vm.Modules
	child.Stdout = vm.Stdout

	seeded := make(map[string]bool, len(child.globals))
	for name := range child.globals {
		seeded[name] = true
	}

	if _, err := child.Run(tmpl); err != nil {
		return nil, err
	}

	moduleName := config.TrimSourceExt(filepath.Base(resolvedPath))
	ns := value.NewNamespace(moduleName)
	for name, v := range child.globals {
		if seeded[name] || (len(name) > 0 && name[0] == '_') {
			continue
		}
		ns.Members[name] = v
	}
	return ns, nil
}
