// Package module implements the import resolution and at-most-once module
// cache of §4.11. It supplies the vm.Modules interface without internal/vm
// importing this package directly (that import would cycle back, since
// loading a module means re-entering the VM to run its body).
//
// Grounded on the teacher's internal/modules-style directory-probing
// convention (the importing file's own directory, then the workspace root,
// then a `sald_modules/<path>` dependency directory, optionally
// carrying a `salad.json` manifest naming the package's entry file),
// adapted from Funxy's multi-extension package detection
// (`detectPackageExtension`/`hasSourceFiles`) to Sald's single `.sald`
// extension and JSON manifest.
package module

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sald-lang/sald/internal/bytecode"
	"github.com/sald-lang/sald/internal/compiler"
	"github.com/sald-lang/sald/internal/config"
	"github.com/sald-lang/sald/internal/parser"
	"github.com/sald-lang/sald/internal/source"
	"github.com/sald-lang/sald/internal/value"
)

// manifest is the shape of salad.json at a resolved package directory's
// root (§4.11 "manifest handling").
type manifest struct {
	Main string `json:"main"`
}

// cacheEntry records one resolved path's already-executed module result, so
// a second import of the same path (directly or via a different alias)
// reuses the first run's namespace instead of re-executing side effects
// (§4.11 "at-most-once execution").
type cacheEntry struct {
	value value.Value
	err   error
}

// Loader resolves import paths against the importing file's directory and a
// workspace root, compiling (or deserializing) and running each distinct
// resolved path exactly once.
type Loader struct {
	WorkspaceRoot string
	ModulesDir    string // defaults to config.ModulesDirName when ""

	mu    sync.Mutex
	cache map[string]*cacheEntry

	group singleflight.Group
}

// NewLoader creates a Loader rooted at workspaceRoot.
func NewLoader(workspaceRoot string) *Loader {
	return &Loader{WorkspaceRoot: workspaceRoot, cache: make(map[string]*cacheEntry)}
}

func (l *Loader) modulesDir() string {
	if l.ModulesDir != "" {
		return l.ModulesDir
	}
	return config.ModulesDirName
}

// Load implements vm.Modules. It resolves path relative to fromFile (the
// importing script's own path) and the workspace root, compiles or
// deserializes the resolved file exactly once across concurrent callers
// (golang.org/x/sync/singleflight), and hands the compiled template to run,
// which executes it in a fresh child VM and returns the namespace of its
// published globals.
func (l *Loader) Load(path, fromFile string, run func(resolvedPath string, tmpl *bytecode.FunctionTemplate) (value.Value, error)) (value.Value, error) {
	resolved, err := l.resolve(path, fromFile)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	if entry, ok := l.cache[resolved]; ok {
		l.mu.Unlock()
		return entry.value, entry.err
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do(resolved, func() (interface{}, error) {
		// Re-check under the singleflight key: another caller may have
		// completed the load while this one waited to enter Do.
		l.mu.Lock()
		if entry, ok := l.cache[resolved]; ok {
			l.mu.Unlock()
			return entry.value, entry.err
		}
		l.mu.Unlock()

		tmpl, err := l.load(resolved)
		if err != nil {
			l.store(resolved, nil, err)
			return nil, err
		}
		result, err := run(resolved, tmpl)
		l.store(resolved, result, err)
		return result, err
	})
	if err != nil {
		return nil, err
	}
	return v.(value.Value), nil
}

func (l *Loader) store(resolved string, v value.Value, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[resolved] = &cacheEntry{value: v, err: err}
}

// load reads resolved from disk and produces its top-level FunctionTemplate,
// compiling `.sald` source or deserializing a precompiled `.saldc` module
// (§4.12).
func (l *Loader) load(resolved string) (*bytecode.FunctionTemplate, error) {
	if filepath.Ext(resolved) == ".saldc" {
		f, err := os.Open(resolved)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return bytecode.ReadProgram(f)
	}

	src, err := os.ReadFile(resolved)
	if err != nil {
		return nil, source.New(source.ImportError, resolved, source.Span{}, "cannot read module: %v", err)
	}
	p := parser.New(resolved, string(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	c := compiler.New(resolved)
	tmpl := c.Compile(prog)
	if errs := c.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return tmpl, nil
}

// resolve turns an import path into an absolute file path, trying in order
// (§4.11): relative to the importing file's directory, relative to the
// workspace root, then as a dependency package name under
// <workspaceRoot>/<modulesDir>/<path> — first its manifest's "main" entry,
// then "<path>/<path>.sald", then "<path>/main.sald".
func (l *Loader) resolve(path, fromFile string) (string, error) {
	if filepath.IsAbs(path) {
		if cand := l.withExt(path); fileExists(cand) {
			return filepath.Clean(cand), nil
		}
	}

	var candidates []string
	if fromFile != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(fromFile), path))
	}
	if l.WorkspaceRoot != "" {
		candidates = append(candidates, filepath.Join(l.WorkspaceRoot, path))
	}
	for _, c := range candidates {
		if cand := l.withExt(c); fileExists(cand) {
			return filepath.Clean(cand), nil
		}
	}

	if l.WorkspaceRoot != "" {
		pkgDir := filepath.Join(l.WorkspaceRoot, l.modulesDir(), path)
		if resolved, ok := l.resolvePackageDir(pkgDir, path); ok {
			return resolved, nil
		}
	}

	return "", source.New(source.ImportError, fromFile, source.Span{}, "cannot resolve module %q", path)
}

// resolvePackageDir probes a dependency directory for its manifest, then
// falls back to the "<pkg>/<pkg>.sald" and "<pkg>/main.sald" conventions.
func (l *Loader) resolvePackageDir(pkgDir, name string) (string, bool) {
	manifestPath := filepath.Join(pkgDir, config.ManifestFileName)
	if data, err := os.ReadFile(manifestPath); err == nil {
		var m manifest
		if err := json.Unmarshal(data, &m); err == nil && m.Main != "" {
			cand := filepath.Join(pkgDir, m.Main)
			if fileExists(cand) {
				return filepath.Clean(cand), true
			}
		}
	}
	base := filepath.Base(name)
	for _, candName := range []string{base + config.SourceFileExt, "main" + config.SourceFileExt} {
		cand := filepath.Join(pkgDir, candName)
		if fileExists(cand) {
			return filepath.Clean(cand), true
		}
	}
	return "", false
}

// withExt appends config.SourceFileExt to path if it doesn't already carry
// a recognized module extension.
func (l *Loader) withExt(path string) string {
	if config.HasSourceExt(path) || filepath.Ext(path) == ".saldc" {
		return path
	}
	return path + config.SourceFileExt
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
