// Package config carries Sald's ambient, non-language-semantic constants
// and the workspace manifest format (§4.11 "workspace-root / module-stack
// resolution, manifest handling"). Grounded on the teacher's
// internal/ext/config.go yaml.v3-backed Config/Dep shape, retargeted from
// Funxy's Go-interop dependency manifest to Sald's package manifest.
package config

// Version is the current Sald language version.
var Version = "0.1.0"

// SourceFileExt is Sald's single recognized source extension. Unlike the
// teacher's multi-extension Funxy convention (which grew extensions over
// several renames), Sald has had one name since its first commit.
const SourceFileExt = ".sald"

// TrimSourceExt removes SourceFileExt from name if present, returning the
// original string otherwise.
func TrimSourceExt(name string) string {
	if len(name) >= len(SourceFileExt) && name[len(name)-len(SourceFileExt):] == SourceFileExt {
		return name[:len(name)-len(SourceFileExt)]
	}
	return name
}

// HasSourceExt reports whether path ends with SourceFileExt.
func HasSourceExt(path string) bool {
	return len(path) >= len(SourceFileExt) && path[len(path)-len(SourceFileExt):] == SourceFileExt
}

// ManifestFileName is the package manifest internal/module looks for at a
// resolved package directory's root (§4.11 "manifest (salad.json)
// handling").
const ManifestFileName = "salad.json"

// ModulesDirName is the workspace-local dependency directory import
// resolution probes as a last resort for a bare package name.
const ModulesDirName = "sald_modules"

// IsTestMode indicates the current process is running `sald test`, set once
// at startup by cmd/sald when dispatching the test subcommand.
var IsTestMode = false
