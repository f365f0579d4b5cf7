// Workspace-level configuration: an optional `sald.yaml` at the workspace
// root tuning the collector and the modules directory. Grounded on the teacher's
// internal/ext/config.go yaml.v3-backed Config, narrowed from Funxy's
// Go-interop dependency list to Sald's much smaller ambient knob set.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WorkspaceFileName is the optional workspace-root settings file.
const WorkspaceFileName = "sald.yaml"

// WorkspaceConfig is the shape of sald.yaml. Every field is optional; a
// missing file or a zero-value field means "use the runtime's built-in
// default" (internal/gc.DefaultConfig, ModulesDirName). There are no
// settings for the async runtime.
type WorkspaceConfig struct {
	// GCInitialThreshold overrides gc.Config.InitialThreshold.
	GCInitialThreshold int `yaml:"gc_initial_threshold,omitempty"`
	// GCGrowFactor overrides gc.Config.GrowFactor.
	GCGrowFactor float64 `yaml:"gc_grow_factor,omitempty"`
	// ModulesDir overrides ModulesDirName for this workspace.
	ModulesDir string `yaml:"modules_dir,omitempty"`
}

// LoadWorkspaceConfig reads sald.yaml from workspaceRoot. A missing file is
// not an error — it returns the zero WorkspaceConfig, letting callers fall
// back to defaults.
func LoadWorkspaceConfig(workspaceRoot string) (WorkspaceConfig, error) {
	var cfg WorkspaceConfig
	data, err := os.ReadFile(filepath.Join(workspaceRoot, WorkspaceFileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// EffectiveModulesDir returns cfg.ModulesDir if set, else ModulesDirName.
func (cfg WorkspaceConfig) EffectiveModulesDir() string {
	if cfg.ModulesDir != "" {
		return cfg.ModulesDir
	}
	return ModulesDirName
}
