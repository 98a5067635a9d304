package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the optional metorex.yaml project file (SPEC_FULL.md §3
// "Ambient Stack"): recognized source extensions, the Float equality
// epsilon, the evaluator's max call depth, and require_relative search
// roots, adapted from the teacher's funxy.yaml loader
// (internal/ext/config.go's LoadConfig/ParseConfig/FindConfig discipline).
// All four fields are parsed, but the CLI applies only MaxCallDepth:
// require_relative resolves against the requiring script's directory with
// the package-level SourceFileExtensions, and ignores RequireRoots,
// SourceExtensions and FloatEpsilon.
type ProjectConfig struct {
	SourceExtensions []string `yaml:"source_extensions,omitempty"`
	FloatEpsilon     float64  `yaml:"float_epsilon,omitempty"`
	MaxCallDepth      int     `yaml:"max_call_depth,omitempty"`
	RequireRoots     []string `yaml:"require_roots,omitempty"`
}

// LoadProjectConfig reads and parses a metorex.yaml file.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseProjectConfig(data, path)
}

// ParseProjectConfig parses metorex.yaml content from bytes. path is used
// only for error messages.
func ParseProjectConfig(data []byte, path string) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *ProjectConfig) setDefaults() {
	if len(c.SourceExtensions) == 0 {
		c.SourceExtensions = append([]string{}, SourceFileExtensions...)
	}
	if c.FloatEpsilon == 0 {
		c.FloatEpsilon = FloatEqualityEpsilon
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = DefaultMaxCallDepth
	}
}

// FindProjectConfig searches for metorex.yaml starting from dir and
// walking up to parent directories, the way the teacher's FindConfig locates
// funxy.yaml. Returns "" with a nil error when no config file exists
// anywhere up the tree — metorex.yaml is optional.
func FindProjectConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{"metorex.yaml", "metorex.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
