package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

// findConfigFile finds the config file to use.
// Priority: explicit path > embedm.yaml > embedm.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("embedm.yaml"); err == nil {
		return "embedm.yaml"
	}
	if _, err := os.Stat("embedm.yml"); err == nil {
		return "embedm.yml"
	}
	return ""
}

// configExistsIn checks if an embedm config file exists in the directory.
func configExistsIn(dir string) bool {
	for _, name := range []string{"embedm.yaml", "embedm.yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for an embedm config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"limits.max_file_size":  int64(DefaultMaxFileSize),
		"limits.max_recursion":  DefaultMaxRecursion,
		"limits.max_memory":     int64(DefaultMaxMemory),
		"limits.max_embed_size": int64(DefaultMaxEmbedSize),
		"pass_order":            DefaultPassOrder,
		"overwrite":             false,
		"verbose":               false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file.
	// With no explicit file, search upward from CWD so nested documents
	// pick up the project-level embedm.yaml.
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			if root := findProjectRootUpward(cwd); root != "" {
				for _, name := range []string{"embedm.yaml", "embedm.yml"} {
					candidate := filepath.Join(root, name)
					if _, err := os.Stat(candidate); err == nil {
						cfgFile = candidate
						break
					}
				}
			}
		}
	}
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (EMBEDM_ prefix)
	// Transform: EMBEDM_OUTPUT_DIR -> output_dir
	if err := k.Load(env.Provider("EMBEDM_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "EMBEDM_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// Limit flags live under the limits section in the config file
			switch key {
			case "max_file_size", "max_recursion", "max_memory", "max_embed_size":
				return "limits." + key, posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ApplyDefaults()

	// 6. Resolve sandbox roots relative to the config file's directory,
	// so allowed_paths entries in embedm.yaml mean what they say regardless
	// of where the tool is invoked from. Wildcard patterns stay as written.
	baseDir := ""
	if configFileUsed != "" {
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}
	for i, p := range cfg.AllowedPaths {
		if p == "" || filepath.IsAbs(p) || strings.ContainsAny(p, "*?[") {
			continue
		}
		if baseDir != "" {
			cfg.AllowedPaths[i] = filepath.Join(baseDir, p)
		} else if abs, err := filepath.Abs(p); err == nil {
			cfg.AllowedPaths[i] = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}
