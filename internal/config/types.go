// Package config provides configuration types and loading for embedm.
// Configuration layers, lowest to highest precedence: built-in defaults,
// embedm.yaml, EMBEDM_* environment variables, CLI flags.
package config

import "fmt"

// Built-in limit defaults.
const (
	DefaultMaxFileSize  = 1 << 20   // 1 MB
	DefaultMaxRecursion = 8         //
	DefaultMaxMemory    = 100 << 20 // 100 MB
	DefaultMaxEmbedSize = 512 << 10 // 512 KB
)

// DefaultPassOrder is the directive-type order for compilation passes.
// Content producers come first; toc runs last so every heading produced
// by an earlier pass is visible when it scans the document.
var DefaultPassOrder = []string{
	"comment",
	"file",
	"table",
	"query-path",
	"synopsis",
	"recall",
	"toc",
}

// Limits bounds file loading and embedding.
type Limits struct {
	// MaxFileSize is the largest file the cache will load, in bytes.
	MaxFileSize int64 `koanf:"max_file_size"`
	// MaxRecursion bounds embed nesting depth.
	MaxRecursion int `koanf:"max_recursion"`
	// MaxMemory is the file cache's total byte budget.
	MaxMemory int64 `koanf:"max_memory"`
	// MaxEmbedSize caps a single resolved embed block; 0 disables.
	MaxEmbedSize int64 `koanf:"max_embed_size"`
}

// Config is the full embedm configuration.
type Config struct {
	Limits Limits `koanf:"limits"`

	// PassOrder lists directive types in compilation pass order.
	PassOrder []string `koanf:"pass_order"`

	// AllowedPaths are the sandbox roots (or wildcard patterns) files
	// may be read from and written to. Empty means the directory of the
	// input file.
	AllowedPaths []string `koanf:"allowed_paths"`

	// OutputDir receives compiled files; empty writes to stdout.
	OutputDir string `koanf:"output_dir"`

	// Overwrite replaces existing output files instead of writing
	// name.N.ext alongside them.
	Overwrite bool `koanf:"overwrite"`

	Verbose bool `koanf:"verbose"`

	// Capabilities holds per-capability settings, e.g. the file
	// capability's region marker templates.
	Capabilities map[string]map[string]string `koanf:"capabilities"`
}

// ApplyDefaults fills zero values with built-in defaults.
func (c *Config) ApplyDefaults() {
	if c.Limits.MaxFileSize == 0 {
		c.Limits.MaxFileSize = DefaultMaxFileSize
	}
	if c.Limits.MaxRecursion == 0 {
		c.Limits.MaxRecursion = DefaultMaxRecursion
	}
	if c.Limits.MaxMemory == 0 {
		c.Limits.MaxMemory = DefaultMaxMemory
	}
	if c.Limits.MaxEmbedSize == 0 {
		c.Limits.MaxEmbedSize = DefaultMaxEmbedSize
	}
	if len(c.PassOrder) == 0 {
		c.PassOrder = append([]string(nil), DefaultPassOrder...)
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Limits.MaxFileSize <= 0 {
		return fmt.Errorf("limits.max_file_size must be positive, got %d", c.Limits.MaxFileSize)
	}
	if c.Limits.MaxMemory <= c.Limits.MaxFileSize {
		return fmt.Errorf("limits.max_memory (%d) must exceed limits.max_file_size (%d)",
			c.Limits.MaxMemory, c.Limits.MaxFileSize)
	}
	if c.Limits.MaxRecursion < 1 {
		return fmt.Errorf("limits.max_recursion must be >= 1, got %d", c.Limits.MaxRecursion)
	}
	if c.Limits.MaxEmbedSize < 0 {
		return fmt.Errorf("limits.max_embed_size must be >= 0, got %d", c.Limits.MaxEmbedSize)
	}
	return nil
}
