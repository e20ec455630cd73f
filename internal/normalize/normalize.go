// Package normalize parses structured-data formats into a common
// tree shape of map[string]any, []any, and scalar leaves, so capabilities
// can walk any supported format the same way.
package normalize

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Func parses raw content into the normalized tree shape.
type Func func(content string) (any, error)

var byExtension = map[string]Func{
	".json": JSON,
	".yaml": YAML,
	".yml":  YAML,
	".toml": TOML,
	".xml":  XML,
}

// ForPath returns the normalizer for the path's extension.
func ForPath(path string) (Func, bool) {
	fn, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	return fn, ok
}

// SupportedExtensions lists the recognized extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// JSON parses JSON content. Numbers decode as json.Number so integer
// values render without a float suffix.
func JSON(content string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// YAML parses YAML content.
func YAML(content string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return v, nil
}

// TOML parses TOML content. The document root is always a table.
func TOML(content string) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal([]byte(content), &v); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return v, nil
}
