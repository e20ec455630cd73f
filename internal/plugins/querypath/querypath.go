// Package querypath implements the query-path directive: embed a value
// from a JSON, YAML, TOML, or XML file selected by a dot-notation path.
// Without a path the whole document is embedded as a fenced code block.
package querypath

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/normalize"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

const (
	pathKey   = "path"
	formatKey = "format"
)

var extToLangTag = map[string]string{
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".xml":  "xml",
}

// artifact carries the parse-and-resolve result from planning to
// compilation, so the source is parsed exactly once.
type artifact struct {
	value        any
	rawContent   string
	langTag      string
	fullDocument bool
	format       string
}

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "query-path" }
func (*Capability) DirectiveType() string { return "query-path" }

func (*Capability) Recurses(*directive.Directive) bool { return false }

func (*Capability) ValidateDirective(d *directive.Directive) []status.Status {
	if d.Source == "" {
		return []status.Status{status.Errorf("query-path directive requires a source")}
	}

	if _, ok := normalize.ForPath(d.Source); !ok {
		return []status.Status{status.Errorf("unsupported query-path format %q. Supported: %s",
			filepath.Ext(d.Source), strings.Join(normalize.SupportedExtensions(), ", "))}
	}

	format, _ := d.Option(formatKey)
	if format != "" {
		if p, _ := d.Option(pathKey); p == "" {
			return []status.Status{status.Errorf("%q requires %q to be set", formatKey, pathKey)}
		}
		if !strings.Contains(format, "{value}") {
			return []status.Status{status.Errorf("%q must contain the {value} placeholder", formatKey)}
		}
	}
	return nil
}

// ValidateInput parses the source and resolves the path during planning.
func (*Capability) ValidateInput(d *directive.Directive, content string) (any, []status.Status) {
	parse, _ := normalize.ForPath(d.Source)
	langTag := extToLangTag[strings.ToLower(filepath.Ext(d.Source))]

	tree, err := parse(content)
	if err != nil {
		return nil, []status.Status{status.Errorf("cannot parse %q: %v", filepath.Base(d.Source), err)}
	}

	pathStr, _ := d.Option(pathKey)
	format, _ := d.Option(formatKey)

	if pathStr == "" {
		return &artifact{rawContent: content, langTag: langTag, fullDocument: true}, nil
	}

	value, err := Resolve(tree, ParsePath(pathStr))
	if err != nil {
		return nil, []status.Status{status.Errorf("path %q not found in %q", pathStr, filepath.Base(d.Source))}
	}

	if format != "" && !isScalar(value) {
		return nil, []status.Status{status.Errorf("%q can only format scalar values", formatKey)}
	}

	return &artifact{value: value, rawContent: content, langTag: langTag, format: format}, nil
}

func (*Capability) Transform(node *plan.Node, _ []directive.Fragment, _ *plan.Context) (string, error) {
	art, ok := node.Artifact.(*artifact)
	if !ok {
		return "", fmt.Errorf("query-path source %q was not resolved during planning", node.Directive.Source)
	}

	if art.fullDocument {
		return fmt.Sprintf("```%s\n%s\n```", art.langTag, strings.TrimRight(art.rawContent, "\n")), nil
	}

	rendered, err := renderValue(art.value)
	if err != nil {
		return "", err
	}
	if art.format != "" {
		return strings.ReplaceAll(art.format, "{value}", rendered), nil
	}
	return rendered, nil
}

func isScalar(value any) bool {
	switch value.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// renderValue prints scalars inline and structured values as a fenced
// YAML block.
func renderValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case string:
		return v, nil
	}
	if isScalar(value) {
		return fmt.Sprintf("%v", value), nil
	}

	dumped, err := yaml.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("cannot render query-path value: %w", err)
	}
	return fmt.Sprintf("```yaml\n%s\n```", strings.TrimRight(string(dumped), "\n")), nil
}
