// Package plan builds validated plan trees from parsed documents. A plan
// catches every input problem before compilation starts, so the compiler
// only has to render what the planner already approved.
package plan

import (
	"io"
	"log/slog"

	"github.com/leapstack-labs/embedm/internal/cache"
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/status"
)

// Capability handles one directive type end to end: structural
// validation during planning, then transformation during compilation.
type Capability interface {
	// Name identifies the capability in logs and error output.
	Name() string

	// DirectiveType is the type string this capability claims.
	DirectiveType() string

	// Recurses reports whether the given sourced directive embeds
	// another compilable document. The planner builds a full subtree
	// when it does and a leaf node otherwise.
	Recurses(d *directive.Directive) bool

	// ValidateDirective checks directive shape and required options
	// before any file access happens.
	ValidateDirective(d *directive.Directive) []status.Status

	// Transform renders the directive to its replacement text.
	// parentDoc is the document-so-far view: fragments from earlier
	// passes are already strings, later-pass directives are still
	// Directive values. A returned error renders as an inline marker and
	// never aborts sibling directives.
	Transform(node *Node, parentDoc []directive.Fragment, ctx *Context) (string, error)
}

// InputValidator is implemented by capabilities that pre-parse their
// source during planning. The returned artifact lands on the PlanNode so
// compilation does not parse the source a second time.
type InputValidator interface {
	ValidateInput(d *directive.Directive, content string) (artifact any, errs []status.Status)
}

// Config carries the limits and pass ordering shared by planning and
// compilation.
type Config struct {
	// MaxRecursion bounds embed nesting depth.
	MaxRecursion int
	// MaxEmbedSize caps a single transform result in bytes; 0 disables.
	MaxEmbedSize int64
	// PassOrder lists directive types in compilation pass order. Types
	// absent from the list are resolved in a final catch-all pass.
	PassOrder []string
	// Settings holds per-capability option maps keyed by capability name.
	Settings map[string]map[string]string
}

// Context bundles the collaborators every capability transform receives.
type Context struct {
	Cache    *cache.FileCache
	Registry *Registry
	Config   *Config
	Logger   *slog.Logger
}

// NewContext wires a transform context. A nil logger is replaced with a
// discarding one so capabilities can log unconditionally.
func NewContext(fc *cache.FileCache, reg *Registry, cfg *Config, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{Cache: fc, Registry: reg, Config: cfg, Logger: logger}
}

// Setting returns a per-capability configuration value.
func (c *Context) Setting(capabilityName, key string) (string, bool) {
	if c.Config == nil || c.Config.Settings == nil {
		return "", false
	}
	m, ok := c.Config.Settings[capabilityName]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}
