package plan

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/embedm/internal/cache"
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/parser"
	"github.com/leapstack-labs/embedm/internal/status"
)

// Planner turns raw source text into validated plan trees. Every
// user-triggerable problem becomes a Status on a node; the planner never
// writes anything and never panics on bad input.
type Planner struct {
	registry *Registry
	cache    *cache.FileCache
	config   *Config
	logger   *slog.Logger
}

// NewPlanner wires a planner. A nil logger discards.
func NewPlanner(reg *Registry, fc *cache.FileCache, cfg *Config, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{registry: reg, cache: fc, config: cfg, logger: logger}
}

// CreatePlan builds the plan tree for one document. The ancestors slice
// holds the absolute source paths from the root down to (and including)
// this node's source, in order, and backs cycle detection. Each
// recursion copies it, so sibling subtrees never see each other's paths.
func (p *Planner) CreatePlan(d *directive.Directive, content string, ancestors []string, depth int) *Node {
	doc, parseStatuses := parser.Parse(content, d.Source, d.BaseDir)
	if status.HasLevel(parseStatuses, status.Error) {
		return &Node{Directive: d, Status: parseStatuses}
	}

	node := &Node{Directive: d, Status: parseStatuses, Document: doc}

	for _, child := range doc.Directives() {
		childNode, fatal := p.planDirective(child, ancestors, depth)
		if childNode != nil {
			node.Children = append(node.Children, childNode)
		}
		if fatal {
			// FATAL stops the enclosing file; the fatal status also
			// surfaces on this node so parents can see it.
			node.Status = append(node.Status, status.Filter(childNode.Status, status.Fatal)...)
			break
		}
	}

	return node
}

// planDirective validates a single directive and, when it has a source,
// builds its child node. Returns a nil node for source-less directives
// that validate cleanly; the compiler synthesizes a leaf for those.
// The fatal flag is set when planning of the enclosing file must stop.
func (p *Planner) planDirective(d *directive.Directive, ancestors []string, depth int) (*Node, bool) {
	capability, ok := p.registry.Lookup(d.Type)
	if !ok {
		return &Node{
			Directive: d,
			Status: []status.Status{status.Errorf("no capability registered for directive type %q (registered: %s)",
				d.Type, strings.Join(p.registry.Types(), ", "))},
		}, false
	}

	statuses := capability.ValidateDirective(d)

	if d.Source == "" {
		if len(statuses) == 0 {
			return nil, false
		}
		return &Node{Directive: d, Status: statuses}, false
	}

	if cycle := detectCycle(ancestors, d.Source); cycle != "" {
		statuses = append(statuses, status.Fatalf("circular dependency detected: %s", cycle))
		return &Node{Directive: d, Status: statuses}, true
	}

	if depth >= p.config.MaxRecursion {
		statuses = append(statuses, status.Fatalf("max recursion depth (%d) exceeded at %q", p.config.MaxRecursion, d.Source))
		return &Node{Directive: d, Status: statuses}, true
	}

	fileStatuses := p.cache.Validate(d.Source)
	statuses = append(statuses, fileStatuses...)
	if status.HasLevel(fileStatuses, status.Fatal) {
		return &Node{Directive: d, Status: statuses}, true
	}
	if status.HasLevel(statuses, status.Error) {
		return &Node{Directive: d, Status: statuses}, false
	}

	content, loadStatuses := p.cache.GetFile(d.Source)
	if len(loadStatuses) > 0 {
		statuses = append(statuses, loadStatuses...)
		return &Node{Directive: d, Status: statuses}, false
	}

	var artifact any
	if validator, ok := capability.(InputValidator); ok {
		var inputStatuses []status.Status
		artifact, inputStatuses = validator.ValidateInput(d, content)
		statuses = append(statuses, inputStatuses...)
		if status.HasLevel(inputStatuses, status.Error) {
			return &Node{Directive: d, Status: statuses}, false
		}
	}

	if !capability.Recurses(d) {
		return &Node{Directive: d, Status: statuses, Artifact: artifact}, false
	}

	childAncestors := append(append([]string(nil), ancestors...), d.Source)
	childNode := p.CreatePlan(d, content, childAncestors, depth+1)
	childNode.Status = append(statuses, childNode.Status...)
	childNode.Artifact = artifact
	return childNode, status.HasLevel(childNode.Status, status.Fatal)
}

// detectCycle returns the full cycle path when the source already
// appears among the ancestors, e.g. "a.md -> b.md -> a.md".
func detectCycle(ancestors []string, source string) string {
	for i, a := range ancestors {
		if a == source {
			parts := make([]string, 0, len(ancestors)-i+1)
			for _, p := range ancestors[i:] {
				parts = append(parts, filepath.Base(p))
			}
			parts = append(parts, filepath.Base(source))
			return strings.Join(parts, " -> ")
		}
	}
	return ""
}
