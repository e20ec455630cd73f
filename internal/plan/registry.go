package plan

import (
	"fmt"
	"sort"
)

// Registry maps directive types to their capabilities. Registration is
// explicit; there is no discovery mechanism, callers wire capabilities
// at startup.
type Registry struct {
	byType map[string]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Capability)}
}

// Register adds a capability. A duplicate directive type is a wiring
// mistake and returns an error naming both claimants.
func (r *Registry) Register(c Capability) error {
	dtype := c.DirectiveType()
	if existing, ok := r.byType[dtype]; ok {
		return fmt.Errorf("capability %q claims directive type %q already registered by %q",
			c.Name(), dtype, existing.Name())
	}
	r.byType[dtype] = c
	return nil
}

// MustRegister registers a capability and panics on conflict. Meant for
// startup wiring where a duplicate is unrecoverable.
func (r *Registry) MustRegister(c Capability) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the capability claiming the directive type.
func (r *Registry) Lookup(directiveType string) (Capability, bool) {
	c, ok := r.byType[directiveType]
	return c, ok
}

// Types returns all registered directive types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count returns the number of registered capabilities.
func (r *Registry) Count() int {
	return len(r.byType)
}
