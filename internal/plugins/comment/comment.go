// Package comment implements the comment directive: a block that is
// removed from the output entirely. Useful for notes to document
// maintainers that readers of the compiled output never see.
package comment

import (
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "comment" }
func (*Capability) DirectiveType() string { return "comment" }

func (*Capability) Recurses(*directive.Directive) bool { return false }

func (*Capability) ValidateDirective(*directive.Directive) []status.Status { return nil }

func (*Capability) Transform(*plan.Node, []directive.Fragment, *plan.Context) (string, error) {
	return "", nil
}
