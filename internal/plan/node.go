package plan

import (
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/status"
)

// Node is one element of a plan tree. Nodes are built once during
// planning and read-only afterwards; compilation derives new strings but
// never writes back into the tree.
//
// Document is nil exactly when planning failed before the source could
// be parsed, or when the capability does not recurse into a document.
// Artifact holds a capability's pre-parsed input, stored so compilation
// does not parse the source twice.
type Node struct {
	Directive *directive.Directive
	Status    []status.Status
	Document  *directive.Document
	Children  []*Node
	Artifact  any
}

// HasBlocking reports whether the node itself carries an ERROR or FATAL.
func (n *Node) HasBlocking() bool {
	return status.HasLevel(n.Status, status.Error)
}

// ChildFor returns the child node planned for the given directive.
// Lookup is by directive identity, so two directives sharing a source
// each find their own child.
func (n *Node) ChildFor(d *directive.Directive) (*Node, bool) {
	for _, child := range n.Children {
		if child.Directive == d {
			return child, true
		}
	}
	return nil, false
}

// Walk visits the node and all descendants depth-first, children in
// document order.
func (n *Node) Walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// TreeStatuses collects every status in the tree, depth-first.
func (n *Node) TreeStatuses() []status.Status {
	var all []status.Status
	n.Walk(func(node *Node) {
		all = append(all, node.Status...)
	})
	return all
}

// TreeLevel returns the worst status level anywhere in the tree.
func (n *Node) TreeLevel() status.Level {
	return status.Max(n.TreeStatuses())
}

// CountNodes returns the total number of nodes in the tree.
func (n *Node) CountNodes() int {
	count := 0
	n.Walk(func(*Node) { count++ })
	return count
}
