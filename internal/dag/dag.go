// Package dag tracks the embed dependency graph: which documents pull in
// which files, directly or through nested embeds. It backs the deps
// command and lets watch mode recompile exactly the documents a changed
// file feeds into.
package dag

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/embedm/internal/plan"
)

// Node is one file in the graph.
type Node struct {
	// Path is the absolute file path, the node's identity.
	Path string
	// Document marks files that were compiled as documents rather than
	// only embedded as leaf content.
	Document bool
}

// Graph is the directed embed graph. An edge runs from a document to
// each file it embeds.
type Graph struct {
	nodes      map[string]*Node
	embeds     map[string][]string // document -> embedded files
	embeddedBy map[string][]string // file -> documents embedding it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		embeds:     make(map[string][]string),
		embeddedBy: make(map[string][]string),
	}
}

// Clear removes all nodes and edges.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*Node)
	g.embeds = make(map[string][]string)
	g.embeddedBy = make(map[string][]string)
}

// AddNode registers a file. Re-adding upgrades a leaf to a document but
// never downgrades one.
func (g *Graph) AddNode(path string, document bool) {
	if n, exists := g.nodes[path]; exists {
		if document {
			n.Document = true
		}
		return
	}
	g.nodes[path] = &Node{Path: path, Document: document}
	g.embeds[path] = []string{}
	g.embeddedBy[path] = []string{}
}

// AddEdge records that doc embeds source. Both nodes must exist.
func (g *Graph) AddEdge(doc, source string) error {
	if _, exists := g.nodes[doc]; !exists {
		return fmt.Errorf("document node %q does not exist", doc)
	}
	if _, exists := g.nodes[source]; !exists {
		return fmt.Errorf("source node %q does not exist", source)
	}
	if doc == source {
		return fmt.Errorf("self-embed detected: %s", doc)
	}

	if !contains(g.embeds[doc], source) {
		g.embeds[doc] = append(g.embeds[doc], source)
	}
	if !contains(g.embeddedBy[source], doc) {
		g.embeddedBy[source] = append(g.embeddedBy[source], doc)
	}
	return nil
}

// AddPlan folds one plan tree into the graph. Every directive with a
// source contributes an edge from its enclosing document; nodes with
// their own Document are documents themselves.
func (g *Graph) AddPlan(root *plan.Node) {
	if root == nil || root.Directive == nil || root.Directive.Source == "" {
		return
	}
	g.addPlanNode(root)
}

func (g *Graph) addPlanNode(n *plan.Node) {
	doc := n.Directive.Source
	g.AddNode(doc, true)

	for _, child := range n.Children {
		if child.Directive == nil || child.Directive.Source == "" {
			continue
		}
		src := child.Directive.Source
		g.AddNode(src, child.Document != nil)
		_ = g.AddEdge(doc, src)
		if child.Document != nil {
			g.addPlanNode(child)
		}
	}
}

// GetNode returns a node by path.
func (g *Graph) GetNode(path string) (*Node, bool) {
	n, exists := g.nodes[path]
	return n, exists
}

// Embeds returns the files a document embeds directly.
func (g *Graph) Embeds(path string) []string {
	out := append([]string(nil), g.embeds[path]...)
	sort.Strings(out)
	return out
}

// EmbeddedBy returns the documents that embed a file directly.
func (g *Graph) EmbeddedBy(path string) []string {
	out := append([]string(nil), g.embeddedBy[path]...)
	sort.Strings(out)
	return out
}

// AllNodes returns every node in stable order.
func (g *Graph) AllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes
}

// NodeCount returns the number of files in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of embed edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, targets := range g.embeds {
		count += len(targets)
	}
	return count
}

// AffectedDocuments returns every document that must be recompiled when
// the given files change: documents among the changed files themselves,
// plus every document reaching a changed file through embeds.
func (g *Graph) AffectedDocuments(changed []string) []string {
	affected := make(map[string]bool)

	var markUp func(path string)
	markUp = func(path string) {
		if n, ok := g.nodes[path]; ok && n.Document {
			if affected[path] {
				return
			}
			affected[path] = true
		}
		for _, doc := range g.embeddedBy[path] {
			markUp(doc)
		}
	}

	for _, path := range changed {
		if _, exists := g.nodes[path]; exists {
			markUp(path)
		}
	}

	result := make([]string, 0, len(affected))
	for path := range affected {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Dependencies returns the transitive closure of files a document embeds.
func (g *Graph) Dependencies(path string) []string {
	deps := make(map[string]bool)

	var markDown func(p string)
	markDown = func(p string) {
		for _, src := range g.embeds[p] {
			if !deps[src] {
				deps[src] = true
				markDown(src)
			}
		}
	}
	markDown(path)

	result := make([]string, 0, len(deps))
	for p := range deps {
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}

// Roots returns documents nothing else embeds.
func (g *Graph) Roots() []string {
	var roots []string
	for path, n := range g.nodes {
		if n.Document && len(g.embeddedBy[path]) == 0 {
			roots = append(roots, path)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns files that embed nothing.
func (g *Graph) Leaves() []string {
	var leaves []string
	for path := range g.nodes {
		if len(g.embeds[path]) == 0 {
			leaves = append(leaves, path)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// HasCycle reports whether the graph contains an embed cycle, with the
// cycle path. The planner refuses cyclic plans, so a cycle here means
// the graph was built from raw edges rather than plans.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	parent := make(map[string]string)

	var cyclePath []string

	var dfs func(path string) bool
	dfs = func(path string) bool {
		visited[path] = true
		recStack[path] = true

		for _, next := range g.embeds[path] {
			if !visited[next] {
				parent[next] = path
				if dfs(next) {
					return true
				}
			} else if recStack[next] {
				cyclePath = []string{next}
				for curr := path; curr != next; curr = parent[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{next}, cyclePath...)
				return true
			}
		}

		recStack[path] = false
		return false
	}

	for path := range g.nodes {
		if !visited[path] {
			if dfs(path) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
