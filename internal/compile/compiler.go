// Package compile renders plan trees to output text. Compilation is a
// multi-pass, depth-first walk driven by capability-type pass order, not
// document order: each pass resolves every directive of one type across
// the whole document before the next type runs. Capabilities that scan
// the document-so-far must therefore sit after everything whose output
// they need to see.
package compile

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

// Compile renders a plan tree into its final output string. Nodes whose
// planning failed render as inline error markers, never as empty output.
func Compile(root *plan.Node, ctx *plan.Context) string {
	if root.Document == nil {
		return ErrorNote(blockingDescriptions(root.Status))
	}
	return compileDocument(root, ctx)
}

// compileDocument resolves a node's document: spans become strings once,
// then directives are replaced pass by pass, then everything is joined.
func compileDocument(node *plan.Node, ctx *plan.Context) string {
	source, errs := ctx.Cache.GetFile(node.Directive.Source)
	if len(errs) > 0 {
		// planner validated and cached the source; losing it mid-run is
		// a programmer error, not user input
		panic(fmt.Sprintf("compile: source %q not available after planning: %v", node.Directive.Source, errs))
	}

	resolved := resolveFragments(node.Document.Fragments, source)

	for _, directiveType := range PassOrder(ctx.Config.PassOrder, ctx.Registry) {
		resolved = resolvePass(resolved, node, ctx, directiveType)
	}
	// catch-all for types that somehow missed every pass
	resolved = resolvePass(resolved, node, ctx, "")

	var b strings.Builder
	for _, item := range resolved {
		if s, ok := item.(directive.Text); ok {
			b.WriteString(string(s))
		}
	}
	return b.String()
}

// resolveFragments turns Span fragments into source slices. Directives
// pass through untouched.
func resolveFragments(fragments []directive.Fragment, source string) []directive.Fragment {
	resolved := make([]directive.Fragment, 0, len(fragments))
	for _, f := range fragments {
		switch frag := f.(type) {
		case directive.Span:
			end := frag.Offset + frag.Length
			if end > len(source) {
				end = len(source)
			}
			resolved = append(resolved, directive.Text(source[frag.Offset:end]))
		default:
			resolved = append(resolved, f)
		}
	}
	return resolved
}

// resolvePass replaces every directive of one type with its transform
// result. An empty directiveType matches all remaining directives.
func resolvePass(resolved []directive.Fragment, node *plan.Node, ctx *plan.Context, directiveType string) []directive.Fragment {
	out := make([]directive.Fragment, 0, len(resolved))
	for _, item := range resolved {
		d, isDirective := item.(*directive.Directive)
		if !isDirective || (directiveType != "" && d.Type != directiveType) {
			out = append(out, item)
			continue
		}
		out = append(out, directive.Text(transformDirective(d, node, resolved, ctx)))
	}
	return out
}

// transformDirective runs one capability transform with the per-directive
// failure boundary: panics and errors become inline markers and never
// abort sibling directives.
func transformDirective(d *directive.Directive, parent *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (result string) {
	capability, ok := ctx.Registry.Lookup(d.Type)
	if !ok {
		return ErrorNote([]string{fmt.Sprintf("no capability registered for directive type %q", d.Type)})
	}

	node := childNode(d, parent)
	if node.HasBlocking() && node.Document == nil {
		return ErrorNote(blockingDescriptions(node.Status))
	}

	defer func() {
		if r := recover(); r != nil {
			ctx.Logger.Error("capability panicked",
				"capability", capability.Name(),
				"type", d.Type,
				"source", d.Source,
				"panic", r)
			result = ErrorNote([]string{fmt.Sprintf("capability %q failed: %v", capability.Name(), r)})
		}
	}()

	transformed, err := capability.Transform(node, parentDoc, ctx)
	if err != nil {
		return ErrorNote([]string{err.Error()})
	}

	if max := ctx.Config.MaxEmbedSize; max > 0 && int64(len(transformed)) > max {
		return ErrorNote([]string{fmt.Sprintf("embedded content exceeds max embed size (%d bytes)", max)})
	}
	return transformed
}

// childNode finds the planned child for a directive, or synthesizes a
// leaf. A sourced directive without a planned child means its plan was
// cut short; that surfaces as an error marker.
func childNode(d *directive.Directive, parent *plan.Node) *plan.Node {
	if child, ok := parent.ChildFor(d); ok {
		return child
	}
	if d.Source != "" {
		return &plan.Node{
			Directive: d,
			Status:    []status.Status{status.Errorf("source %q could not be processed", d.Source)},
		}
	}
	return &plan.Node{Directive: d}
}

// PassOrder expands the configured type ordering: configured types that
// are actually registered come first, in order, then every remaining
// registered type.
func PassOrder(configured []string, reg *plan.Registry) []string {
	var order []string
	covered := make(map[string]struct{})
	for _, t := range configured {
		if _, ok := reg.Lookup(t); !ok {
			continue
		}
		if _, seen := covered[t]; seen {
			continue
		}
		covered[t] = struct{}{}
		order = append(order, t)
	}
	for _, t := range reg.Types() {
		if _, seen := covered[t]; !seen {
			covered[t] = struct{}{}
			order = append(order, t)
		}
	}
	return order
}

// ErrorNote renders messages as a GFM caution block, the inline marker
// shown in place of a directive that could not be resolved.
func ErrorNote(messages []string) string {
	lines := make([]string, 0, len(messages)+1)
	lines = append(lines, "> [!CAUTION]")
	for _, msg := range messages {
		lines = append(lines, "> **embedm:** "+msg)
	}
	return strings.Join(lines, "\n") + "\n"
}

func blockingDescriptions(statuses []status.Status) []string {
	blocking := status.Filter(statuses, status.Error)
	msgs := make([]string, 0, len(blocking))
	for _, s := range blocking {
		msgs = append(msgs, s.Description)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "planning failed")
	}
	return msgs
}
