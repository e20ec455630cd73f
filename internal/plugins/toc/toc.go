// Package toc implements the toc directive: a table of contents built
// from the headings of the enclosing document or of a referenced file.
//
// The capability scans the document-so-far view, so its pass must run
// after every capability whose output can contribute headings.
package toc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

const (
	maxDepthKey      = "max_depth"
	addSlugsKey      = "add_slugs"
	startFragmentKey = "start_fragment"

	defaultMaxDepth = 6
)

const noContentNote = "> [!NOTE]\n> No headings found in document.\n"

var headingRE = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "toc" }
func (*Capability) DirectiveType() string { return "toc" }

func (*Capability) Recurses(*directive.Directive) bool { return false }

func (*Capability) ValidateDirective(d *directive.Directive) []status.Status {
	var statuses []status.Status

	if value, s := d.IntOption(maxDepthKey, defaultMaxDepth); s != nil {
		statuses = append(statuses, *s)
	} else if value < 1 || value > 6 {
		statuses = append(statuses, status.Errorf("%q must be between 1 and 6, got %d", maxDepthKey, value))
	}

	if value, s := d.IntOption(startFragmentKey, 0); s != nil {
		statuses = append(statuses, *s)
	} else if value < 0 {
		statuses = append(statuses, status.Errorf("%q must be >= 0, got %d", startFragmentKey, value))
	}

	if _, s := d.BoolOption(addSlugsKey, true); s != nil {
		statuses = append(statuses, *s)
	}
	return statuses
}

func (*Capability) Transform(node *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (string, error) {
	maxDepth, _ := node.Directive.IntOption(maxDepthKey, defaultMaxDepth)
	addSlugs, _ := node.Directive.BoolOption(addSlugsKey, true)
	startFragment, _ := node.Directive.IntOption(startFragmentKey, 0)

	var texts []string
	if node.Directive.Source != "" {
		content, errs := ctx.Cache.GetFile(node.Directive.Source)
		if len(errs) > 0 {
			return "", fmt.Errorf("cannot read toc source %q", node.Directive.Source)
		}
		texts = []string{content}
	} else {
		if startFragment > len(parentDoc) {
			startFragment = len(parentDoc)
		}
		for _, f := range parentDoc[startFragment:] {
			if t, ok := f.(directive.Text); ok {
				texts = append(texts, string(t))
			}
		}
	}

	var lines []string
	headingCounts := make(map[string]int)
	for _, text := range texts {
		lines = append(lines, scanHeadings(text, maxDepth, headingCounts, addSlugs)...)
	}

	if len(lines) == 0 {
		return noContentNote, nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// scanHeadings extracts ATX headings up to maxDepth, skipping anything
// inside fenced code blocks.
func scanHeadings(content string, maxDepth int, headingCounts map[string]int, addSlugs bool) []string {
	var lines []string
	for _, line := range visibleLines(content) {
		m := headingRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level := len(m[1])
		if level > maxDepth {
			continue
		}
		lines = append(lines, tocLine(level, strings.TrimSpace(m[2]), headingCounts, addSlugs))
	}
	return lines
}

// visibleLines yields lines outside fenced code blocks. Fences close
// only on a marker at least as long as the opener, matching how GFM
// treats nested backticks.
func visibleLines(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var visible []string
	inFence := false
	fenceMarker := ""

	for _, line := range strings.Split(normalized, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "```") {
			if !inFence {
				inFence = true
				fenceMarker = stripped[:len(stripped)-len(strings.TrimLeft(stripped, "`"))]
				continue
			}
			if strings.HasPrefix(stripped, fenceMarker) && strings.TrimSpace(strings.Trim(stripped, "`")) == "" {
				inFence = false
				continue
			}
		}
		if !inFence {
			visible = append(visible, line)
		}
	}
	return visible
}

func tocLine(level int, text string, headingCounts map[string]int, addSlugs bool) string {
	indent := strings.Repeat("  ", level-1)
	if !addSlugs {
		return indent + "- " + text
	}

	slug := Slugify(text)
	if n, seen := headingCounts[slug]; seen {
		headingCounts[slug] = n + 1
		slug = fmt.Sprintf("%s-%d", slug, n+1)
	} else {
		headingCounts[slug] = 0
	}
	return fmt.Sprintf("%s- [%s](#%s)", indent, text, slug)
}

var (
	slugSpecialRE = regexp.MustCompile(`[^\w\s-]`)
	slugSpaceRE   = regexp.MustCompile(`[\s_]+`)
	slugTrimRE    = regexp.MustCompile(`^-+|-+$`)
)

// Slugify builds a GitHub-style anchor slug from a heading.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = slugSpecialRE.ReplaceAllString(s, "")
	s = slugSpaceRE.ReplaceAllString(s, "-")
	return slugTrimRE.ReplaceAllString(s, "")
}
