package toc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/embedm/internal/cache"
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
)

func opts(pairs ...string) []directive.Option {
	var out []directive.Option
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, directive.Option{Key: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func docFragments(texts ...string) []directive.Fragment {
	out := make([]directive.Fragment, len(texts))
	for i, t := range texts {
		out[i] = directive.Text(t)
	}
	return out
}

func TestValidateDirective(t *testing.T) {
	c := New()

	assert.Empty(t, c.ValidateDirective(&directive.Directive{}))
	assert.Empty(t, c.ValidateDirective(&directive.Directive{Options: opts("max_depth", "3")}))

	errs := c.ValidateDirective(&directive.Directive{Options: opts("max_depth", "7")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "between 1 and 6")

	errs = c.ValidateDirective(&directive.Directive{Options: opts("max_depth", "zero")})
	require.Len(t, errs, 1)

	errs = c.ValidateDirective(&directive.Directive{Options: opts("start_fragment", "-1")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, ">= 0")

	errs = c.ValidateDirective(&directive.Directive{Options: opts("add_slugs", "yes")})
	require.Len(t, errs, 1)
}

func TestTransform_HeadingsWithSlugs(t *testing.T) {
	c := New()
	doc := docFragments("# Intro\n\ntext\n\n## Getting Started\n\nmore\n\n### Deep Dive\n")
	node := &plan.Node{Directive: &directive.Directive{Type: "toc"}}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"- [Intro](#intro)\n"+
			"  - [Getting Started](#getting-started)\n"+
			"    - [Deep Dive](#deep-dive)\n",
		out)
}

func TestTransform_WithoutSlugs(t *testing.T) {
	c := New()
	doc := docFragments("# Intro\n## Setup\n")
	node := &plan.Node{Directive: &directive.Directive{Type: "toc", Options: opts("add_slugs", "false")}}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "- Intro\n  - Setup\n", out)
}

func TestTransform_MaxDepth(t *testing.T) {
	c := New()
	doc := docFragments("# One\n## Two\n### Three\n")
	node := &plan.Node{Directive: &directive.Directive{Type: "toc", Options: opts("max_depth", "2")}}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "- [One](#one)\n  - [Two](#two)\n", out)
}

func TestTransform_DuplicateHeadingsGetNumberedSlugs(t *testing.T) {
	c := New()
	doc := docFragments("## Usage\n\ntext\n\n## Usage\n\ntext\n\n## Usage\n")
	node := &plan.Node{Directive: &directive.Directive{Type: "toc"}}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.Equal(t,
		"  - [Usage](#usage)\n"+
			"  - [Usage](#usage-1)\n"+
			"  - [Usage](#usage-2)\n",
		out)
}

func TestTransform_IgnoresHeadingsInCodeFences(t *testing.T) {
	c := New()
	doc := docFragments("# Real\n\n```bash\n# not a heading\n```\n\n## Also Real\n")
	node := &plan.Node{Directive: &directive.Directive{Type: "toc"}}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "- [Real](#real)\n  - [Also Real](#also-real)\n", out)
}

func TestTransform_StartFragmentSkipsEarlierText(t *testing.T) {
	c := New()
	doc := docFragments("# Skipped\n", "# Counted\n")
	node := &plan.Node{Directive: &directive.Directive{Type: "toc", Options: opts("start_fragment", "1")}}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "- [Counted](#counted)\n", out)
}

func TestTransform_NoHeadings(t *testing.T) {
	c := New()
	node := &plan.Node{Directive: &directive.Directive{Type: "toc"}}

	out, err := c.Transform(node, docFragments("plain text only\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, noContentNote, out)
}

func TestTransform_SourcedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "other.md")
	require.NoError(t, os.WriteFile(path, []byte("# Remote\n## Child\n"), 0o644))

	fc := cache.New(cache.Config{
		MaxFileSize:  1 << 20,
		MemoryLimit:  100 << 20,
		AllowedPaths: []string{dir},
		WriteMode:    cache.Overwrite,
	})
	ctx := plan.NewContext(fc, plan.NewRegistry(), &plan.Config{}, nil)

	c := New()
	node := &plan.Node{Directive: &directive.Directive{Type: "toc", Source: path}}

	out, err := c.Transform(node, nil, ctx)
	require.NoError(t, err)
	assert.Equal(t, "- [Remote](#remote)\n  - [Child](#child)\n", out)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Getting Started":      "getting-started",
		"What's New?":          "whats-new",
		"  Spaces  Everywhere": "spaces-everywhere",
		"snake_case_title":     "snake-case-title",
		"API v2.0":             "api-v20",
		"---":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}
