package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/status"
)

const baseDir = "/docs"

func TestParse_PlainContent(t *testing.T) {
	content := "# Title\n\nJust text, no directives.\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	require.Len(t, doc.Fragments, 1)

	span, ok := doc.Fragments[0].(directive.Span)
	require.True(t, ok, "plain content should become a single span")
	assert.Equal(t, 0, span.Offset)
	assert.Equal(t, len(content), span.Length)
}

func TestParse_EmptyContent(t *testing.T) {
	doc, statuses := Parse("", "a.md", baseDir)
	require.Empty(t, statuses)
	require.Len(t, doc.Fragments, 1, "an empty file is still a one-span document")

	span, ok := doc.Fragments[0].(directive.Span)
	require.True(t, ok)
	assert.Equal(t, directive.Span{}, span)
}

func TestParse_SingleDirective(t *testing.T) {
	content := "before\n```yaml embedm\ntype: file\nsource: other.md\n```\nafter\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	require.Len(t, doc.Fragments, 3)

	d, ok := doc.Fragments[1].(*directive.Directive)
	require.True(t, ok)
	assert.Equal(t, "file", d.Type)
	assert.Equal(t, filepath.Join(baseDir, "other.md"), d.Source, "relative sources resolve at parse time")
	assert.Equal(t, baseDir, d.BaseDir)
}

func TestParse_AbsoluteSourceUnchanged(t *testing.T) {
	content := "```yaml embedm\ntype: file\nsource: /abs/other.md\n```\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	d := doc.Directives()[0]
	assert.Equal(t, "/abs/other.md", d.Source)
}

func TestParse_NestedOptionsFlatten(t *testing.T) {
	content := "```yaml embedm\ntype: table\nsource: data.csv\nfilter:\n  status: active\n  age: \">30\"\n```\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	d := doc.Directives()[0]

	v, ok := d.Option("filter.status")
	require.True(t, ok, "nested mappings must flatten to dotted keys")
	assert.Equal(t, "active", v)

	v, ok = d.Option("filter.age")
	require.True(t, ok)
	assert.Equal(t, ">30", v)
}

func TestParse_ScalarValuesKeepRawText(t *testing.T) {
	content := "```yaml embedm\ntype: file\nlines: 07\nline_numbers: true\n```\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	d := doc.Directives()[0]

	v, _ := d.Option("lines")
	assert.Equal(t, "07", v, "scalar text must not be coerced")
	v, _ = d.Option("line_numbers")
	assert.Equal(t, "true", v)
}

func TestParse_MissingType(t *testing.T) {
	content := "```yaml embedm\nsource: other.md\n```\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Len(t, statuses, 1)
	assert.Equal(t, status.Error, statuses[0].Level)
	assert.Contains(t, statuses[0].Description, "type")
	assert.Empty(t, doc.Directives(), "malformed block produces no directive")
}

func TestParse_EmptyBlock(t *testing.T) {
	content := "```yaml embedm\n```\n"
	_, statuses := Parse(content, "a.md", baseDir)

	require.Len(t, statuses, 1)
	assert.Equal(t, status.Error, statuses[0].Level)
}

func TestParse_InvalidYAML(t *testing.T) {
	content := "```yaml embedm\ntype: [unclosed\n```\n"
	_, statuses := Parse(content, "a.md", baseDir)

	require.NotEmpty(t, statuses)
	assert.Equal(t, status.Error, statuses[0].Level)
}

func TestParse_SequenceValueRejected(t *testing.T) {
	content := "```yaml embedm\ntype: file\nlines:\n  - 1\n  - 2\n```\n"
	_, statuses := Parse(content, "a.md", baseDir)

	require.NotEmpty(t, statuses)
	assert.Contains(t, statuses[0].Description, "scalar or mapping")
}

func TestParse_UnclosedFence(t *testing.T) {
	content := "text\n```yaml embedm\ntype: file\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Len(t, statuses, 1)
	assert.Contains(t, statuses[0].Description, "unclosed")

	// the text before the broken block still parses
	require.Len(t, doc.Fragments, 1)
	span := doc.Fragments[0].(directive.Span)
	assert.Equal(t, len("text\n"), span.Length)
}

func TestParse_MultipleDirectivesKeepOrder(t *testing.T) {
	content := "```yaml embedm\ntype: comment\n```\nmiddle\n```yaml embedm\ntype: toc\n```\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	ds := doc.Directives()
	require.Len(t, ds, 2)
	assert.Equal(t, "comment", ds[0].Type)
	assert.Equal(t, "toc", ds[1].Type)
}

func TestParse_NonEmbedmFencesIgnored(t *testing.T) {
	content := "```yaml\nkey: value\n```\n\n```go\nfunc main() {}\n```\n"
	doc, statuses := Parse(content, "a.md", baseDir)

	require.Empty(t, statuses)
	assert.Empty(t, doc.Directives(), "ordinary code fences are not directives")
}

func TestParse_DuplicateKeysLastWins(t *testing.T) {
	content := "```yaml embedm\ntype: synopsis\nsource: a.txt\nmax_sentences: 2\nmax_sentences: 4\n```\n"
	doc, _ := Parse(content, "a.md", baseDir)

	require.Len(t, doc.Directives(), 1)
	v, _ := doc.Directives()[0].Option("max_sentences")
	assert.Equal(t, "4", v)
}
