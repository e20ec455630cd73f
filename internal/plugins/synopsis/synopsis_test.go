package synopsis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
)

const article = `The compiler turns annotated markdown into published documentation.
Every directive is validated before any output is written to disk.
Validation failures surface as inline markers in the compiled result.
The planner walks embedded documents recursively and caches file reads.
Output never silently drops content because each failure leaves a visible trace.
`

func opts(pairs ...string) []directive.Option {
	var out []directive.Option
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, directive.Option{Key: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func TestValidateDirective(t *testing.T) {
	c := New()

	assert.Empty(t, c.ValidateDirective(&directive.Directive{}))
	assert.Empty(t, c.ValidateDirective(&directive.Directive{
		Options: opts("max_sentences", "5", "algorithm", "luhn", "language", "nl"),
	}))

	errs := c.ValidateDirective(&directive.Directive{Options: opts("max_sentences", "0")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, ">= 1")

	errs = c.ValidateDirective(&directive.Directive{Options: opts("max_sentences", "many")})
	require.Len(t, errs, 1)

	errs = c.ValidateDirective(&directive.Directive{Options: opts("algorithm", "magic")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, `invalid algorithm "magic"`)

	errs = c.ValidateDirective(&directive.Directive{Options: opts("language", "tlh")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, `invalid language "tlh"`)

	errs = c.ValidateDirective(&directive.Directive{Options: opts("sections", "-2")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, ">= 0")
}

func TestTransform_EnclosingDocument(t *testing.T) {
	c := New()
	node := &plan.Node{Directive: &directive.Directive{Type: "synopsis", Options: opts("max_sentences", "2")}}

	out, err := c.Transform(node, []directive.Fragment{directive.Text(article)}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "> "), "output should be a blockquote, got %q", out)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.NotEqual(t, noContentNote, out)
}

func TestTransform_SkipsUnresolvedDirectives(t *testing.T) {
	c := New()
	node := &plan.Node{Directive: &directive.Directive{Type: "synopsis"}}
	doc := []directive.Fragment{
		directive.Text(article),
		&directive.Directive{Type: "file", Source: "/elsewhere.md"},
	}

	out, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "elsewhere")
}

func TestTransform_EmptyDocument(t *testing.T) {
	c := New()
	node := &plan.Node{Directive: &directive.Directive{Type: "synopsis"}}

	out, err := c.Transform(node, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, noContentNote, out)
}

func TestTransform_LuhnAlgorithm(t *testing.T) {
	c := New()
	node := &plan.Node{Directive: &directive.Directive{
		Type:    "synopsis",
		Options: opts("algorithm", "luhn", "max_sentences", "1"),
	}}

	out, err := c.Transform(node, []directive.Fragment{directive.Text(article)}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "> "))
}

func TestTransform_Deterministic(t *testing.T) {
	c := New()
	node := &plan.Node{Directive: &directive.Directive{Type: "synopsis"}}
	doc := []directive.Fragment{directive.Text(article)}

	first, err := c.Transform(node, doc, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := c.Transform(node, doc, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
