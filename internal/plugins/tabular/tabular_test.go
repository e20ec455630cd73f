package tabular

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
)

const peopleCSV = "name,age,city\nAlice,34,Utrecht\nBob,28,Ghent\nCarol,41,Utrecht\n"

func opts(pairs ...string) []directive.Option {
	var out []directive.Option
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, directive.Option{Key: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func transform(t *testing.T, d *directive.Directive, content string) string {
	t.Helper()
	c := New()
	art, errs := c.ValidateInput(d, content)
	require.Empty(t, errs)
	out, err := c.Transform(&plan.Node{Directive: d, Artifact: art}, nil, nil)
	require.NoError(t, err)
	return out
}

func TestValidateDirective(t *testing.T) {
	c := New()

	assert.Empty(t, c.ValidateDirective(&directive.Directive{Source: "/data/people.csv"}))

	errs := c.ValidateDirective(&directive.Directive{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "requires a source")

	errs = c.ValidateDirective(&directive.Directive{Source: "/data/people.parquet"})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "unsupported table format")

	errs = c.ValidateDirective(&directive.Directive{Source: "/data/p.csv", Options: opts("limit", "ten")})
	require.Len(t, errs, 1)

	errs = c.ValidateDirective(&directive.Directive{Source: "/data/p.csv", Options: opts("select", "a b c,")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "invalid select expression")

	errs = c.ValidateDirective(&directive.Directive{Source: "/data/p.csv", Options: opts("order_by", "age sideways")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "invalid order_by expression")
}

func TestTransform_BasicCSV(t *testing.T) {
	d := &directive.Directive{Source: "/data/people.csv"}
	out := transform(t, d, peopleCSV)

	assert.Contains(t, out, "| name | age | city |")
	assert.Contains(t, out, "| Alice | 34 | Utrecht |")
	assert.Contains(t, out, "| Carol | 41 | Utrecht |")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTransform_TSV(t *testing.T) {
	d := &directive.Directive{Source: "/data/people.tsv"}
	out := transform(t, d, "name\tage\nAlice\t34\n")

	assert.Contains(t, out, "| Alice | 34 |")
}

func TestTransform_JSONKeepsKeyOrder(t *testing.T) {
	d := &directive.Directive{Source: "/data/people.json"}
	out := transform(t, d, `[{"name": "Alice", "age": 34}, {"name": "Bob", "age": 28}]`)

	assert.Contains(t, out, "| name | age |")
	assert.Contains(t, out, "| Alice | 34 |")
	assert.Contains(t, out, "| Bob | 28 |")
}

func TestTransform_FilterAndOrder(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/people.csv",
		Options: append(opts("order_by", "age desc"), directive.Option{Key: "filter.city", Value: "Utrecht"}),
	}
	out := transform(t, d, peopleCSV)

	assert.NotContains(t, out, "Bob")
	carol := strings.Index(out, "Carol")
	alice := strings.Index(out, "Alice")
	require.True(t, carol >= 0 && alice >= 0)
	assert.Less(t, carol, alice, "descending age puts Carol first")
}

func TestTransform_FilterOperators(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/people.csv",
		Options: []directive.Option{{Key: "filter.age", Value: ">= 34"}},
	}
	out := transform(t, d, peopleCSV)

	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Carol")
	assert.NotContains(t, out, "Bob")
}

func TestTransform_SelectWithAlias(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/people.csv",
		Options: opts("select", "name as person, city"),
	}
	out := transform(t, d, peopleCSV)

	assert.Contains(t, out, "| person | city |")
	assert.NotContains(t, out, "age")
	assert.NotContains(t, out, "34")
}

func TestTransform_UnknownSelectColumn(t *testing.T) {
	c := New()
	d := &directive.Directive{Source: "/data/people.csv", Options: opts("select", "salary")}
	art, errs := c.ValidateInput(d, peopleCSV)
	require.Empty(t, errs)

	_, err := c.Transform(&plan.Node{Directive: d, Artifact: art}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "salary" not found`)
	assert.Contains(t, err.Error(), "age, city, name")
}

func TestTransform_OffsetAndLimit(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/people.csv",
		Options: opts("offset", "1", "limit", "1"),
	}
	out := transform(t, d, peopleCSV)

	assert.NotContains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
	assert.NotContains(t, out, "Carol")
}

func TestTransform_OffsetBeyondRows(t *testing.T) {
	d := &directive.Directive{Source: "/data/people.csv", Options: opts("offset", "10")}
	out := transform(t, d, peopleCSV)

	assert.Equal(t, noContentNote, out)
}

func TestTransform_EmptyTable(t *testing.T) {
	d := &directive.Directive{Source: "/data/empty.csv"}
	out := transform(t, d, "name,age\n")

	assert.Equal(t, noContentNote, out)
}

func TestTransform_NullStringAndCellTruncation(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/people.csv",
		Options: opts("null_string", "n/a", "max_cell_length", "4"),
	}
	out := transform(t, d, "name,nick\nAlexandra,\n")

	assert.Contains(t, out, "Ale…")
	assert.Contains(t, out, "n/a")
	assert.NotContains(t, out, "Alexandra")
}

func TestTransform_TruncationKeepsRunesIntact(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/people.csv",
		Options: opts("max_cell_length", "3"),
	}
	out := transform(t, d, "name\naééé\n")

	assert.Contains(t, out, "aé…")
	assert.True(t, utf8.ValidString(out), "truncation must never split a rune")
}

func TestTransform_DateFormat(t *testing.T) {
	d := &directive.Directive{
		Source:  "/data/events.csv",
		Options: opts("date_format", "02 Jan 2006"),
	}
	out := transform(t, d, "event,when\nlaunch,2024-03-09\n")

	assert.Contains(t, out, "09 Mar 2024")
}

func TestValidateInput_ParseError(t *testing.T) {
	c := New()
	d := &directive.Directive{Source: "/data/people.json"}

	art, errs := c.ValidateInput(d, `{"not": "an array"}`)
	assert.Nil(t, art)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "cannot parse table source")
}

func TestSortLess_NumbersBeforeStrings(t *testing.T) {
	assert.True(t, sortLess("2", "10"))
	assert.False(t, sortLess("10", "2"))
	assert.True(t, sortLess("3", "apple"))
	assert.False(t, sortLess("apple", "3"))
	assert.True(t, sortLess("apple", "banana"))
}
