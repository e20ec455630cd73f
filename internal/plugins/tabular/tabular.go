// Package tabular implements the table directive: render CSV, TSV, or
// JSON data as a markdown table, optionally passed through a small
// filter/select/order_by/offset/limit pipeline.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

const (
	selectKey        = "select"
	orderByKey       = "order_by"
	limitKey         = "limit"
	offsetKey        = "offset"
	filterKey        = "filter"
	dateFormatKey    = "date_format"
	nullStringKey    = "null_string"
	maxCellLengthKey = "max_cell_length"

	defaultLimit = -1
)

const noContentNote = "> [!NOTE]\n> No table rows to display.\n"

var supportedExtensions = map[string]struct{}{
	".csv":  {},
	".tsv":  {},
	".json": {},
}

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "table" }
func (*Capability) DirectiveType() string { return "table" }

func (*Capability) Recurses(*directive.Directive) bool { return false }

func (*Capability) ValidateDirective(d *directive.Directive) []status.Status {
	if d.Source == "" {
		return []status.Status{status.Errorf("table directive requires a source")}
	}

	ext := strings.ToLower(filepath.Ext(d.Source))
	if _, ok := supportedExtensions[ext]; !ok {
		return []status.Status{status.Errorf("unsupported table format %q. Supported: .csv, .tsv, .json", ext)}
	}

	var statuses []status.Status
	for _, key := range []string{limitKey, offsetKey, maxCellLengthKey} {
		if _, s := d.IntOption(key, 0); s != nil {
			statuses = append(statuses, *s)
		}
	}
	if _, s := selectColumns(d.StringOption(selectKey, "")); s != nil {
		statuses = append(statuses, *s)
	}
	if _, s := orderSpecs(d.StringOption(orderByKey, "")); s != nil {
		statuses = append(statuses, *s)
	}
	return statuses
}

// ValidateInput parses the tabular source during planning; the row set
// becomes the node artifact so compilation never re-parses.
func (*Capability) ValidateInput(d *directive.Directive, content string) (any, []status.Status) {
	rows, err := parseRows(content, strings.ToLower(filepath.Ext(d.Source)))
	if err != nil {
		return nil, []status.Status{status.Errorf("cannot parse table source %q: %v", filepath.Base(d.Source), err)}
	}
	return rows, nil
}

func (*Capability) Transform(node *plan.Node, _ []directive.Fragment, _ *plan.Context) (string, error) {
	rows, ok := node.Artifact.(*rowSet)
	if !ok {
		return "", fmt.Errorf("table source %q was not parsed during planning", node.Directive.Source)
	}
	if len(rows.rows) == 0 {
		return noContentNote, nil
	}

	d := node.Directive
	limit, _ := d.IntOption(limitKey, defaultLimit)
	offset, _ := d.IntOption(offsetKey, 0)
	maxCellLength, _ := d.IntOption(maxCellLengthKey, 0)

	piped, err := applyPipeline(rows, pipelineOptions{
		filter:  d.OptionsWithPrefix(filterKey),
		selects: d.StringOption(selectKey, ""),
		orderBy: d.StringOption(orderByKey, ""),
		offset:  offset,
		limit:   limit,
	})
	if err != nil {
		return "", err
	}
	if len(piped.rows) == 0 {
		return noContentNote, nil
	}

	return renderMarkdown(piped, cellFormat{
		dateFormat:    d.StringOption(dateFormatKey, ""),
		nullString:    d.StringOption(nullStringKey, ""),
		maxCellLength: maxCellLength,
	}), nil
}
