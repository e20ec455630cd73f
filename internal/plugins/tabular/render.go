package tabular

import (
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type cellFormat struct {
	dateFormat    string
	nullString    string
	maxCellLength int
}

// renderMarkdown writes the row set as a GFM table.
func renderMarkdown(set *rowSet, format cellFormat) string {
	t := table.NewWriter()

	headerRow := make(table.Row, len(set.headers))
	for i, h := range set.headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range set.rows {
		cells := make(table.Row, len(set.headers))
		for i, h := range set.headers {
			cells[i] = formatCell(row[h], format)
		}
		t.AppendRow(cells)
	}

	return t.RenderMarkdown() + "\n"
}

func formatCell(value string, format cellFormat) string {
	if value == "" {
		return format.nullString
	}

	if format.dateFormat != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			value = ts.Format(format.dateFormat)
		} else if ts, err := time.Parse("2006-01-02", value); err == nil {
			value = ts.Format(format.dateFormat)
		}
	}

	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", " ")

	if format.maxCellLength > 0 {
		// truncate on rune boundaries, a byte slice could split UTF-8
		if runes := []rune(value); len(runes) > format.maxCellLength {
			value = string(runes[:format.maxCellLength-1]) + "…"
		}
	}
	return value
}
