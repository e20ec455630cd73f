package tabular

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/status"
)

var (
	selectAliasRE = regexp.MustCompile(`(?i)^\s*(\w+)(?:\s+as\s+(\w+))?\s*$`)
	orderByRE     = regexp.MustCompile(`(?i)^\s*(\w+)(?:\s+(asc|desc))?\s*$`)
	filterOpRE    = regexp.MustCompile(`^(!=|<=|>=|<|>|=)\s*(.+)$`)
)

type pipelineOptions struct {
	filter  []directive.Option
	selects string
	orderBy string
	offset  int
	limit   int
}

// applyPipeline runs filter, select, order_by, then offset/limit slicing,
// in that fixed order.
func applyPipeline(set *rowSet, opts pipelineOptions) (*rowSet, error) {
	rows := set.rows
	headers := set.headers

	if len(opts.filter) > 0 {
		filtered, err := applyFilter(rows, opts.filter)
		if err != nil {
			return nil, err
		}
		rows = filtered
	}

	if opts.selects != "" {
		var err error
		rows, headers, err = applySelect(rows, headers, opts.selects)
		if err != nil {
			return nil, err
		}
	}

	if opts.orderBy != "" {
		sorted, err := applyOrderBy(rows, opts.orderBy)
		if err != nil {
			return nil, err
		}
		rows = sorted
	}

	if opts.offset > 0 {
		if opts.offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[opts.offset:]
		}
	}
	if opts.limit >= 0 && opts.limit < len(rows) {
		rows = rows[:opts.limit]
	}

	return &rowSet{headers: headers, rows: rows}, nil
}

// applyFilter keeps rows matching every condition. Conditions are ANDed;
// a bare value means equality.
func applyFilter(rows []map[string]string, conditions []directive.Option) ([]map[string]string, error) {
	var filtered []map[string]string
	for _, row := range rows {
		include := true
		for _, cond := range conditions {
			matches, err := evaluateCondition(row[cond.Key], cond.Value)
			if err != nil {
				return nil, err
			}
			if !matches {
				include = false
				break
			}
		}
		if include {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

// evaluateCondition compares numerically when both sides parse as
// numbers, lexically otherwise.
func evaluateCondition(rowValue, condition string) (bool, error) {
	op, target := "=", condition
	if m := filterOpRE.FindStringSubmatch(condition); m != nil {
		op, target = m[1], strings.TrimSpace(m[2])
	}

	if rowNum, err1 := strconv.ParseFloat(rowValue, 64); err1 == nil {
		if targetNum, err2 := strconv.ParseFloat(target, 64); err2 == nil {
			return compareNumeric(rowNum, targetNum, op)
		}
	}
	return compareString(rowValue, target, op)
}

func compareNumeric(a, b float64, op string) (bool, error) {
	switch op {
	case "=":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	}
	return false, fmt.Errorf("invalid filter operator in %q", op)
}

func compareString(a, b, op string) (bool, error) {
	switch op {
	case "=":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	}
	return false, fmt.Errorf("invalid filter operator in %q", op)
}

// applySelect projects and renames columns: "col_a, col_b as b".
func applySelect(rows []map[string]string, headers []string, selects string) ([]map[string]string, []string, error) {
	type mapping struct{ src, alias string }
	var columns []mapping
	for _, part := range strings.Split(selects, ",") {
		m := selectAliasRE.FindStringSubmatch(part)
		if m == nil {
			return nil, nil, fmt.Errorf("invalid select expression %q", strings.TrimSpace(part))
		}
		alias := m[2]
		if alias == "" {
			alias = m[1]
		}
		columns = append(columns, mapping{src: m[1], alias: alias})
	}

	available := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		available[h] = struct{}{}
	}
	for _, col := range columns {
		if _, ok := available[col.src]; !ok {
			sorted := append([]string(nil), headers...)
			sort.Strings(sorted)
			return nil, nil, fmt.Errorf("column %q not found (available: %s)", col.src, strings.Join(sorted, ", "))
		}
	}

	newHeaders := make([]string, len(columns))
	for i, col := range columns {
		newHeaders[i] = col.alias
	}

	newRows := make([]map[string]string, len(rows))
	for i, row := range rows {
		projected := make(map[string]string, len(columns))
		for _, col := range columns {
			projected[col.alias] = row[col.src]
		}
		newRows[i] = projected
	}
	return newRows, newHeaders, nil
}

// applyOrderBy sorts per "col_a desc, col_b". Sorting runs per spec in
// reverse so the first spec has the highest priority; stable sort keeps
// earlier orderings as tie-breaks.
func applyOrderBy(rows []map[string]string, orderBy string) ([]map[string]string, error) {
	type spec struct {
		col  string
		desc bool
	}
	var specs []spec
	for _, part := range strings.Split(orderBy, ",") {
		m := orderByRE.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("invalid order_by expression %q", strings.TrimSpace(part))
		}
		specs = append(specs, spec{col: m[1], desc: strings.EqualFold(m[2], "desc")})
	}

	sorted := append([]map[string]string(nil), rows...)
	for i := len(specs) - 1; i >= 0; i-- {
		s := specs[i]
		sort.SliceStable(sorted, func(a, b int) bool {
			less := sortLess(sorted[a][s.col], sorted[b][s.col])
			if s.desc {
				return sortLess(sorted[b][s.col], sorted[a][s.col])
			}
			return less
		})
	}
	return sorted, nil
}

// sortLess orders numeric values before strings when mixed; within each
// group natural order applies.
func sortLess(a, b string) bool {
	aNum, aErr := strconv.ParseFloat(a, 64)
	bNum, bErr := strconv.ParseFloat(b, 64)
	switch {
	case aErr == nil && bErr == nil:
		return aNum < bNum
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

// selectColumns validates a select expression without applying it.
func selectColumns(selects string) ([]string, *status.Status) {
	if selects == "" {
		return nil, nil
	}
	var cols []string
	for _, part := range strings.Split(selects, ",") {
		m := selectAliasRE.FindStringSubmatch(part)
		if m == nil {
			s := status.Errorf("invalid select expression %q", strings.TrimSpace(part))
			return nil, &s
		}
		cols = append(cols, m[1])
	}
	return cols, nil
}

// orderSpecs validates an order_by expression without applying it.
func orderSpecs(orderBy string) ([]string, *status.Status) {
	if orderBy == "" {
		return nil, nil
	}
	var cols []string
	for _, part := range strings.Split(orderBy, ",") {
		m := orderByRE.FindStringSubmatch(part)
		if m == nil {
			s := status.Errorf("invalid order_by expression %q", strings.TrimSpace(part))
			return nil, &s
		}
		cols = append(cols, m[1])
	}
	return cols, nil
}
