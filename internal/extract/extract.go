// Package extract selects portions of file content by 1-based line
// range expressions or by named region markers placed inside comments.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Default marker templates. The {tag} placeholder is replaced by the
// region name when matching.
const (
	DefaultRegionStart = "md.start:{tag}"
	DefaultRegionEnd   = "md.end:{tag}"
)

// regionCommentPrefix matches the comment opener a marker line must start
// with, so markers in live code or prose are never honored.
const regionCommentPrefix = `(?:#|//|<!--|/\*)`

var (
	singleLineRE = regexp.MustCompile(`^\d+$`)
	lineRangeRE  = regexp.MustCompile(`^(\d*)\.\.(\d*)$`)
)

// compileRegionPattern builds a marker matcher from a template containing
// {tag}. Text before {tag} becomes a literal prefix that must follow the
// comment opener, e.g. "md.start:{tag}" matches "# md.start: intro".
func compileRegionPattern(template string) (*regexp.Regexp, error) {
	prefix, _, found := strings.Cut(template, "{tag}")
	if !found {
		return nil, fmt.Errorf("region template %q missing {tag} placeholder", template)
	}
	return regexp.Compile(`(?i)^\s*` + regionCommentPrefix + `\s*` + regexp.QuoteMeta(prefix) + `\s*(\S+)`)
}

var (
	defaultRegionStartRE = regexp.MustCompile(`(?i)^\s*` + regionCommentPrefix + `\s*` + regexp.QuoteMeta("md.start:") + `\s*(\S+)`)
	defaultRegionEndRE   = regexp.MustCompile(`(?i)^\s*` + regionCommentPrefix + `\s*` + regexp.QuoteMeta("md.end:") + `\s*(\S+)`)
)

func matchesRegion(line, name string, pattern *regexp.Regexp) bool {
	m := pattern.FindStringSubmatch(line)
	return m != nil && m[1] == name
}

// Region extracts the lines between start and end markers for the named
// region, exclusive of the marker lines themselves. Markers must sit
// inside a comment. Returns false when the region is absent or the start
// marker is never terminated.
func Region(content, regionName, startTemplate, endTemplate string) ([]string, bool, error) {
	startPat := defaultRegionStartRE
	endPat := defaultRegionEndRE
	var err error
	if startTemplate != "" && startTemplate != DefaultRegionStart {
		if startPat, err = compileRegionPattern(startTemplate); err != nil {
			return nil, false, err
		}
	}
	if endTemplate != "" && endTemplate != DefaultRegionEnd {
		if endPat, err = compileRegionPattern(endTemplate); err != nil {
			return nil, false, err
		}
	}

	lines := splitLines(content)
	name := strings.TrimSpace(regionName)
	startIdx := -1

	for i, line := range lines {
		if startIdx == -1 {
			if matchesRegion(line, name, startPat) {
				startIdx = i + 1
			}
		} else if matchesRegion(line, name, endPat) {
			return lines[startIdx:i], true, nil
		}
	}
	return nil, false, nil
}

// LineRange extracts lines using 1-based .. notation: "10" is a single
// line, "5..10" an inclusive range, "10.." from a line to the end, and
// "..10" from the start. Returns false when the expression is malformed
// or the start is out of bounds.
func LineRange(content, rangeExpr string) ([]string, bool) {
	lines := splitLines(content)
	total := len(lines)

	if singleLineRE.MatchString(rangeExpr) {
		n, _ := strconv.Atoi(rangeExpr)
		if n < 1 || n > total {
			return nil, false
		}
		return lines[n-1 : n], true
	}

	m := lineRangeRE.FindStringSubmatch(rangeExpr)
	if m == nil {
		return nil, false
	}

	start, end := 1, total
	if m[1] != "" {
		start, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		end, _ = strconv.Atoi(m[2])
	}
	if start < 1 || start > total || end < start {
		return nil, false
	}
	if end > total {
		end = total
	}
	return lines[start-1 : end], true
}

// ValidLineRange reports whether the expression is syntactically a line
// range. It does not check bounds against any content.
func ValidLineRange(rangeExpr string) bool {
	return singleLineRE.MatchString(rangeExpr) || lineRangeRE.MatchString(rangeExpr)
}

// Dedent removes the longest common leading whitespace shared by all
// non-blank lines.
func Dedent(lines []string) []string {
	margin := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			margin = indent
			first = false
			continue
		}
		margin = commonPrefix(margin, indent)
		if margin == "" {
			return lines
		}
	}
	if margin == "" {
		return lines
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = ""
			continue
		}
		out[i] = strings.TrimPrefix(line, margin)
	}
	return out
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
