// Package file implements the file directive, the workhorse embed.
// A markdown source without a selection option is compiled recursively
// as a child document; anything else is embedded as a code block, with
// optional line-range, named-region, or symbol selection.
package file

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/embedm/internal/compile"
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/extract"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
	"github.com/leapstack-labs/embedm/internal/symbols"
)

const (
	linesKey         = "lines"
	regionKey        = "region"
	symbolKey        = "symbol"
	titleKey         = "title"
	lineNumbersKey   = "line_numbers"
	stripCommentsKey = "strip_comments"

	regionStartSetting = "region_start"
	regionEndSetting   = "region_end"
)

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "file" }
func (*Capability) DirectiveType() string { return "file" }

// A markdown source embeds as a compiled child document unless a
// selection option narrows it to a snippet.
func (*Capability) Recurses(d *directive.Directive) bool {
	if !strings.EqualFold(filepath.Ext(d.Source), ".md") {
		return false
	}
	for _, key := range []string{linesKey, regionKey, symbolKey} {
		if _, ok := d.Option(key); ok {
			return false
		}
	}
	return true
}

func (*Capability) ValidateDirective(d *directive.Directive) []status.Status {
	var statuses []status.Status

	if d.Source == "" {
		statuses = append(statuses, status.Errorf("file directive requires a source"))
	}

	selections := 0
	for _, key := range []string{linesKey, regionKey, symbolKey} {
		if _, ok := d.Option(key); ok {
			selections++
		}
	}
	if selections > 1 {
		statuses = append(statuses, status.Errorf("options %q, %q and %q are mutually exclusive",
			linesKey, regionKey, symbolKey))
	}

	if lines, ok := d.Option(linesKey); ok && !extract.ValidLineRange(lines) {
		statuses = append(statuses, status.Errorf("invalid line range %q (expected N, A..B, A.., or ..B)", lines))
	}

	if symbol, ok := d.Option(symbolKey); ok {
		if symbol == "" {
			statuses = append(statuses, status.Errorf("%q must not be empty", symbolKey))
		}
		if _, ok := symbols.ConfigForPath(d.Source); !ok {
			statuses = append(statuses, status.Errorf("no symbol extraction support for %q (supported extensions: %s)",
				filepath.Ext(d.Source), strings.Join(symbols.SupportedExtensions(), ", ")))
		}
	}

	if _, s := d.BoolOption(stripCommentsKey, false); s != nil {
		statuses = append(statuses, *s)
	}

	if ln, ok := d.Option(lineNumbersKey); ok && ln != "text" && ln != "false" && ln != "true" {
		statuses = append(statuses, status.Errorf("%q must be \"text\", \"true\" or \"false\", got %q", lineNumbersKey, ln))
	}

	return statuses
}

func (c *Capability) Transform(node *plan.Node, _ []directive.Fragment, ctx *plan.Context) (string, error) {
	d := node.Directive

	// recursive markdown embed: the planner already built the subtree
	if node.Document != nil {
		return withTitle(d, compile.Compile(node, ctx)), nil
	}

	content, errs := ctx.Cache.GetFile(d.Source)
	if len(errs) > 0 {
		return "", fmt.Errorf("cannot read %q", d.Source)
	}

	snippet, startLine, err := selectContent(d, content, ctx)
	if err != nil {
		return "", err
	}

	if strip, _ := d.BoolOption(stripCommentsKey, false); strip {
		if lang, ok := symbols.ConfigForPath(d.Source); ok {
			snippet = strings.Split(symbols.FilterComments(strings.Join(snippet, "\n"), lang.Comments), "\n")
		}
	}

	snippet = extract.Dedent(snippet)

	body := strings.Join(snippet, "\n")
	if numberStyle(d) == "text" {
		body = numberLines(snippet, startLine)
	}

	if strings.EqualFold(filepath.Ext(d.Source), ".md") {
		return withTitle(d, body), nil
	}
	return withTitle(d, fmt.Sprintf("```%s\n%s\n```", langTag(d.Source), strings.TrimRight(body, "\n"))), nil
}

// selectContent applies the one selection option, returning the chosen
// lines and the 1-based number of the first line.
func selectContent(d *directive.Directive, content string, ctx *plan.Context) ([]string, int, error) {
	if lines, ok := d.Option(linesKey); ok {
		selected, valid := extract.LineRange(content, lines)
		if !valid {
			return nil, 0, fmt.Errorf("invalid line range %q in %q", lines, filepath.Base(d.Source))
		}
		return selected, rangeStart(lines), nil
	}

	if region, ok := d.Option(regionKey); ok {
		startTemplate, _ := ctx.Setting("file", regionStartSetting)
		endTemplate, _ := ctx.Setting("file", regionEndSetting)
		selected, found, err := extract.Region(content, region, startTemplate, endTemplate)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			return nil, 0, fmt.Errorf("region %q not found in %q", region, filepath.Base(d.Source))
		}
		return selected, 1, nil
	}

	if symbol, ok := d.Option(symbolKey); ok {
		lang, ok := symbols.ConfigForPath(d.Source)
		if !ok {
			return nil, 0, fmt.Errorf("no symbol extraction support for %q", filepath.Ext(d.Source))
		}
		text, extractStatuses := symbols.ExtractText(content, symbol, lang)
		if status.HasLevel(extractStatuses, status.Error) {
			return nil, 0, fmt.Errorf("%s", statusText(extractStatuses))
		}
		return strings.Split(text, "\n"), 1, nil
	}

	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n"), 1, nil
}

func rangeStart(rangeExpr string) int {
	start := 1
	if n, err := fmt.Sscanf(rangeExpr, "%d", &start); n == 0 || err != nil {
		return 1
	}
	return start
}

func numberStyle(d *directive.Directive) string {
	ln, ok := d.Option(lineNumbersKey)
	if !ok {
		return ""
	}
	if ln == "true" {
		return "text"
	}
	return ln
}

func numberLines(lines []string, start int) string {
	width := len(fmt.Sprint(start + len(lines) - 1))
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fmt.Sprintf("%*d: %s", width, start+i, line)
	}
	return strings.Join(out, "\n")
}

func withTitle(d *directive.Directive, body string) string {
	if title, ok := d.Option(titleKey); ok && title != "" {
		return fmt.Sprintf("**%s**\n\n%s", title, body)
	}
	return body
}

func langTag(source string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(source)), ".")
	if ext == "" {
		return "text"
	}
	return ext
}

func statusText(statuses []status.Status) string {
	msgs := make([]string, 0, len(statuses))
	for _, s := range status.Filter(statuses, status.Error) {
		msgs = append(msgs, s.Description)
	}
	return strings.Join(msgs, "; ")
}
