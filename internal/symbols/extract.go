package symbols

import (
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/embedm/internal/status"
)

// Span is the resolved body of a declaration, as inclusive 0-based line
// indexes into the file the extraction ran against. Nested matches are
// always reported in the outer file's coordinate space.
type Span struct {
	StartLine int
	EndLine   int
}

// symbolSpec is a parsed symbol request: dotted scope parts plus an
// optional parenthesized parameter-type signature on the final part.
type symbolSpec struct {
	parts     []string
	signature string
	hasParens bool
}

// Extract locates a named declaration in content and returns its span.
// The name may be dotted for scoped lookup ("Outer.Inner.method") and the
// final segment may carry a signature for overload disambiguation
// ("add(int, int)"). Failures are reported as ERROR statuses naming the
// failing segment and the declarations actually available at that scope.
func Extract(content, symbolName string, lang *Language) (Span, []status.Status) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	spec := parseSymbolSpec(symbolName)

	rangeStart, rangeEnd := 0, len(lines)-1
	scope := "file"

	for i := 0; i < len(spec.parts); {
		matchedPart, res := findWithCoalescing(lines, lang, spec, i, rangeStart, rangeEnd)
		if res == nil {
			return Span{}, []status.Status{notFoundStatus(lines, lang, spec, i, rangeStart, rangeEnd, scope)}
		}

		if matchedPart == len(spec.parts)-1 {
			return Span{StartLine: res.startIdx, EndLine: res.endIdx}, nil
		}

		// Descend: the body just resolved becomes the search region for
		// the next segment.
		rangeStart = blockBodyStart(lines, res.startIdx, lang.Comments, res.pattern)
		rangeEnd = res.endIdx
		scope = strings.Join(spec.parts[:matchedPart+1], ".")
		i = matchedPart + 1
	}

	return Span{}, []status.Status{status.Errorf("symbol %q not found", symbolName)}
}

// ExtractText is Extract with the span resolved to its text.
func ExtractText(content, symbolName string, lang *Language) (string, []status.Status) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	span, statuses := Extract(content, symbolName, lang)
	if status.HasLevel(statuses, status.Error) {
		return "", statuses
	}
	return strings.Join(lines[span.StartLine:span.EndLine+1], "\n"), statuses
}

// parseSymbolSpec splits a symbol request into dotted parts and an
// optional trailing "(...)" signature.
func parseSymbolSpec(symbolName string) symbolSpec {
	name := strings.TrimSpace(symbolName)

	if strings.HasSuffix(name, ")") {
		depth := 0
		for i := len(name) - 1; i >= 0; i-- {
			switch name[i] {
			case ')':
				depth++
			case '(':
				depth--
				if depth == 0 && i > 0 {
					return symbolSpec{
						parts:     strings.Split(name[:i], "."),
						signature: name[i+1 : len(name)-1],
						hasParens: true,
					}
				}
			}
			if depth == 0 {
				break
			}
		}
	}

	return symbolSpec{parts: strings.Split(name, ".")}
}

type findResult struct {
	startIdx int
	endIdx   int
	pattern  Pattern
}

// findWithCoalescing searches for spec.parts[i], greedily coalescing
// subsequent parts into a single dotted name so that declarations like
// "namespace Outer.Inner" match the request "Outer.Inner.Member". Longest
// names are tried first: a bare prefix like "Outer" would otherwise match
// the dotted declaration and send the descent into the wrong scope.
// Returns the index of the last part covered by the match.
func findWithCoalescing(lines []string, lang *Language, spec symbolSpec, i, rangeStart, rangeEnd int) (int, *findResult) {
	restrict := i > 0

	for j := len(spec.parts) - 1; j >= i; j-- {
		part := strings.Join(spec.parts[i:j+1], ".")
		sig, parens := segmentSignature(spec, j)
		if res := findSymbolInRange(lines, lang, part, rangeStart, rangeEnd, sig, parens, restrict, j < len(spec.parts)-1); res != nil {
			return j, res
		}
	}

	return 0, nil
}

// segmentSignature returns the requested signature for a segment; only the
// final segment ever carries one.
func segmentSignature(spec symbolSpec, i int) (string, bool) {
	if i == len(spec.parts)-1 {
		return spec.signature, spec.hasParens
	}
	return "", false
}

// findSymbolInRange searches the line range for a declaration of name.
// With restrictDepth, only declarations at brace depth zero of the region
// match (direct members). With nestableOnly, only patterns marked nestable
// are tried: non-terminal scope segments must be containers.
func findSymbolInRange(lines []string, lang *Language, name string, rangeStart, rangeEnd int, signature string, hasParens, restrictDepth, nestableOnly bool) *findResult {
	requested := requestedParams(signature, hasParens)

	for _, p := range lang.Patterns {
		if nestableOnly && !p.Nestable {
			continue
		}
		re, err := regexp.Compile(strings.ReplaceAll(p.Template, "{name}", regexp.QuoteMeta(name)))
		if err != nil {
			continue
		}

		st := &scanState{}
		depth := 0

		for idx := rangeStart; idx <= rangeEnd && idx < len(lines); idx++ {
			// Matching runs against the code portion only, so a
			// declaration-shaped line inside a comment or string never
			// counts as a declaration.
			real := scanLine(lines[idx], st, lang.Comments)
			atDepth := !restrictDepth || depth == 0

			if atDepth && re.MatchString(real) {
				if requested == nil || signatureMatches(lines, idx, requested) {
					if end := blockEnd(lines, idx, lang.Comments, p); end >= 0 {
						return &findResult{startIdx: idx, endIdx: end, pattern: p}
					}
				}
			}

			depth += countDelims(real, '{', '}')
		}
	}

	return nil
}

// notFoundStatus builds the failure diagnostic for a segment, listing the
// sibling declarations that do exist at that scope. A request with an
// explicit signature that matched a name but no overload is reported as an
// overload failure, never silently resolved to another candidate.
func notFoundStatus(lines []string, lang *Language, spec symbolSpec, i, rangeStart, rangeEnd int, scope string) status.Status {
	segment := spec.parts[i]
	sig, parens := segmentSignature(spec, i)

	if parens {
		// Does the bare name exist? Then the signature is what failed.
		if res := findSymbolInRange(lines, lang, segment, rangeStart, rangeEnd, "", false, i > 0, false); res != nil {
			return status.Errorf("no overload of %q matching (%s) in %s", segment, sig, scope)
		}
	}

	siblings := siblingNames(lines, lang, rangeStart, rangeEnd, i > 0)
	if len(siblings) > 0 {
		return status.Errorf("symbol %q not found in %s (available: %s)", segment, scope, strings.Join(siblings, ", "))
	}
	return status.Errorf("symbol %q not found in %s", segment, scope)
}

// siblingNames enumerates the declaration names visible in a region by
// running every pattern with a generic name capture.
func siblingNames(lines []string, lang *Language, rangeStart, rangeEnd int, restrictDepth bool) []string {
	seen := make(map[string]struct{})

	for _, p := range lang.Patterns {
		re, err := regexp.Compile(strings.ReplaceAll(p.Template, "{name}", `([A-Za-z_][\w.]*)`))
		if err != nil {
			continue
		}

		st := &scanState{}
		depth := 0
		for idx := rangeStart; idx <= rangeEnd && idx < len(lines); idx++ {
			real := scanLine(lines[idx], st, lang.Comments)
			if !restrictDepth || depth == 0 {
				if m := re.FindStringSubmatch(real); m != nil {
					seen[m[1]] = struct{}{}
				}
			}
			depth += countDelims(real, '{', '}')
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
