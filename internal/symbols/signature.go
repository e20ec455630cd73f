package symbols

import "strings"

// paramModifiers are stripped from declared parameters before type
// comparison. Matching is case-insensitive.
var paramModifiers = []string{"ref ", "out ", "in ", "params ", "this ", "final "}

// maxSignatureLines bounds how far a declaration's parameter list may wrap.
const maxSignatureLines = 10

// requestedParams normalizes a request's signature into a parameter type
// list. nil means no signature was given (first match wins); an empty
// slice means an explicit empty "()" was requested.
func requestedParams(signature string, hasParens bool) []string {
	if !hasParens {
		return nil
	}
	if strings.TrimSpace(signature) == "" {
		return []string{}
	}
	return splitParams(signature)
}

// splitParams splits a parameter string on commas, ignoring commas nested
// inside angle brackets so generic type arguments stay intact.
func splitParams(paramString string) []string {
	var params []string
	var current strings.Builder
	depth := 0

	for i := 0; i < len(paramString); i++ {
		c := paramString[i]
		switch {
		case c == '<':
			depth++
			current.WriteByte(c)
		case c == '>':
			depth--
			current.WriteByte(c)
		case c == ',' && depth == 0:
			params = append(params, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if last := strings.TrimSpace(current.String()); last != "" {
		params = append(params, last)
	}
	return params
}

// typeName extracts the type from a "type name" or bare "type" parameter,
// splitting on the last space outside angle brackets.
func typeName(param string) string {
	param = strings.TrimSpace(param)
	depth, lastSpace := 0, -1

	for i := 0; i < len(param); i++ {
		switch param[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ' ':
			if depth == 0 {
				lastSpace = i
			}
		}
	}

	if lastSpace > 0 {
		return param[:lastSpace]
	}
	return param
}

// declaredParamTypes reads the parameter type list of the declaration at
// declIdx, scanning forward a bounded number of lines to collect a wrapped
// parameter list. Returns nil when no complete list is found.
func declaredParamTypes(lines []string, declIdx int) []string {
	var collected strings.Builder
	foundOpen := false
	depth := 0

	limit := declIdx + maxSignatureLines
	if limit > len(lines) {
		limit = len(lines)
	}

	for idx := declIdx; idx < limit; idx++ {
		for i := 0; i < len(lines[idx]); i++ {
			c := lines[idx][i]
			if !foundOpen {
				if c == '(' {
					foundOpen = true
					depth = 1
				}
				continue
			}
			switch c {
			case '(':
				depth++
				collected.WriteByte(c)
			case ')':
				depth--
				if depth == 0 {
					return normalizeParams(collected.String())
				}
				collected.WriteByte(c)
			default:
				collected.WriteByte(c)
			}
		}
		collected.WriteByte(' ')
	}

	return nil
}

// normalizeParams strips default-value clauses and modifier tokens from
// each declared parameter and reduces it to its type name.
func normalizeParams(paramStr string) []string {
	paramStr = strings.TrimSpace(paramStr)
	if paramStr == "" {
		return []string{}
	}

	var types []string
	for _, p := range splitParams(paramStr) {
		if p == "" {
			continue
		}
		if eq := strings.IndexByte(p, '='); eq != -1 {
			p = strings.TrimSpace(p[:eq])
		}
		lower := strings.ToLower(p)
		for _, mod := range paramModifiers {
			if strings.HasPrefix(lower, mod) {
				p = strings.TrimSpace(p[len(mod):])
				break
			}
		}
		types = append(types, typeName(p))
	}
	if types == nil {
		return []string{}
	}
	return types
}

// signatureMatches reports whether the declaration at declIdx accepts the
// requested parameter type list. Comparison is case-insensitive and allows
// the declared type to be namespace-qualified ("string" matches
// "System.String").
func signatureMatches(lines []string, declIdx int, requested []string) bool {
	declared := declaredParamTypes(lines, declIdx)
	if declared == nil || len(declared) != len(requested) {
		return false
	}
	for i := range requested {
		req := strings.ToLower(strings.TrimSpace(requested[i]))
		decl := strings.ToLower(strings.TrimSpace(declared[i]))
		if req != decl && !strings.HasSuffix(decl, "."+req) {
			return false
		}
	}
	return true
}
