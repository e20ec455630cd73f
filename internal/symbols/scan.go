package symbols

import "strings"

// scanState tracks comment/string state across lines. It is an explicit
// enumerated state machine so the scanning loop stays auditable.
type scanMode int

const (
	modeCode scanMode = iota
	modeBlockComment
	modeString
	modeTripleString
)

type scanState struct {
	mode        scanMode
	stringChar  byte
	tripleDelim string
}

// scanLine returns the code portion of a line: every character that is not
// inside a string literal or comment. The state carries block comments and
// triple-quoted strings across line boundaries. While in a non-code state
// no pattern matching may occur, which is what guarantees identifiers in
// comments or strings are never mistaken for declarations.
func scanLine(line string, st *scanState, style CommentStyle) string {
	var real strings.Builder
	i := 0

	for i < len(line) {
		switch st.mode {
		case modeBlockComment:
			end := style.BlockCommentEnd
			if end != "" && strings.HasPrefix(line[i:], end) {
				st.mode = modeCode
				i += len(end)
			} else {
				i++
			}

		case modeTripleString:
			if strings.HasPrefix(line[i:], st.tripleDelim) {
				i += len(st.tripleDelim)
				st.mode = modeCode
				st.tripleDelim = ""
			} else {
				i++
			}

		case modeString:
			if line[i] == '\\' {
				i += 2
			} else {
				if line[i] == st.stringChar {
					st.mode = modeCode
					st.stringChar = 0
				}
				i++
			}

		default: // modeCode
			if lc := style.LineComment; lc != "" && strings.HasPrefix(line[i:], lc) {
				return real.String()
			}
			if bs := style.BlockCommentStart; bs != "" && strings.HasPrefix(line[i:], bs) {
				st.mode = modeBlockComment
				i += len(bs)
				continue
			}
			if style.TripleQuote {
				if d := tripleAt(line, i); d != "" {
					st.mode = modeTripleString
					st.tripleDelim = d
					i += 3
					continue
				}
			}
			if c := line[i]; strings.IndexByte(style.StringDelimiters, c) >= 0 {
				st.mode = modeString
				st.stringChar = c
				i++
				continue
			}
			real.WriteByte(line[i])
			i++
		}
	}

	// Single-quote strings never span lines; an unterminated one would
	// otherwise poison the rest of the scan.
	if st.mode == modeString {
		st.mode = modeCode
		st.stringChar = 0
	}

	return real.String()
}

func tripleAt(line string, i int) string {
	for _, d := range []string{`"""`, "'''"} {
		if strings.HasPrefix(line[i:], d) {
			return d
		}
	}
	return ""
}

// countDelims returns open minus close occurrences in code text.
func countDelims(real string, open, close byte) int {
	count := 0
	for i := 0; i < len(real); i++ {
		switch real[i] {
		case open:
			count++
		case close:
			count--
		}
	}
	return count
}

// blockEnd resolves the end line (inclusive) of the block starting at
// startIdx, per the pattern's block-closing style. Returns -1 when the
// block does not terminate before end of input.
func blockEnd(lines []string, startIdx int, style CommentStyle, p Pattern) int {
	switch p.Block {
	case BlockBrace:
		return delimBlockEnd(lines, startIdx, style, '{', '}')
	case BlockParen:
		return delimBlockEnd(lines, startIdx, style, '(', ')')
	case BlockIndent:
		return indentBlockEnd(lines, startIdx)
	case BlockKeyword:
		return keywordBlockEnd(lines, startIdx, style, p.EndKeyword)
	case BlockRestOfFile:
		return len(lines) - 1
	default:
		return -1
	}
}

// delimBlockEnd scans from startIdx for the first opening delimiter, then
// tracks nesting depth until it closes, skipping delimiters inside strings
// and comments.
func delimBlockEnd(lines []string, startIdx int, style CommentStyle, open, close byte) int {
	depth := 0
	foundOpening := false
	st := &scanState{}

	for idx := startIdx; idx < len(lines); idx++ {
		real := scanLine(lines[idx], st, style)
		for i := 0; i < len(real); i++ {
			switch real[i] {
			case open:
				depth++
				foundOpening = true
			case close:
				depth--
			}
		}
		if foundOpening && depth == 0 {
			return idx
		}
	}
	return -1
}

// indentBlockEnd captures every subsequent line indented strictly deeper
// than the declaration line. Blank lines do not terminate the block; the
// span ends at the last non-blank deeper-indented line.
func indentBlockEnd(lines []string, startIdx int) int {
	declIndent := indentWidth(lines[startIdx])
	end := startIdx

	for idx := startIdx + 1; idx < len(lines); idx++ {
		if strings.TrimSpace(lines[idx]) == "" {
			continue
		}
		if indentWidth(lines[idx]) <= declIndent {
			break
		}
		end = idx
	}
	return end
}

func indentWidth(line string) int {
	width := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

// keywordBlockEnd scans forward for the configured terminating keyword as
// a standalone token in code text (not comment or string state).
func keywordBlockEnd(lines []string, startIdx int, style CommentStyle, keyword string) int {
	st := &scanState{}
	for idx := startIdx; idx < len(lines); idx++ {
		real := scanLine(lines[idx], st, style)
		if idx == startIdx {
			continue // the declaration line itself never terminates
		}
		if hasToken(real, keyword) {
			return idx
		}
	}
	return -1
}

// hasToken reports whether word appears in text delimited by non-word
// characters.
func hasToken(text, word string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(text[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(text) || !isWordByte(text[afterIdx])
		if before && after {
			return true
		}
		start = i + len(word)
	}
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// blockBodyStart returns the first line of the searchable body region for
// a resolved block, used when descending into nested scopes.
func blockBodyStart(lines []string, startIdx int, style CommentStyle, p Pattern) int {
	if p.Block == BlockBrace {
		st := &scanState{}
		for idx := startIdx; idx < len(lines); idx++ {
			real := scanLine(lines[idx], st, style)
			if strings.IndexByte(real, '{') >= 0 {
				return idx + 1
			}
		}
	}
	return startIdx + 1
}
