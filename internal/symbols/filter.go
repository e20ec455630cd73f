package symbols

import "strings"

type filterState struct {
	inBlockComment bool
	inString       bool
	stringChar     byte
}

// FilterComments removes comments from code content using the language's
// comment style. Full-line comments are dropped, trailing inline
// comments are stripped, blank lines survive, and comment-like sequences
// inside string literals are left alone.
func FilterComments(content string, style CommentStyle) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	var state filterState
	var out []string
	for _, line := range lines {
		filtered, keep := stripLineComment(line, style, &state)
		if keep {
			out = append(out, filtered)
		}
	}
	return strings.Join(out, "\n")
}

// stripLineComment filters one line. keep is false when the whole line
// should be dropped (comment-only, or fully inside a block comment).
func stripLineComment(line string, style CommentStyle, state *filterState) (string, bool) {
	if !state.inBlockComment && strings.TrimSpace(line) == "" {
		return line, true
	}

	var real []byte
	i := 0
scan:
	for i < len(line) {
		switch {
		case state.inBlockComment:
			end := style.BlockCommentEnd
			if end != "" && strings.HasPrefix(line[i:], end) {
				state.inBlockComment = false
				i += len(end)
			} else {
				i++
			}
		case state.inString:
			if line[i] == '\\' {
				real = append(real, line[i])
				if i+1 < len(line) {
					real = append(real, line[i+1])
				}
				i += 2
				continue
			}
			if line[i] == state.stringChar {
				state.inString = false
				state.stringChar = 0
			}
			real = append(real, line[i])
			i++
		default:
			if lc := style.LineComment; lc != "" && strings.HasPrefix(line[i:], lc) {
				break scan
			}
			if bc := style.BlockCommentStart; bc != "" && strings.HasPrefix(line[i:], bc) {
				state.inBlockComment = true
				i += len(bc)
				continue
			}
			if strings.IndexByte(style.StringDelimiters, line[i]) >= 0 {
				state.inString = true
				state.stringChar = line[i]
			}
			real = append(real, line[i])
			i++
		}
	}

	filtered := strings.TrimRight(string(real), " \t")
	if strings.TrimSpace(filtered) == "" {
		return "", false
	}
	return filtered, true
}
