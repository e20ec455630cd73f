// Package summarize implements the extractive sentence-scoring engine
// behind the synopsis and recall capabilities: markdown-aware cleaning,
// block and sentence segmentation, interchangeable scoring algorithms, and
// deterministic top-N selection.
package summarize

import (
	"regexp"
	"strings"
)

// minSentenceWords filters out fragments too short to score meaningfully.
const minSentenceWords = 3

var (
	fencedCodeRE  = regexp.MustCompile("(?s)```+.*?```+")
	blockquoteRE  = regexp.MustCompile(`(?m)^>\s?`)
	headingRE     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldItalicRE  = regexp.MustCompile(`\*{1,3}(.*?)\*{1,3}`)
	underscoreRE  = regexp.MustCompile(`\b_{1,3}([^_]+)_{1,3}\b`)
	imageRE       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRE        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	bulletRE      = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedRE    = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	hspaceRE      = regexp.MustCompile(`[ \t]+`)
	blockSplitRE  = regexp.MustCompile(`\n{2,}`)
	sentenceEndRE = regexp.MustCompile(`(?:[.!?])\s+|\n+`)
	wordRE        = regexp.MustCompile(`\b[a-z]+\b`)
)

// Sentence is one scoring unit, carrying the index of the block it came
// from for positional decay.
type Sentence struct {
	Text  string
	Block int
}

// cleanText strips markdown syntax unsuitable for scoring: fenced code,
// table rows, blockquote and heading markers, emphasis, links, and list
// markers. Emphasis stripping is word-boundary guarded so snake_case
// identifiers with interior underscores survive intact.
func cleanText(text string) string {
	text = fencedCodeRE.ReplaceAllString(text, "")

	// Drop table rows.
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "|") {
			kept = append(kept, line)
		}
	}
	text = strings.Join(kept, "\n")

	text = blockquoteRE.ReplaceAllString(text, "")
	text = headingRE.ReplaceAllString(text, "")
	text = boldItalicRE.ReplaceAllString(text, "$1")
	text = underscoreRE.ReplaceAllString(text, "$1")
	text = imageRE.ReplaceAllString(text, "")
	text = linkRE.ReplaceAllString(text, "$1")
	text = bulletRE.ReplaceAllString(text, "")
	text = numberedRE.ReplaceAllString(text, "")

	// Collapse horizontal whitespace only; newlines remain sentence
	// boundaries.
	return strings.TrimSpace(hspaceRE.ReplaceAllString(text, " "))
}

// splitSentences segments cleaned text into sentences tagged with their
// block index. Blocks are maximal runs between blank lines; maxBlocks > 0
// caps how many are scored.
func splitSentences(text string, maxBlocks int) []Sentence {
	blocks := blockSplitRE.Split(text, -1)
	if maxBlocks > 0 && len(blocks) > maxBlocks {
		blocks = blocks[:maxBlocks]
	}

	var sentences []Sentence
	blockIdx := 0
	for _, block := range blocks {
		blockSentences := blockToSentences(block)
		if len(blockSentences) == 0 {
			continue
		}
		for _, s := range blockSentences {
			sentences = append(sentences, Sentence{Text: s, Block: blockIdx})
		}
		blockIdx++
	}
	return sentences
}

// blockToSentences splits one block on terminal punctuation and newlines,
// filtering fragments below the minimum token count.
func blockToSentences(block string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEndRE.FindAllStringIndex(block, -1) {
		// Keep the terminal punctuation with the sentence.
		end := loc[0]
		if end < len(block) && isTerminal(block[end]) {
			end++
		}
		piece := strings.TrimSpace(block[start:end])
		if len(tokenize(piece)) >= minSentenceWords {
			out = append(out, piece)
		}
		start = loc[1]
	}
	last := strings.TrimSpace(block[start:])
	if len(tokenize(last)) >= minSentenceWords {
		out = append(out, last)
	}
	return out
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

// tokenize returns lowercase ASCII word tokens.
func tokenize(text string) []string {
	return wordRE.FindAllString(strings.ToLower(text), -1)
}
