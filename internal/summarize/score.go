package summarize

import "sort"

// Scoring algorithm names accepted by the synopsis capability.
const (
	AlgorithmFrequency = "frequency"
	AlgorithmLuhn      = "luhn"
)

// ValidAlgorithms lists the selectable scoring algorithms.
var ValidAlgorithms = []string{AlgorithmFrequency, AlgorithmLuhn}

// luhnWindow is the maximum gap between significant words that still
// counts as one cluster.
const luhnWindow = 5

// Options controls cleaning, scoring, and selection.
type Options struct {
	// MaxSentences is the number of sentences to select (top-N).
	MaxSentences int
	// Algorithm selects the scorer: AlgorithmFrequency or AlgorithmLuhn.
	Algorithm string
	// Language selects the stopword list ("en", "nl", or any matching tag).
	Language string
	// Sections caps scoring input to the first N blocks; 0 means unlimited.
	Sections int
}

// Result is a scored selection. Sentences are in original document order,
// never score order.
type Result struct {
	Sentences []string
	// Fallback is set when a recall query overlapped nothing and the
	// frequency algorithm was used instead.
	Fallback bool
}

// Summarize scores text with the configured algorithm and returns the
// top sentences. Re-running on identical input always yields an identical
// selection and ordering.
func Summarize(text string, opts Options) Result {
	sentences := splitSentences(cleanText(text), opts.Sections)
	if len(sentences) == 0 {
		return Result{}
	}

	stop := stopwordsFor(opts.Language)
	tokens := tokenizeAll(sentences)

	var scores []float64
	if opts.Algorithm == AlgorithmLuhn {
		scores = scoreLuhn(tokens, stop)
	} else {
		scores = scoreFrequency(tokens, stop)
	}

	return Result{Sentences: selectTop(sentences, scores, opts.MaxSentences)}
}

// Recall scores text by query-token overlap. When no sentence in the
// whole input overlaps the query, it deterministically falls back to the
// frequency algorithm and flags the result, so output is never empty.
func Recall(text, query string, opts Options) Result {
	sentences := splitSentences(cleanText(text), opts.Sections)
	if len(sentences) == 0 {
		return Result{}
	}

	stop := stopwordsFor(opts.Language)
	tokens := tokenizeAll(sentences)

	queryTokens := make(map[string]struct{})
	for _, t := range tokenize(query) {
		if _, isStop := stop[t]; !isStop {
			queryTokens[t] = struct{}{}
		}
	}

	scores := scoreQueryOverlap(tokens, queryTokens)
	fallback := allZero(scores)
	if fallback {
		scores = scoreFrequency(tokens, stop)
	}

	return Result{Sentences: selectTop(sentences, scores, opts.MaxSentences), Fallback: fallback}
}

func tokenizeAll(sentences []Sentence) [][]string {
	tokens := make([][]string, len(sentences))
	for i, s := range sentences {
		tokens[i] = tokenize(s.Text)
	}
	return tokens
}

// buildWordFreq counts significant-word document frequencies across all
// sentences.
func buildWordFreq(tokens [][]string, stop map[string]struct{}) map[string]int {
	freq := make(map[string]int)
	for _, words := range tokens {
		for _, w := range words {
			if _, isStop := stop[w]; !isStop {
				freq[w]++
			}
		}
	}
	return freq
}

// scoreFrequency scores each sentence as the sum of its significant-word
// document frequencies, normalized by sentence token count.
func scoreFrequency(tokens [][]string, stop map[string]struct{}) []float64 {
	freq := buildWordFreq(tokens, stop)
	scores := make([]float64, len(tokens))
	for i, words := range tokens {
		if len(words) == 0 {
			continue
		}
		sum := 0
		for _, w := range words {
			if _, isStop := stop[w]; !isStop {
				sum += freq[w]
			}
		}
		scores[i] = float64(sum) / float64(len(words))
	}
	return scores
}

// scoreLuhn scores each sentence by its densest cluster of significant
// words (above-average document frequency) within the sliding window.
func scoreLuhn(tokens [][]string, stop map[string]struct{}) []float64 {
	freq := buildWordFreq(tokens, stop)
	scores := make([]float64, len(tokens))

	significant := significantWords(freq)
	if len(significant) == 0 {
		return scores
	}

	for i, words := range tokens {
		var positions []int
		for pos, w := range words {
			if _, ok := significant[w]; ok {
				positions = append(positions, pos)
			}
		}
		scores[i] = bestClusterScore(positions)
	}
	return scores
}

// significantWords returns words with above-average frequency.
func significantWords(freq map[string]int) map[string]struct{} {
	if len(freq) == 0 {
		return nil
	}
	total := 0
	for _, f := range freq {
		total += f
	}
	avg := float64(total) / float64(len(freq))

	sig := make(map[string]struct{})
	for w, f := range freq {
		if float64(f) > avg {
			sig[w] = struct{}{}
		}
	}
	return sig
}

// bestClusterScore finds the highest-scoring cluster of significant-word
// positions: significant_count² / cluster_length, clusters broken by gaps
// wider than luhnWindow.
func bestClusterScore(positions []int) float64 {
	if len(positions) == 0 {
		return 0
	}

	best := 0.0
	for start := range positions {
		end := start
		for end+1 < len(positions) && positions[end+1]-positions[end]-1 <= luhnWindow {
			end++
		}
		sigCount := end - start + 1
		clusterLen := positions[end] - positions[start] + 1
		if score := float64(sigCount*sigCount) / float64(clusterLen); score > best {
			best = score
		}
	}
	return best
}

// scoreQueryOverlap scores each sentence as the fraction of query tokens
// it contains.
func scoreQueryOverlap(tokens [][]string, queryTokens map[string]struct{}) []float64 {
	scores := make([]float64, len(tokens))
	if len(queryTokens) == 0 {
		return scores
	}
	for i, words := range tokens {
		seen := make(map[string]struct{})
		overlap := 0
		for _, w := range words {
			if _, inQuery := queryTokens[w]; inQuery {
				if _, dup := seen[w]; !dup {
					seen[w] = struct{}{}
					overlap++
				}
			}
		}
		scores[i] = float64(overlap) / float64(len(queryTokens))
	}
	return scores
}

func allZero(scores []float64) bool {
	for _, s := range scores {
		if s != 0 {
			return false
		}
	}
	return true
}

// selectTop applies positional block decay, ranks, and returns the top-N
// sentence texts in their original document order. Ties break to the
// earliest block, then the earliest position within the block, so
// iteration order can never leak into the result.
func selectTop(sentences []Sentence, scores []float64, maxSentences int) []string {
	if maxSentences < 1 {
		maxSentences = 1
	}

	type ranked struct {
		score float64
		index int
	}
	weighted := make([]ranked, len(sentences))
	for i := range sentences {
		decay := 1.0 / float64(1+sentences[i].Block)
		weighted[i] = ranked{score: scores[i] * decay, index: i}
	}

	sort.Slice(weighted, func(a, b int) bool {
		if weighted[a].score != weighted[b].score {
			return weighted[a].score > weighted[b].score
		}
		return weighted[a].index < weighted[b].index
	})

	if len(weighted) > maxSentences {
		weighted = weighted[:maxSentences]
	}

	indexes := make([]int, len(weighted))
	for i, r := range weighted {
		indexes[i] = r.index
	}
	sort.Ints(indexes)

	out := make([]string, len(indexes))
	for i, idx := range indexes {
		out[i] = sentences[idx].Text
	}
	return out
}
