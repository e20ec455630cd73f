package summarize

import "golang.org/x/text/language"

// Stopword lists for the supported scoring languages. Selection goes
// through an x/text language matcher so region-qualified tags ("en-US",
// "nl-BE") resolve to the right list; anything unmatched falls back to
// English.

var stopwordLanguages = []language.Tag{
	language.English, // first entry is the fallback
	language.Dutch,
}

var stopwordMatcher = language.NewMatcher(stopwordLanguages)

var stopwordSets = map[language.Tag]map[string]struct{}{
	language.English: wordSet(
		"a", "about", "after", "all", "also", "an", "and", "any", "are", "as",
		"at", "be", "because", "been", "but", "by", "can", "could", "do",
		"does", "each", "for", "from", "had", "has", "have", "he", "her",
		"here", "his", "how", "i", "if", "in", "into", "is", "it", "its",
		"just", "like", "may", "more", "most", "no", "not", "of", "on",
		"one", "only", "or", "other", "our", "out", "over", "she", "so",
		"some", "such", "than", "that", "the", "their", "them", "then",
		"there", "these", "they", "this", "to", "up", "use", "used", "was",
		"we", "were", "what", "when", "where", "which", "while", "who",
		"will", "with", "would", "you", "your",
	),
	language.Dutch: wordSet(
		"aan", "al", "alles", "als", "ben", "bij", "daar", "dan", "dat",
		"de", "der", "deze", "die", "dit", "doch", "doen", "door", "dus",
		"een", "en", "er", "ge", "geen", "geweest", "haar", "had", "heb",
		"hebben", "heeft", "hem", "het", "hier", "hij", "hoe", "hun", "ik",
		"in", "is", "ja", "je", "kan", "kon", "kunnen", "maar", "me", "meer",
		"men", "met", "mij", "mijn", "moet", "na", "naar", "niet", "niets",
		"nog", "nu", "of", "om", "omdat", "ons", "ook", "op", "over", "te",
		"tegen", "toch", "toen", "tot", "u", "uit", "uw", "van", "veel",
		"voor", "want", "waren", "was", "wat", "we", "wel", "werd", "wie",
		"wil", "worden", "zal", "ze", "zich", "zij", "zijn", "zo", "zonder",
		"zou",
	),
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// stopwordsFor resolves a language option value to its stopword set.
func stopwordsFor(lang string) map[string]struct{} {
	_, idx, conf := stopwordMatcher.Match(language.Make(lang))
	if conf == language.No {
		idx = 0
	}
	return stopwordSets[stopwordLanguages[idx]]
}

// SupportedLanguages lists the languages with a configured stopword set,
// as BCP 47 tags.
func SupportedLanguages() []string {
	names := make([]string, len(stopwordLanguages))
	for i, tag := range stopwordLanguages {
		names[i] = tag.String()
	}
	return names
}

// SupportedLanguage reports whether a language option value resolves to a
// configured stopword list.
func SupportedLanguage(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	_, _, conf := stopwordMatcher.Match(tag)
	return conf > language.No
}
