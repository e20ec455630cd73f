// Package recall implements the recall directive: retrieve the sentences
// most relevant to a query from a source file or the enclosing document,
// rendered as a GFM blockquote. When nothing matches the query, the most
// representative sentences are shown instead, with an explicit note, so
// output is never empty.
package recall

import (
	"strings"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/plugins/synopsis"
	"github.com/leapstack-labs/embedm/internal/status"
	"github.com/leapstack-labs/embedm/internal/summarize"
)

const (
	queryKey        = "query"
	maxSentencesKey = "max_sentences"
	languageKey     = "language"
	sectionsKey     = "sections"

	defaultMaxSentences = 3
	defaultLanguage     = "en"
)

const (
	noContentNote = "> [!NOTE]\n> No relevant content could be retrieved.\n"
	fallbackNote  = "> [!NOTE]\n> No sentences matched the query. Showing most representative sentences instead."
)

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "recall" }
func (*Capability) DirectiveType() string { return "recall" }

func (*Capability) Recurses(*directive.Directive) bool { return false }

func (*Capability) ValidateDirective(d *directive.Directive) []status.Status {
	var statuses []status.Status

	if q, _ := d.Option(queryKey); q == "" {
		statuses = append(statuses, status.Errorf("%q is required for the recall directive", queryKey))
	}

	if value, s := d.IntOption(maxSentencesKey, defaultMaxSentences); s != nil {
		statuses = append(statuses, *s)
	} else if value < 1 {
		statuses = append(statuses, status.Errorf("%q must be >= 1, got %d", maxSentencesKey, value))
	}

	if value, s := d.IntOption(sectionsKey, 0); s != nil {
		statuses = append(statuses, *s)
	} else if value < 0 {
		statuses = append(statuses, status.Errorf("%q must be >= 0, got %d", sectionsKey, value))
	}

	if lang, ok := d.Option(languageKey); ok && !summarize.SupportedLanguage(lang) {
		statuses = append(statuses, status.Errorf("invalid language %q. Supported: %s",
			lang, strings.Join(summarize.SupportedLanguages(), ", ")))
	}
	return statuses
}

func (*Capability) Transform(node *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (string, error) {
	text, err := synopsis.SourceText(node, parentDoc, ctx)
	if err != nil {
		return "", err
	}

	query, _ := node.Directive.Option(queryKey)
	maxSentences, _ := node.Directive.IntOption(maxSentencesKey, defaultMaxSentences)
	sections, _ := node.Directive.IntOption(sectionsKey, 0)

	result := summarize.Recall(text, query, summarize.Options{
		MaxSentences: maxSentences,
		Language:     node.Directive.StringOption(languageKey, defaultLanguage),
		Sections:     sections,
	})
	if len(result.Sentences) == 0 {
		return noContentNote, nil
	}

	out := "> " + strings.Join(result.Sentences, " ") + "\n"
	if result.Fallback {
		out = fallbackNote + "\n\n" + out
	}
	return out, nil
}
