// Package synopsis implements the synopsis directive: an extractive
// summary of a source file or of the enclosing document, rendered as a
// GFM blockquote.
package synopsis

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
	"github.com/leapstack-labs/embedm/internal/summarize"
)

const (
	maxSentencesKey = "max_sentences"
	algorithmKey    = "algorithm"
	languageKey     = "language"
	sectionsKey     = "sections"

	defaultMaxSentences = 3
	defaultAlgorithm    = summarize.AlgorithmFrequency
	defaultLanguage     = "en"
)

const noContentNote = "> [!NOTE]\n> No summary could be generated.\n"

type Capability struct{}

func New() *Capability { return &Capability{} }

func (*Capability) Name() string          { return "synopsis" }
func (*Capability) DirectiveType() string { return "synopsis" }

// A synopsis never embeds another compilable document; its source is
// consumed as plain text.
func (*Capability) Recurses(*directive.Directive) bool { return false }

func (*Capability) ValidateDirective(d *directive.Directive) []status.Status {
	var statuses []status.Status

	statuses = append(statuses, validateIntMin(d, maxSentencesKey, defaultMaxSentences, 1)...)
	statuses = append(statuses, validateIntMin(d, sectionsKey, 0, 0)...)

	if algo, ok := d.Option(algorithmKey); ok && algo != summarize.AlgorithmFrequency && algo != summarize.AlgorithmLuhn {
		statuses = append(statuses, status.Errorf("invalid algorithm %q. Supported: %s",
			algo, strings.Join(summarize.ValidAlgorithms, ", ")))
	}
	statuses = append(statuses, validateLanguage(d)...)
	return statuses
}

func (*Capability) Transform(node *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (string, error) {
	text, err := SourceText(node, parentDoc, ctx)
	if err != nil {
		return "", err
	}

	maxSentences, _ := node.Directive.IntOption(maxSentencesKey, defaultMaxSentences)
	sections, _ := node.Directive.IntOption(sectionsKey, 0)

	result := summarize.Summarize(text, summarize.Options{
		MaxSentences: maxSentences,
		Algorithm:    node.Directive.StringOption(algorithmKey, defaultAlgorithm),
		Language:     node.Directive.StringOption(languageKey, defaultLanguage),
		Sections:     sections,
	})
	if len(result.Sentences) == 0 {
		return noContentNote, nil
	}
	return "> " + strings.Join(result.Sentences, " ") + "\n", nil
}

// SourceText returns the text a scoring directive operates on: the
// source file's content, or the joined string fragments of the enclosing
// document when no source is given. Directives still unresolved in the
// parent view are invisible to the scorer.
func SourceText(node *plan.Node, parentDoc []directive.Fragment, ctx *plan.Context) (string, error) {
	if node.Directive.Source == "" {
		var b strings.Builder
		for _, f := range parentDoc {
			if t, ok := f.(directive.Text); ok {
				b.WriteString(string(t))
			}
		}
		return b.String(), nil
	}

	content, errs := ctx.Cache.GetFile(node.Directive.Source)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, s := range errs {
			msgs[i] = s.Description
		}
		return "", fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return content, nil
}

func validateIntMin(d *directive.Directive, key string, def, min int) []status.Status {
	value, s := d.IntOption(key, def)
	if s != nil {
		return []status.Status{*s}
	}
	if value < min {
		return []status.Status{status.Errorf("%q must be >= %d, got %d", key, min, value)}
	}
	return nil
}

func validateLanguage(d *directive.Directive) []status.Status {
	if lang, ok := d.Option(languageKey); ok && !summarize.SupportedLanguage(lang) {
		return []status.Status{status.Errorf("invalid language %q. Supported: %s",
			lang, strings.Join(summarize.SupportedLanguages(), ", "))}
	}
	return nil
}
