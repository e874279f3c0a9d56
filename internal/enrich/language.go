package enrich

import (
	"strings"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const (
	languageSampleWords = 100
	languageMinMatches  = 3
)

// DetectLanguage counts stop-word hits among the first 100 words for each
// configured language. Fewer than three hits for the best language yields
// Unknown; ties go to the language listed first.
func (a *Analyzer) DetectLanguage(text string) models.Language {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > languageSampleWords {
		words = words[:languageSampleWords]
	}

	best, max := models.LanguageUnknown, 0
	for _, lang := range a.lex.Languages {
		n := 0
		for _, w := range words {
			if lang.Words[w] {
				n++
			}
		}
		if n > max {
			best, max = lang.Language, n
		}
	}

	if max < languageMinMatches {
		return models.LanguageUnknown
	}
	return best
}
