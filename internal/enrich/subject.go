package enrich

import (
	"strings"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// GeneralSubject is the subject of a text that matches no vocabulary.
const GeneralSubject = "General"

// ExtractSubject reuses the top topic when there is one. Otherwise each
// subject scores the number of its terms that occur anywhere in the text, and
// the highest score wins with ties going to the subject listed first.
func (a *Analyzer) ExtractSubject(text string, topics []models.Topic) string {
	if len(topics) > 0 {
		return topics[0].Name
	}

	lower := strings.ToLower(text)
	best, max := GeneralSubject, 0
	for _, s := range a.lex.Subjects {
		n := 0
		for _, term := range s.Terms {
			if strings.Contains(lower, term) {
				n++
			}
		}
		if n > max {
			best, max = s.Name, n
		}
	}
	return best
}
