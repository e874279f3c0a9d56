package enrich

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// NoSummary is the summary of a text without usable sentences.
const NoSummary = "No summary available."

// GenerateSummary picks the highest scoring sentences and returns them in
// document order. Sentences score on summary words, statistics, length and
// proximity to the start or end of the text.
func (a *Analyzer) GenerateSummary(text string, maxSentences int) string {
	var sentences []string
	for _, s := range reSentenceBreak.Split(text, -1) {
		s = strings.TrimSpace(s)
		if n := utf8.RuneCountInString(s); n > 20 && n < 200 {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 || maxSentences <= 0 {
		return NoSummary
	}

	// Repeated sentences share the position of their first occurrence.
	firstIndex := make(map[string]int, len(sentences))
	for i, s := range sentences {
		if _, ok := firstIndex[s]; !ok {
			firstIndex[s] = i
		}
	}

	type scored struct {
		text     string
		score    int
		position int
	}
	scores := make([]scored, 0, len(sentences))
	for _, s := range sentences {
		pos := firstIndex[s]
		lower := strings.ToLower(s)

		score := 0
		for _, w := range a.lex.SummaryWords {
			if strings.Contains(lower, w) {
				score += 2
			}
		}
		if reStatistic.MatchString(s) {
			score++
		}
		if n := utf8.RuneCountInString(s); n >= 50 && n <= 150 {
			score++
		}
		if pos < 3 || pos >= len(sentences)-3 {
			score++
		}
		scores = append(scores, scored{text: s, score: score, position: pos})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if len(scores) > maxSentences {
		scores = scores[:maxSentences]
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].position < scores[j].position })

	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = s.text
	}
	return strings.Join(parts, ". ") + "."
}
