package enrich

import (
	"math"
	"strings"
)

// ReadabilityScore computes Flesch Reading Ease, clamped to [0, 100] and
// rounded half up. Text without sentences or words scores 0.
func (a *Analyzer) ReadabilityScore(text string) int {
	sentences := 0
	for _, s := range reSentenceBreak.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	words := strings.Fields(text)
	if sentences == 0 || len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord

	return int(math.Max(0, math.Min(100, math.Floor(score+0.5))))
}

// countSyllables approximates English syllables by counting vowel groups after
// dropping a silent trailing e/es/ed and a leading y.
func countSyllables(word string) int {
	word = reNonLower.ReplaceAllString(strings.ToLower(word), "")
	if len(word) <= 3 {
		return 1
	}

	word = reSilentSuffix.ReplaceAllString(word, "")
	word = reLeadingY.ReplaceAllString(word, "")

	if n := len(reVowelGroup.FindAllStringIndex(word, -1)); n > 0 {
		return n
	}
	return 1
}
