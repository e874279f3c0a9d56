package enrich

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minKeywordFrequency = 2

// ExtractKeywords returns up to max tokens longer than three characters that
// occur at least twice and are not stop words, most frequent first with the
// first letter upper-cased. Equal frequencies keep first-occurrence order.
func (a *Analyzer) ExtractKeywords(text string, max int) []string {
	if max <= 0 {
		return []string{}
	}

	cleaned := reNonWord.ReplaceAllString(strings.ToLower(text), " ")

	type wordCount struct {
		word  string
		count int
	}
	var order []*wordCount
	freq := make(map[string]*wordCount)
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		wc, ok := freq[w]
		if !ok {
			wc = &wordCount{word: w}
			freq[w] = wc
			order = append(order, wc)
		}
		wc.count++
	}

	ranked := make([]*wordCount, 0, len(order))
	for _, wc := range order {
		if wc.count >= minKeywordFrequency && !a.lex.KeywordStopWords[wc.word] {
			ranked = append(ranked, wc)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, 0, len(ranked))
	for _, wc := range ranked {
		out = append(out, capitalize(wc.word))
	}
	return out
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
