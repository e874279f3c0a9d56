package enrich

import (
	"strings"
	"unicode/utf8"
)

// Analyzer runs the individual text analyses. It holds no per-call state, so a
// single Analyzer may be shared by any number of goroutines.
type Analyzer struct {
	lex *Lexicon
}

// NewAnalyzer creates an analyzer over the given lexicon (DefaultLexicon when nil).
func NewAnalyzer(lex *Lexicon) *Analyzer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Analyzer{lex: lex}
}

// Lexicon exposes the tables the analyzer was built with.
func (a *Analyzer) Lexicon() *Lexicon { return a.lex }

// CountWords counts whitespace-separated fields.
func (a *Analyzer) CountWords(text string) int {
	return len(strings.Fields(text))
}

// CountCharacters counts Unicode code points.
func (a *Analyzer) CountCharacters(text string) int {
	return utf8.RuneCountInString(text)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
