package enrich

import (
	"math"
	"strings"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// AnalyzeSentiment does lexicon-based polarity scoring over whitespace tokens.
// Confidence grows with the density of sentiment words and is capped at 0.95.
func (a *Analyzer) AnalyzeSentiment(text string) models.Sentiment {
	words := strings.Fields(strings.ToLower(text))

	pos, neg := 0, 0
	for _, w := range words {
		if a.lex.PositiveWords[w] {
			pos++
		}
		if a.lex.NegativeWords[w] {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return models.Sentiment{Overall: models.SentimentNeutral, Confidence: 0.5}
	}

	ratio := float64(pos) / float64(total)
	confidence := clamp01(math.Min(0.95, float64(total)/float64(len(words))*10))

	switch {
	case ratio > 0.6:
		return models.Sentiment{Overall: models.SentimentPositive, Confidence: confidence}
	case ratio < 0.4:
		return models.Sentiment{Overall: models.SentimentNegative, Confidence: confidence}
	default:
		return models.Sentiment{Overall: models.SentimentNeutral, Confidence: math.Max(0.3, confidence)}
	}
}
