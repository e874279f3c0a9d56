package enrich

import (
	"math"
	"sort"
	"strings"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const (
	topicMaxConfidence = 0.95
	topicMinConfidence = 0.1
)

// ClassifyTopics scores every dictionary topic by the share of its terms found
// in the text: confidence = min(0.95, matched/total*2). Topics under 0.1 are
// dropped; the rest are sorted by confidence (dictionary order on ties) and
// truncated to max.
func (a *Analyzer) ClassifyTopics(text string, max int) []models.Topic {
	lower := strings.ToLower(text)
	tokens := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		tokens[w] = true
	}

	topics := make([]models.Topic, 0, len(a.lex.Topics))
	for _, t := range a.lex.Topics {
		if len(t.Keywords) == 0 {
			continue
		}
		var matched []string
		for _, kw := range t.Keywords {
			var hit bool
			if strings.Contains(kw, " ") {
				hit = strings.Contains(lower, kw)
			} else {
				hit = tokens[kw]
			}
			if hit {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}

		confidence := math.Min(topicMaxConfidence, float64(len(matched))/float64(len(t.Keywords))*2)
		if confidence < topicMinConfidence {
			continue
		}
		topics = append(topics, models.Topic{Name: t.Name, Confidence: confidence, Keywords: matched})
	}

	sort.SliceStable(topics, func(i, j int) bool { return topics[i].Confidence > topics[j].Confidence })

	if max < 0 {
		max = 0
	}
	if len(topics) > max {
		topics = topics[:max]
	}
	return topics
}
