package enrich

import (
	"regexp"
	"sort"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// Fixed confidence per entity family.
const (
	confidenceEmail  = 0.95
	confidencePhone  = 0.85
	confidenceURL    = 0.98
	confidenceDate   = 0.90
	confidencePerson = 0.70

	maxPersonNameLength = 30
)

// ExtractEntities runs the pattern families in a fixed order (email, phone,
// URL, date, person), keeps the first span of every (text, type) pair, sorts
// by confidence and truncates to max. The sort is stable, so spans of equal
// confidence stay in evaluation order.
func (a *Analyzer) ExtractEntities(text string, max int) []models.Entity {
	var found []models.Entity

	collect := func(re *regexp.Regexp, typ models.EntityType, confidence float64, keep func(string) bool) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			span := text[loc[0]:loc[1]]
			if keep != nil && !keep(span) {
				continue
			}
			found = append(found, models.Entity{
				Text:       span,
				Type:       typ,
				Confidence: confidence,
				StartIndex: loc[0],
				EndIndex:   loc[1],
			})
		}
	}

	collect(reEmail, models.EntityEmail, confidenceEmail, nil)
	for _, re := range rePhonePattern {
		collect(re, models.EntityPhone, confidencePhone, nil)
	}
	collect(reURL, models.EntityURL, confidenceURL, nil)
	for _, re := range reDatePattern {
		collect(re, models.EntityDate, confidenceDate, nil)
	}
	collect(rePersonName, models.EntityPerson, confidencePerson, func(name string) bool {
		return !a.lex.PersonFalsePositives[name] && len([]rune(name)) <= maxPersonNameLength
	})

	type entityKey struct {
		text string
		typ  models.EntityType
	}
	seen := make(map[entityKey]bool, len(found))
	unique := make([]models.Entity, 0, len(found))
	for _, e := range found {
		k := entityKey{e.Text, e.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, e)
	}

	sort.SliceStable(unique, func(i, j int) bool { return unique[i].Confidence > unique[j].Confidence })

	if max < 0 {
		max = 0
	}
	if len(unique) > max {
		unique = unique[:max]
	}
	return unique
}
