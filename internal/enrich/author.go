package enrich

import "strings"

// UnknownAuthor is returned when no author line can be found.
const UnknownAuthor = "Unknown Author"

// ExtractAuthor tries the byline patterns in priority order. Each pattern
// contributes only its first match; a match on the false-positive list moves
// on to the next pattern. A name followed by an email line is the last resort.
func (a *Analyzer) ExtractAuthor(text string) string {
	for _, re := range reAuthorPatterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		author := strings.TrimSpace(m[1])
		if !a.lex.AuthorFalsePositives[author] {
			return author
		}
	}

	if m := reAuthorSignature.FindStringSubmatch(text); len(m) > 1 && m[1] != "" {
		return strings.TrimSpace(m[1])
	}

	return UnknownAuthor
}
