package enrich

import "regexp"

// Precompiled regexes (avoid recompiling every call). Slice order is
// evaluation order; for entities it decides which span survives
// deduplication.
var (
	reLeadingUpper = regexp.MustCompile(`^[A-Z]`)
	reTitleSpecial = regexp.MustCompile(`[^a-zA-Z0-9\s:-]`)
	reExtension    = regexp.MustCompile(`\.[^/.]+$`)
	reFileSep      = regexp.MustCompile(`[-_]`)

	// Name keywords are case-insensitive; the name itself must be capitalized.
	reAuthorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?i:written by|created by|prepared by|author|by)\s*:?\s*([A-Z][a-z]+ [A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?)`),
		regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?)\s+(?i:wrote|authored|created|prepared)\b`),
		regexp.MustCompile(`(?m)^([A-Z][a-z]+ [A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?)$`),
	}
	reAuthorSignature = regexp.MustCompile(`([A-Z][a-z]+ [A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?)[ \t]*\n.*@.*\.`)

	reNonWord = regexp.MustCompile(`[^\w\s]`)

	reEmail        = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	rePhonePattern = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.]?\d{4}`),
		regexp.MustCompile(`\+1[-.\s]?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
	}
	reURL         = regexp.MustCompile(`https?://\S+`)
	reDatePattern = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+ \d{1,2}, \d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}
	rePersonName = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`)

	reSentenceBreak = regexp.MustCompile(`[.!?]+`)
	reNonLower      = regexp.MustCompile(`[^a-z]`)
	reSilentSuffix  = regexp.MustCompile(`(?:[^laeiouy]es|ed|[^laeiouy]e)$`)
	reLeadingY      = regexp.MustCompile(`^y`)
	reVowelGroup    = regexp.MustCompile(`[aeiouy]{1,2}`)

	reMarkdownHeader = regexp.MustCompile(`^#{1,6}\s`)
	reUpperHeader    = regexp.MustCompile(`^[A-Z][A-Z\s]+$`)
	reTitleHeader    = regexp.MustCompile(`^[A-Z][a-z\s]+:?$`)
	reParagraphBreak = regexp.MustCompile(`\n\s*\n`)
	reBulletItem     = regexp.MustCompile(`^\s*[-*+•]\s`)
	reNumberedItem   = regexp.MustCompile(`^\s*\d+\.\s`)
	reImageRef       = regexp.MustCompile(`(?i)!\[.*?\]\(.*?\)|image|photo|figure|diagram`)

	reStatistic = regexp.MustCompile(`\d+%|\d+\.\d+|\$\d+`)
)
