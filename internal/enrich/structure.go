package enrich

import (
	"strings"
	"unicode/utf8"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// AnalyzeStructure estimates document layout from line shapes. List and table
// counts assume roughly three lines per list or table.
func (a *Analyzer) AnalyzeStructure(text string) models.DocumentStructure {
	lines := strings.Split(text, "\n")

	headers, listItems, tableLines := 0, 0, 0
	for _, line := range lines {
		if isHeaderLine(line) {
			headers++
		}
		if reBulletItem.MatchString(line) || reNumberedItem.MatchString(line) {
			listItems++
		}
		if strings.Count(line, "|") >= 2 {
			tableLines++
		}
	}

	paragraphs := 0
	for _, block := range reParagraphBreak.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(block)) > 50 {
			paragraphs++
		}
	}

	return models.DocumentStructure{
		HasTitle:       headers > 0,
		HasHeaders:     headers > 1,
		HeaderCount:    headers,
		ParagraphCount: paragraphs,
		ListCount:      ceilDiv(listItems, 3),
		TableCount:     ceilDiv(tableLines, 3),
		ImageCount:     len(reImageRef.FindAllStringIndex(text, -1)),
	}
}

func isHeaderLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if reMarkdownHeader.MatchString(trimmed) {
		return true
	}
	n := utf8.RuneCountInString(trimmed)
	if n == 0 || n >= 80 {
		return false
	}
	return reUpperHeader.MatchString(trimmed) || reTitleHeader.MatchString(trimmed)
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
