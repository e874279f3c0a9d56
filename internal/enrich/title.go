package enrich

import (
	"strings"
	"unicode/utf8"
)

// ExtractTitle picks the first of the opening five lines that looks like a
// title, then the first line of 10-80 characters, then the filename.
func (a *Analyzer) ExtractTitle(text, filename string) string {
	lines := nonEmptyLines(text)

	head := lines
	if len(head) > 5 {
		head = head[:5]
	}
	for _, line := range head {
		if looksLikeTitle(line) {
			return line
		}
	}

	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n >= 10 && n <= 80 {
			return line
		}
	}

	return titleFromFilename(filename)
}

func looksLikeTitle(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < 5 || n > 100 {
		return false
	}
	if len(reTitleSpecial.FindAllStringIndex(line, -1)) >= 3 {
		return false
	}
	words := len(strings.Fields(line))
	if words < 2 || words > 15 {
		return false
	}
	return reLeadingUpper.MatchString(line) || line == strings.ToUpper(line)
}

func titleFromFilename(filename string) string {
	base := reExtension.ReplaceAllString(filename, "")
	return reFileSep.ReplaceAllString(base, " ")
}

// nonEmptyLines splits on newlines, trims each line and drops blank ones.
func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
