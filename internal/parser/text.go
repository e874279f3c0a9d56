package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextParser implements basic normalization for plain-text files.
type TextParser struct{}

// NewTextParser returns a new instance of TextParser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse validates UTF-8, drops a leading byte-order mark and normalizes line
// endings to LF. Blank lines are kept: paragraph detection depends on them.
func (p *TextParser) Parse(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	text := strings.TrimPrefix(string(content), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, nil
}

// SupportedTypes returns the file types this parser supports.
func (p *TextParser) SupportedTypes() []string {
	return []string{"txt", "text", "log", "md", "text/plain", "text/markdown"}
}
