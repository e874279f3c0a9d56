package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the plain text layer of PDF files.
type PDFParser struct{}

// NewPDFParser returns a new instance of PDFParser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse checks the %PDF signature and returns the text of every page.
// Scanned PDFs without a text layer yield an empty string.
func (p *PDFParser) Parse(content []byte) (text string, err error) {
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return "", fmt.Errorf("%w: missing '%%PDF' signature", ErrInvalidContent)
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("%w: corrupt pdf: %v", ErrInvalidContent, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrInvalidContent, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// SupportedTypes returns file types handled by PDFParser.
func (p *PDFParser) SupportedTypes() []string {
	return []string{"pdf", "application/pdf"}
}
