package enrich

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

const (
	// DefaultMIMEType is used when neither the declared type nor the extension helps.
	DefaultMIMEType = "application/octet-stream"

	textEncoding      = "UTF-8"
	bytesPerPDFPage   = 50000
	placeholderWidth  = 1920
	placeholderHeight = 1080
)

// ResolveMIMEType returns the declared MIME type when it parses as
// type/subtype, otherwise the type inferred from the filename extension,
// otherwise DefaultMIMEType.
func (a *Analyzer) ResolveMIMEType(filename, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && strings.Contains(mediaType, "/") {
			return mediaType
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if mt, ok := a.lex.ExtensionMIMETypes[ext]; ok {
		return mt
	}
	return DefaultMIMEType
}

// TechnicalMetadata describes the file itself. Page count is a size-based
// estimate for PDFs; images get placeholder dimensions.
func (a *Analyzer) TechnicalMetadata(file models.FileInfo) models.TechnicalMetadata {
	tm := models.TechnicalMetadata{
		MIMEType: a.ResolveMIMEType(file.Name, file.MIMEType),
		Encoding: textEncoding,
	}

	if !file.LastModified.IsZero() {
		created, modified := file.LastModified, file.LastModified
		tm.CreationDate = &created
		tm.ModificationDate = &modified
	}

	if isPDF(tm.MIMEType) {
		size := file.Size
		if size < 0 {
			size = 0
		}
		pages := int((size + bytesPerPDFPage - 1) / bytesPerPDFPage)
		tm.PageCount = &pages
	}

	if strings.HasPrefix(tm.MIMEType, "image/") {
		tm.Dimensions = &models.Dimensions{Width: placeholderWidth, Height: placeholderHeight}
	}

	return tm
}

func isPDF(mimeType string) bool {
	return mimeType == "application/pdf" || strings.HasSuffix(mimeType, "/x-pdf")
}
