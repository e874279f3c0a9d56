package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

var csvHeader = []string{
	"ID", "Filename", "File Type", "Title", "Author", "Subject",
	"Language", "Word Count", "Character Count", "Readability Score",
	"Keywords", "Summary", "Sentiment", "Upload Date",
}

// WriteCSV writes a header row and one row per record. Keywords are joined
// with "; " and the upload date is RFC 3339 in UTC.
func WriteCSV(w io.Writer, docs []models.DocumentMetadata) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, d := range docs {
		row := []string{
			d.ID,
			d.Filename,
			d.FileType,
			d.Title,
			d.Author,
			d.Subject,
			string(d.Language),
			strconv.Itoa(d.WordCount),
			strconv.Itoa(d.CharacterCount),
			strconv.Itoa(d.ReadabilityScore),
			strings.Join(d.Keywords, "; "),
			d.Summary,
			string(d.Sentiment.Overall),
			d.UploadDate.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", d.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv export: %w", err)
	}
	return nil
}
