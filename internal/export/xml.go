package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

type xmlDocuments struct {
	XMLName   xml.Name      `xml:"documents"`
	Documents []xmlDocument `xml:"document"`
}

type xmlDocument struct {
	ID               string      `xml:"id"`
	Filename         string      `xml:"filename"`
	FileType         string      `xml:"fileType"`
	Title            string      `xml:"title"`
	Author           string      `xml:"author"`
	Subject          string      `xml:"subject"`
	Summary          string      `xml:"summary"`
	Language         string      `xml:"language"`
	WordCount        int         `xml:"wordCount"`
	ReadabilityScore int         `xml:"readabilityScore"`
	Keywords         []string    `xml:"keywords>keyword"`
	Entities         []xmlEntity `xml:"entities>entity"`
}

type xmlEntity struct {
	Type       string `xml:"type,attr"`
	Confidence string `xml:"confidence,attr"`
	Text       string `xml:",chardata"`
}

// WriteXML writes docs under a <documents> root, one <document> per record.
func WriteXML(w io.Writer, docs []models.DocumentMetadata) error {
	root := xmlDocuments{Documents: make([]xmlDocument, 0, len(docs))}
	for _, d := range docs {
		xd := xmlDocument{
			ID:               d.ID,
			Filename:         d.Filename,
			FileType:         d.FileType,
			Title:            d.Title,
			Author:           d.Author,
			Subject:          d.Subject,
			Summary:          d.Summary,
			Language:         string(d.Language),
			WordCount:        d.WordCount,
			ReadabilityScore: d.ReadabilityScore,
			Keywords:         d.Keywords,
		}
		for _, e := range d.Entities {
			xd.Entities = append(xd.Entities, xmlEntity{
				Type:       string(e.Type),
				Confidence: strconv.FormatFloat(e.Confidence, 'f', -1, 64),
				Text:       e.Text,
			})
		}
		root.Documents = append(root.Documents, xd)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode xml export: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write xml export: %w", err)
	}
	return nil
}
