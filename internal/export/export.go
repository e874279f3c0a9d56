// Package export writes metadata records as JSON, XML or CSV.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatXML, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want json, xml or csv)", s)
}

// Extension returns the file extension conventionally used for the format.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type of the encoded output.
func (f Format) ContentType() string {
	switch f {
	case FormatXML:
		return "application/xml"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Select keeps the records whose id is listed, preserving the order of docs.
// An empty id list selects everything.
func Select(docs []models.DocumentMetadata, ids []string) []models.DocumentMetadata {
	if len(ids) == 0 {
		return docs
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]models.DocumentMetadata, 0, len(ids))
	for _, d := range docs {
		if want[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// Write encodes docs to w in the given format.
func Write(w io.Writer, f Format, docs []models.DocumentMetadata) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, docs)
	case FormatXML:
		return WriteXML(w, docs)
	case FormatCSV:
		return WriteCSV(w, docs)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteJSON writes docs as an indented JSON array.
func WriteJSON(w io.Writer, docs []models.DocumentMetadata) error {
	if docs == nil {
		docs = []models.DocumentMetadata{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}
