package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawDocument is the envelope published to the raw topic by producers.
// FileType carries the MIME type when the producer knows it; it may be empty.
type RawDocument struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	FileType     string            `json:"file_type"`
	ContentB64   string            `json:"content_base64"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"last_modified"`
	Source       string            `json:"source"`
	Timestamp    time.Time         `json:"timestamp"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Validate ensures that required fields are present in RawDocument.
// Empty content is allowed: an empty file still produces a metadata record.
func (rd *RawDocument) Validate() error {
	if rd.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if rd.Filename == "" {
		return fmt.Errorf("filename is required")
	}
	if rd.Size < 0 {
		return fmt.Errorf("size cannot be negative")
	}
	return nil
}

// FileInfo holds the file attributes the analysis needs next to the text.
type FileInfo struct {
	Name         string
	MIMEType     string
	Size         int64
	LastModified time.Time
}

// Language is one of the detectable document languages.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageSpanish Language = "Spanish"
	LanguageFrench  Language = "French"
	LanguageUnknown Language = "Unknown"
)

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityDate         EntityType = "date"
	EntityEmail        EntityType = "email"
	EntityPhone        EntityType = "phone"
	EntityURL          EntityType = "url"
)

// IsValid checks if the EntityType is recognized.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityPerson, EntityOrganization, EntityLocation, EntityDate, EntityEmail, EntityPhone, EntityURL:
		return true
	}
	return false
}

// Entity is a typed span of the source text. StartIndex and EndIndex are byte
// offsets, so text[StartIndex:EndIndex] == Text.
type Entity struct {
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Confidence float64    `json:"confidence"`
	StartIndex int        `json:"startIndex"`
	EndIndex   int        `json:"endIndex"`
}

// Topic is a subject label with the dictionary terms that matched it.
type Topic struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// SentimentLabel is the overall polarity of a document.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment pairs the polarity label with its confidence.
type Sentiment struct {
	Overall    SentimentLabel `json:"overall"`
	Confidence float64        `json:"confidence"`
}

// DocumentStructure counts are heuristic estimates.
type DocumentStructure struct {
	HasTitle       bool `json:"hasTitle"`
	HasHeaders     bool `json:"hasHeaders"`
	HeaderCount    int  `json:"headerCount"`
	ParagraphCount int  `json:"paragraphCount"`
	ListCount      int  `json:"listCount"`
	TableCount     int  `json:"tableCount"`
	ImageCount     int  `json:"imageCount"`
}

// Dimensions of an image document.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TechnicalMetadata is derived from the file attributes only.
type TechnicalMetadata struct {
	MIMEType         string      `json:"mimeType"`
	Encoding         string      `json:"encoding"`
	CreationDate     *time.Time  `json:"creationDate,omitempty"`
	ModificationDate *time.Time  `json:"modificationDate,omitempty"`
	PageCount        *int        `json:"pageCount,omitempty"`
	Dimensions       *Dimensions `json:"dimensions,omitempty"`
}

// DocumentMetadata is the analysis record. It is built once per input and
// must not be modified afterwards; re-analysis produces a new record.
type DocumentMetadata struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	UploadDate time.Time `json:"uploadDate"`

	ExtractedText  string   `json:"extractedText"`
	WordCount      int      `json:"wordCount"`
	CharacterCount int      `json:"characterCount"`
	Language       Language `json:"language"`

	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`

	Entities          []Entity          `json:"entities"`
	Topics            []Topic           `json:"topics"`
	Sentiment         Sentiment         `json:"sentiment"`
	ReadabilityScore  int               `json:"readabilityScore"`
	Structure         DocumentStructure `json:"structure"`
	TechnicalMetadata TechnicalMetadata `json:"technicalMetadata"`
}

// ToJSON serializes DocumentMetadata to JSON bytes.
func (dm *DocumentMetadata) ToJSON() ([]byte, error) {
	return json.Marshal(dm)
}

// FromJSON deserializes JSON bytes into a DocumentMetadata.
func FromJSON(data []byte) (*DocumentMetadata, error) {
	var doc DocumentMetadata
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ProcessingError represents failures at various pipeline stages.
type ProcessingError struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename,omitempty"`
	Error      string    `json:"error"`
	Stage      string    `json:"stage"` // e.g. "parse_error", "send_error", "index_error"
	Timestamp  time.Time `json:"timestamp"`
	Retryable  bool      `json:"retryable"`
}
