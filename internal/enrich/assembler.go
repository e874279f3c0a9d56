package enrich

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/models"
)

// Upper bounds of the record's ranked lists.
const (
	MaxKeywords         = 15
	MaxEntities         = 20
	MaxTopics           = 5
	MaxSummarySentences = 3
)

// Limits caps the ranked lists. Zero or out-of-range values fall back to the
// package maximums.
type Limits struct {
	Keywords         int `json:"keywords"`
	Entities         int `json:"entities"`
	Topics           int `json:"topics"`
	SummarySentences int `json:"summary_sentences"`
}

// DefaultLimits returns the maximum allowed limits.
func DefaultLimits() Limits {
	return Limits{
		Keywords:         MaxKeywords,
		Entities:         MaxEntities,
		Topics:           MaxTopics,
		SummarySentences: MaxSummarySentences,
	}
}

func (l Limits) normalized() Limits {
	return Limits{
		Keywords:         bounded(l.Keywords, MaxKeywords),
		Entities:         bounded(l.Entities, MaxEntities),
		Topics:           bounded(l.Topics, MaxTopics),
		SummarySentences: bounded(l.SummarySentences, MaxSummarySentences),
	}
}

func bounded(v, max int) int {
	if v <= 0 || v > max {
		return max
	}
	return v
}

// Assembler builds DocumentMetadata records. It is safe for concurrent use.
type Assembler struct {
	analyzer *Analyzer
	limits   Limits
	logger   *logrus.Logger

	newID func() string
	now   func() time.Time
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithIDGenerator replaces uuid-based record identifiers.
func WithIDGenerator(fn func() string) AssemblerOption {
	return func(a *Assembler) { a.newID = fn }
}

// WithClock replaces the UTC wall clock used for the record's upload date.
func WithClock(fn func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = fn }
}

// WithLogger sets the logger used for per-record debug lines.
func WithLogger(logger *logrus.Logger) AssemblerOption {
	return func(a *Assembler) { a.logger = logger }
}

// NewAssembler wires an Assembler over an analyzer.
func NewAssembler(analyzer *Analyzer, limits Limits, opts ...AssemblerOption) *Assembler {
	if analyzer == nil {
		analyzer = NewAnalyzer(nil)
	}
	a := &Assembler{
		analyzer: analyzer,
		limits:   limits.normalized(),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logrus.New()
		a.logger.SetLevel(logrus.WarnLevel)
	}
	return a
}

// Analyzer returns the underlying analyzer.
func (a *Assembler) Analyzer() *Analyzer { return a.analyzer }

// Assemble runs every analysis over text and returns a new record. It never
// fails: empty or whitespace-only text yields the degenerate defaults.
func (a *Assembler) Assemble(text string, file models.FileInfo) models.DocumentMetadata {
	an := a.analyzer

	fileType := an.ResolveMIMEType(file.Name, file.MIMEType)
	size := file.Size
	if size < 0 {
		size = 0
	}

	topics := an.ClassifyTopics(text, a.limits.Topics)

	doc := models.DocumentMetadata{
		ID:         a.newID(),
		Filename:   file.Name,
		FileType:   fileType,
		FileSize:   size,
		UploadDate: a.now(),

		ExtractedText:  text,
		WordCount:      an.CountWords(text),
		CharacterCount: an.CountCharacters(text),
		Language:       an.DetectLanguage(text),

		Title:    an.ExtractTitle(text, file.Name),
		Author:   an.ExtractAuthor(text),
		Subject:  an.ExtractSubject(text, topics),
		Keywords: an.ExtractKeywords(text, a.limits.Keywords),
		Summary:  an.GenerateSummary(text, a.limits.SummarySentences),

		Entities:          an.ExtractEntities(text, a.limits.Entities),
		Topics:            topics,
		Sentiment:         an.AnalyzeSentiment(text),
		ReadabilityScore:  an.ReadabilityScore(text),
		Structure:         an.AnalyzeStructure(text),
		TechnicalMetadata: an.TechnicalMetadata(file),
	}

	a.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"mime_type":   doc.FileType,
		"word_count":  doc.WordCount,
		"language":    doc.Language,
		"topics":      len(doc.Topics),
		"entities":    len(doc.Entities),
	}).Debug("metadata assembled")

	return doc
}
