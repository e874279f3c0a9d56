package enrich

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/models"
	"github.com/nakshatra-tomar/docmeta/internal/parser"
)

// Enricher turns raw file payloads into metadata records: it extracts text
// with the parser registry and hands it to the Assembler.
type Enricher struct {
	parserRegistry *parser.Registry
	assembler      *Assembler
	logger         *logrus.Logger
	config         Config
}

// Config controls list limits and the lexicon source.
type Config struct {
	Limits      Limits `json:"limits"`
	LexiconFile string `json:"lexicon_file,omitempty"`
}

// DefaultConfig returns the built-in lexicon and maximum limits.
func DefaultConfig() Config {
	return Config{Limits: DefaultLimits()}
}

// NewEnricher builds an Enricher with a fresh registry and assembler.
func NewEnricher(cfg Config, logger *logrus.Logger, opts ...AssemblerOption) (*Enricher, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lex, err := LoadLexicon(cfg.LexiconFile)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	cfg.Limits = cfg.Limits.normalized()
	opts = append([]AssemblerOption{WithLogger(logger)}, opts...)

	return &Enricher{
		parserRegistry: parser.NewRegistry(),
		assembler:      NewAssembler(NewAnalyzer(lex), cfg.Limits, opts...),
		logger:         logger,
		config:         cfg,
	}, nil
}

// Assembler exposes the underlying assembler for callers that already hold text.
func (e *Enricher) Assembler() *Assembler { return e.assembler }

// ExtractText resolves a parser from the MIME type or extension and returns
// the document text. Unknown types fall back to the plain-text parser.
func (e *Enricher) ExtractText(filename, mimeType string, content []byte) (string, error) {
	p, err := e.parserRegistry.Resolve(filename, mimeType)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"filename":  filename,
			"mime_type": mimeType,
		}).Warn("no parser found for type; falling back to text")
		if p, err = e.parserRegistry.GetParser("txt"); err != nil {
			return "", fmt.Errorf("no suitable parser available for %q: %w", filename, err)
		}
	}

	text, err := p.Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filename, err)
	}
	return text, nil
}

// EnrichDocument decodes, parses and analyzes a raw document. Errors come only
// from the envelope, decoding or parsing; analysis itself cannot fail.
func (e *Enricher) EnrichDocument(raw *models.RawDocument) (*models.DocumentMetadata, error) {
	start := time.Now()

	e.logger.WithFields(logrus.Fields{
		"document_id": raw.ID,
		"filename":    raw.Filename,
		"file_type":   raw.FileType,
		"source":      raw.Source,
		"size_b64":    len(raw.ContentB64),
	}).Info("starting document enrichment")

	if err := raw.Validate(); err != nil {
		e.logger.WithError(err).Error("invalid raw document")
		return nil, fmt.Errorf("invalid raw document: %w", err)
	}

	content, err := base64.StdEncoding.DecodeString(raw.ContentB64)
	if err != nil {
		e.logger.WithError(err).Error("failed to decode base64 content")
		return nil, fmt.Errorf("failed to decode base64 content: %w", err)
	}

	mimeType := e.assembler.Analyzer().ResolveMIMEType(raw.Filename, raw.FileType)
	text, err := e.ExtractText(raw.Filename, mimeType, content)
	if err != nil {
		e.logger.WithError(err).WithField("document_id", raw.ID).Error("failed to extract document text")
		return nil, err
	}

	size := raw.Size
	if size == 0 {
		size = int64(len(content))
	}

	doc := e.assembler.Assemble(text, models.FileInfo{
		Name:         raw.Filename,
		MIMEType:     raw.FileType,
		Size:         size,
		LastModified: raw.LastModified,
	})

	e.logger.WithFields(logrus.Fields{
		"document_id":     raw.ID,
		"metadata_id":     doc.ID,
		"word_count":      doc.WordCount,
		"keyword_count":   len(doc.Keywords),
		"language":        doc.Language,
		"subject":         doc.Subject,
		"sentiment":       doc.Sentiment.Overall,
		"processing_time": time.Since(start),
	}).Info("document enrichment completed successfully")

	return &doc, nil
}

// GetSupportedTypes exposes the registry's supported file types.
func (e *Enricher) GetSupportedTypes() []string {
	return e.parserRegistry.SupportedTypes()
}

// GetStats returns simple runtime/feature info for diagnostics.
func (e *Enricher) GetStats() map[string]interface{} {
	lex := e.assembler.Analyzer().Lexicon()
	return map[string]interface{}{
		"supported_types": e.GetSupportedTypes(),
		"config":          e.config,
		"topics":          len(lex.Topics),
		"languages":       len(lex.Languages),
	}
}
