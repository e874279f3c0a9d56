package parser

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedType is returned when no parser is registered for a type.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrInvalidContent is returned when content does not match its declared format.
	ErrInvalidContent = errors.New("invalid content")
)

// Parser turns raw file bytes into plain text.
// Implementations declare the file extensions and MIME types they handle.
type Parser interface {
	Parse(content []byte) (string, error)
	SupportedTypes() []string
}

// Registry stores parsers by lower-cased extension or MIME type.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry and registers default parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}
	r.Register(NewTextParser())
	r.Register(NewEmailParser())
	r.Register(NewPDFParser())
	r.Register(NewDOCXParser())
	r.Register(NewImageParser())
	return r
}

// Register adds a parser for all of its supported types.
// Later registrations for the same type will overwrite earlier ones.
func (r *Registry) Register(p Parser) {
	for _, t := range p.SupportedTypes() {
		r.parsers[normalizeType(t)] = p
	}
}

// GetParser returns a parser for an extension ("pdf", ".pdf") or MIME type
// ("application/pdf; charset=binary").
func (r *Registry) GetParser(fileType string) (Parser, error) {
	if p, ok := r.parsers[normalizeType(fileType)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
}

// Resolve picks a parser for a file, trying the MIME type first and the
// filename extension second.
func (r *Registry) Resolve(filename, mimeType string) (Parser, error) {
	if mimeType != "" {
		if p, err := r.GetParser(mimeType); err == nil {
			return p, nil
		}
	}
	if ext := filepath.Ext(filename); ext != "" {
		if p, err := r.GetParser(ext); err == nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedType, filename, mimeType)
}

// SupportedTypes returns a sorted list of all registered file types.
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ParseByType is a convenience helper that resolves a parser by file type and parses content.
func (r *Registry) ParseByType(fileType string, content []byte) (string, error) {
	p, err := r.GetParser(fileType)
	if err != nil {
		return "", err
	}
	return p.Parse(content)
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if strings.Contains(t, "/") {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	return strings.TrimPrefix(t, ".")
}
