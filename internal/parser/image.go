package parser

// ImageParser accepts image files. No OCR engine is wired in, so images
// contribute no text and are analyzed on their file attributes alone.
type ImageParser struct{}

// NewImageParser returns a new ImageParser.
func NewImageParser() *ImageParser { return &ImageParser{} }

// Parse returns an empty string for any image payload.
func (p *ImageParser) Parse(content []byte) (string, error) {
	return "", nil
}

// SupportedTypes returns file types handled by ImageParser.
func (p *ImageParser) SupportedTypes() []string {
	return []string{"jpg", "jpeg", "png", "gif", "image/jpeg", "image/png", "image/gif"}
}
