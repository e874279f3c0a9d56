package parser

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"strings"
)

// EmailParser extracts the subject, sender and body of RFC 5322 messages.
type EmailParser struct{}

// NewEmailParser returns a new EmailParser.
func NewEmailParser() *EmailParser { return &EmailParser{} }

// Parse puts the decoded Subject on the first line so title extraction picks
// it up, followed by From/To/Date lines, a blank line and the body.
func (p *EmailParser) Parse(content []byte) (string, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: read message: %v", ErrInvalidContent, err)
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", fmt.Errorf("read message body: %w", err)
	}

	dec := mime.WordDecoder{}
	var out strings.Builder
	for _, name := range []string{"Subject", "From", "To", "Date"} {
		val := msg.Header.Get(name)
		if val == "" {
			continue
		}
		if decoded, err := dec.DecodeHeader(val); err == nil && decoded != "" {
			val = decoded
		}
		if name == "Subject" {
			out.WriteString(val)
		} else {
			out.WriteString(name + ": " + val)
		}
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
	out.Write(bytes.TrimSpace(body))

	return out.String(), nil
}

// SupportedTypes returns the file extensions handled by EmailParser.
func (p *EmailParser) SupportedTypes() []string {
	return []string{"eml", "email", "message/rfc822"}
}
