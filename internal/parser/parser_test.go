package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"sort"
	"testing"
)

func TestRegistryGetParser(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		fileType string
		want     Parser
	}{
		{"txt", &TextParser{}},
		{".MD", &TextParser{}},
		{"text/plain; charset=utf-8", &TextParser{}},
		{"pdf", &PDFParser{}},
		{"application/pdf", &PDFParser{}},
		{"eml", &EmailParser{}},
		{"message/rfc822", &EmailParser{}},
		{"docx", &DOCXParser{}},
		{"image/png", &ImageParser{}},
	}
	for _, tt := range tests {
		p, err := r.GetParser(tt.fileType)
		if err != nil {
			t.Errorf("GetParser(%q) error = %v", tt.fileType, err)
			continue
		}
		if got, want := typeName(p), typeName(tt.want); got != want {
			t.Errorf("GetParser(%q) = %s, want %s", tt.fileType, got, want)
		}
	}

	if _, err := r.GetParser("xlsx"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("GetParser(xlsx) error = %v, want ErrUnsupportedType", err)
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *TextParser:
		return "text"
	case *PDFParser:
		return "pdf"
	case *EmailParser:
		return "email"
	case *DOCXParser:
		return "docx"
	case *ImageParser:
		return "image"
	}
	return "unknown"
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		filename string
		mimeType string
		want     string
	}{
		{"notes.bin", "text/plain", "text"},
		{"mail.eml", "", "email"},
		{"mail.eml", "application/x-unknown", "email"},
		{"scan.JPG", "", "image"},
	}
	for _, tt := range tests {
		p, err := r.Resolve(tt.filename, tt.mimeType)
		if err != nil {
			t.Errorf("Resolve(%q, %q) error = %v", tt.filename, tt.mimeType, err)
			continue
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %s, want %s", tt.filename, tt.mimeType, got, tt.want)
		}
	}

	if _, err := r.Resolve("archive", "application/zip"); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Resolve(archive) error = %v, want ErrUnsupportedType", err)
	}
}

func TestRegistrySupportedTypesSorted(t *testing.T) {
	types := NewRegistry().SupportedTypes()
	if !sort.StringsAreSorted(types) {
		t.Errorf("SupportedTypes() not sorted: %v", types)
	}
	seen := make(map[string]bool)
	for _, typ := range types {
		seen[typ] = true
	}
	for _, want := range []string{"txt", "pdf", "docx", "eml", "application/pdf"} {
		if !seen[want] {
			t.Errorf("SupportedTypes() missing %q", want)
		}
	}
}

func TestParseByType(t *testing.T) {
	r := NewRegistry()

	got, err := r.ParseByType("txt", []byte("hello"))
	if err != nil || got != "hello" {
		t.Errorf("ParseByType(txt) = %q, %v", got, err)
	}
	if _, err := r.ParseByType("rtf", []byte("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("ParseByType(rtf) error = %v", err)
	}
}

func TestTextParser(t *testing.T) {
	p := NewTextParser()

	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"crlf", []byte("Title\r\n\r\nBody\rEnd"), "Title\n\nBody\nEnd"},
		{"bom", []byte("\xef\xbb\xbfHello"), "Hello"},
		{"blank lines kept", []byte("a\n\n\nb"), "a\n\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := p.Parse([]byte{0xff, 0xfe, 0xfd}); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Parse(invalid utf-8) error = %v, want ErrInvalidContent", err)
	}
}

func TestEmailParser(t *testing.T) {
	p := NewEmailParser()

	msg := "Subject: =?utf-8?q?Caf=C3=A9_expansion_plan?=\r\n" +
		"From: Jane Smith <jane@example.com>\r\n" +
		"To: team@example.com\r\n" +
		"\r\n" +
		"Hello team,\r\nThe plan is attached.\r\n\r\n"

	got, err := p.Parse([]byte(msg))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "Café expansion plan\n" +
		"From: Jane Smith <jane@example.com>\n" +
		"To: team@example.com\n" +
		"\n" +
		"Hello team,\nThe plan is attached."
	if got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}

	if _, err := p.Parse([]byte("no headers here")); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Parse(malformed) error = %v, want ErrInvalidContent", err)
	}
}

func TestPDFParserRejectsMissingSignature(t *testing.T) {
	p := NewPDFParser()

	for _, in := range [][]byte{nil, []byte("%PD"), []byte("hello world")} {
		if _, err := p.Parse(in); !errors.Is(err, ErrInvalidContent) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidContent", in, err)
		}
	}
}

func TestPDFParserCorruptBody(t *testing.T) {
	if _, err := NewPDFParser().Parse([]byte("%PDF-1.4\ngarbage without xref")); err == nil {
		t.Error("expected error for corrupt pdf")
	}
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(docxBody)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDOCXParser(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Project Charter</w:t></w:r></w:p>
<w:p><w:r><w:t>Owner:</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve">Dana Fields</w:t></w:r></w:p>
<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>
</w:body>
</w:document>`

	got, err := NewDOCXParser().Parse(buildDOCX(t, doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "Project Charter\n\nOwner:\tDana Fields\n\nLine one\nLine two"
	if got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestDOCXParserInvalid(t *testing.T) {
	p := NewDOCXParser()

	if _, err := p.Parse([]byte("not a zip")); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Parse(not zip) error = %v, want ErrInvalidContent", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("other.xml"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(buf.Bytes()); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Parse(missing body) error = %v, want ErrInvalidContent", err)
	}
}

func TestImageParser(t *testing.T) {
	got, err := NewImageParser().Parse([]byte{0x89, 'P', 'N', 'G'})
	if err != nil || got != "" {
		t.Errorf("Parse() = %q, %v", got, err)
	}
}
