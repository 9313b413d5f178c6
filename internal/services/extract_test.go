package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTXT(t *testing.T) {
	svc := NewExtractService()

	result, err := svc.Extract([]byte("  hello world, plain text content  \n"), "txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello world, plain text content" {
		t.Errorf("text = %q", result.Text)
	}
	if result.WordCount != 5 {
		t.Errorf("word count = %d, want 5", result.WordCount)
	}
	if result.PageCount != 1 {
		t.Errorf("page count = %d, want 1", result.PageCount)
	}
}

func TestExtractTXTLatin1Fallback(t *testing.T) {
	svc := NewExtractService()

	// 0xE9 is not valid UTF-8 on its own; Latin-1 maps it to é.
	data := []byte("caf\xe9 menu for the semester")
	result, err := svc.Extract(data, "txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Text, "café") {
		t.Errorf("expected Latin-1 decoded text, got %q", result.Text)
	}
}

func TestExtractTooShortFails(t *testing.T) {
	svc := NewExtractService()

	if _, err := svc.Extract([]byte("   hi   "), "txt"); err == nil {
		t.Fatal("expected error for text under the minimum length")
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	svc := NewExtractService()

	if _, err := svc.Extract([]byte("whatever content this is"), "epub"); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	svc := NewExtractService()

	if _, err := svc.Extract([]byte("definitely not a pdf file at all"), "pdf"); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}

const docxWithTable = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph of the lecture.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph with </w:t></w:r><w:r><w:t>two runs.</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Term</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Definition</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Osmosis</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Diffusion of water</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>Closing paragraph after the table.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDOCX(t *testing.T) {
	svc := NewExtractService()
	data := buildZip(t, map[string]string{"word/document.xml": docxWithTable})

	result, err := svc.Extract(data, "docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "First paragraph of the lecture.\n" +
		"Second paragraph with two runs.\n" +
		"Closing paragraph after the table.\n" +
		"Term | Definition\n" +
		"Osmosis | Diffusion of water"
	if result.Text != want {
		t.Errorf("text mismatch:\ngot:\n%s\nwant:\n%s", result.Text, want)
	}
	if result.PageCount != 1 {
		t.Errorf("page count = %d, want 1", result.PageCount)
	}
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	svc := NewExtractService()
	data := buildZip(t, map[string]string{"word/styles.xml": "<w:styles/>"})

	if _, err := svc.Extract(data, "docx"); err == nil {
		t.Fatal("expected error when word/document.xml is missing")
	}
}

func TestExtractDOCXPageCountFromWords(t *testing.T) {
	svc := NewExtractService()

	// 1200 words should approximate to 2 pages.
	var b strings.Builder
	b.WriteString(`<w:document xmlns:w="http://x"><w:body><w:p><w:r><w:t>`)
	for i := 0; i < 1200; i++ {
		b.WriteString("word ")
	}
	b.WriteString(`</w:t></w:r></w:p></w:body></w:document>`)
	data := buildZip(t, map[string]string{"word/document.xml": b.String()})

	result, err := svc.Extract(data, "docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.WordCount != 1200 {
		t.Errorf("word count = %d, want 1200", result.WordCount)
	}
	if result.PageCount != 2 {
		t.Errorf("page count = %d, want 2", result.PageCount)
	}
}

const slideXMLTemplate = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody><a:p><a:r><a:t>%CONTENT%</a:t></a:r></a:p></p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func slideXML(content string) string {
	return strings.ReplaceAll(slideXMLTemplate, "%CONTENT%", content)
}

func TestExtractPPTX(t *testing.T) {
	svc := NewExtractService()
	data := buildZip(t, map[string]string{
		"ppt/slides/slide2.xml":  slideXML("Second slide content here"),
		"ppt/slides/slide1.xml":  slideXML("First slide content here"),
		"ppt/slides/slide3.xml":  slideXML(""),
		"ppt/presentation.xml":   "<p:presentation/>",
		"ppt/slides/_rels/r.xml": "<Relationships/>",
	})

	result, err := svc.Extract(data, "pptx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Slides come back in numeric order regardless of archive order.
	firstIdx := strings.Index(result.Text, "--- Slide 1 ---")
	secondIdx := strings.Index(result.Text, "--- Slide 2 ---")
	if firstIdx == -1 || secondIdx == -1 || firstIdx > secondIdx {
		t.Errorf("slide markers missing or out of order:\n%s", result.Text)
	}
	if !strings.Contains(result.Text, "First slide content here") {
		t.Errorf("missing slide 1 text:\n%s", result.Text)
	}

	// The empty slide contributes neither a marker nor a count.
	if strings.Contains(result.Text, "--- Slide 3 ---") {
		t.Errorf("empty slide should be skipped:\n%s", result.Text)
	}
	if result.PageCount != 2 {
		t.Errorf("slide count = %d, want 2", result.PageCount)
	}
}

func TestNormalizeExtractedText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\r\nc", "a\nb\nc"},
		{"collapse blanks", "a\n\n\n\nb", "a\n\nb"},
		{"trims lines", "  a  \n  b  ", "a\nb"},
		{"trims edges", "\n\n a \n\n", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeExtractedText(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
