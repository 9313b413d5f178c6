package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// minExtractedChars is the threshold below which an extraction is treated
// as a failure: the document gets empty text and status error.
const minExtractedChars = 10

// wordsPerPage approximates pages for formats without a native page
// concept (docx, txt).
const wordsPerPage = 500

// Extraction is the result of converting document bytes to plain text.
type Extraction struct {
	Text      string
	PageCount int
	WordCount int
}

type extractFunc func(data []byte) (text string, pageCount int, err error)

type ExtractService struct {
	byType map[string]extractFunc
}

func NewExtractService() *ExtractService {
	s := &ExtractService{}
	// Closed dispatch table: one handler per supported file type.
	s.byType = map[string]extractFunc{
		"pdf":  s.extractPDF,
		"docx": s.extractDOCX,
		"pptx": s.extractPPTX,
		"txt":  s.extractTXT,
	}
	return s
}

// Extract converts document bytes into plain text plus page and word counts.
// Any failure (unsupported type, corrupt file, too little text) returns an
// error; it never panics the request.
func (s *ExtractService) Extract(data []byte, fileType string) (result *Extraction, err error) {
	fn, ok := s.byType[fileType]
	if !ok {
		return nil, fmt.Errorf("unsupported file type for text extraction: %s", fileType)
	}

	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("extraction panic for %s: %v", fileType, r)
		}
	}()

	text, pageCount, err := fn(data)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if len(text) < minExtractedChars {
		return nil, fmt.Errorf("extracted text too short: %d characters", len(text))
	}

	wordCount := len(strings.Fields(text))
	if fileType == "docx" || fileType == "txt" {
		pageCount = wordCount / wordsPerPage
		if pageCount < 1 {
			pageCount = 1
		}
	}

	return &Extraction{Text: text, PageCount: pageCount, WordCount: wordCount}, nil
}

func (s *ExtractService) extractPDF(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	totalPages := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages rather than failing the document.
			log.Printf("pdf extraction: skipping unreadable page %d: %v", pageIndex, err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", pageIndex, content)
	}

	return normalizeExtractedText(b.String()), totalPages, nil
}

func (s *ExtractService) extractDOCX(data []byte) (string, int, error) {
	documentXML, err := readZipEntry(data, "word/document.xml")
	if err != nil {
		return "", 0, err
	}

	paragraphs, tableRows, err := parseDOCXBody(documentXML)
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse docx body: %w", err)
	}

	// Paragraphs in order, then table rows as pipe-joined cell text.
	parts := append(paragraphs, tableRows...)
	return normalizeExtractedText(strings.Join(parts, "\n")), 1, nil
}

var slideEntryPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (s *ExtractService) extractPPTX(data []byte) (string, int, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pptx: %w", err)
	}

	type slideEntry struct {
		num  int
		file *zip.File
	}
	var slides []slideEntry
	for _, f := range r.File {
		m := slideEntryPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slideEntry{num: num, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	slideCount := 0
	for _, slide := range slides {
		rc, err := slide.file.Open()
		if err != nil {
			log.Printf("pptx extraction: skipping unreadable slide %d: %v", slide.num, err)
			continue
		}
		slideXML, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			log.Printf("pptx extraction: skipping unreadable slide %d: %v", slide.num, err)
			continue
		}

		slideText := strings.TrimSpace(parseSlideText(slideXML))
		if slideText == "" {
			continue
		}

		slideCount++
		fmt.Fprintf(&b, "\n--- Slide %d ---\n%s\n", slide.num, slideText)
	}

	return normalizeExtractedText(b.String()), slideCount, nil
}

func (s *ExtractService) extractTXT(data []byte) (string, int, error) {
	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		// Latin-1 fallback: every byte maps directly to the same code point.
		runes := make([]rune, len(data))
		for i, c := range data {
			runes[i] = rune(c)
		}
		text = string(runes)
	}
	return normalizeExtractedText(text), 1, nil
}

func readZipEntry(data []byte, name string) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	return nil, fmt.Errorf("%s not found in archive", name)
}

// parseDOCXBody walks word/document.xml and separates top-level paragraph
// text from table rows (cells pipe-joined, as "a | b | c").
func parseDOCXBody(documentXML []byte) (paragraphs, tableRows []string, err error) {
	decoder := xml.NewDecoder(bytes.NewReader(documentXML))

	tableDepth := 0
	inText := false
	var para, cell strings.Builder
	var row []string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				row = row[:0]
			case "tc":
				cell.Reset()
			case "p":
				if tableDepth == 0 {
					para.Reset()
				}
			case "t":
				inText = true
			case "br", "cr":
				if tableDepth > 0 {
					cell.WriteString(" ")
				} else {
					para.WriteString("\n")
				}
			case "tab":
				if tableDepth == 0 {
					para.WriteString("\t")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "tr":
				if tableDepth > 0 && len(row) > 0 {
					tableRows = append(tableRows, strings.Join(row, " | "))
				}
			case "tc":
				if text := strings.TrimSpace(cell.String()); text != "" {
					row = append(row, text)
				}
			case "p":
				if tableDepth == 0 {
					if text := strings.TrimSpace(para.String()); text != "" {
						paragraphs = append(paragraphs, text)
					}
				} else {
					cell.WriteString(" ")
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				cell.Write(t)
			} else {
				para.Write(t)
			}
		}
	}

	return paragraphs, tableRows, nil
}

// parseSlideText collects the text runs of one slide's XML, one line per
// paragraph, matching how presentation shapes expose their text.
func parseSlideText(slideXML []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(slideXML))

	inText := false
	var b strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String()
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
