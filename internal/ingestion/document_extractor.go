package ingestion

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Format identifies a supported résumé document type
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor DOCX
var ErrUnsupportedFormat = errors.New("unsupported file type")

// wordNS is the WordprocessingML main namespace
const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// FormatFromFilename maps a file name to its Format by extension
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ExtractText converts a document to plain text. PDF pages with no
// extractable text are skipped; DOCX paragraphs are all kept, empty ones
// included. Units are joined with "\n". The format is trusted as given.
func ExtractText(format Format, data []byte) (string, error) {
	switch format {
	case FormatPDF:
		pages, err := pdfPageTexts(data)
		if err != nil {
			return "", err
		}
		return joinNonEmpty(pages), nil
	case FormatDOCX:
		paragraphs, err := docxParagraphs(data)
		if err != nil {
			return "", err
		}
		return strings.Join(paragraphs, "\n"), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// pdfPageTexts returns the plain text of each page in order. A page that
// fails to decode contributes an empty string.
func pdfPageTexts(data []byte) (texts []string, err error) {
	// The decoder panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	numPages := reader.NumPage()
	texts = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// joinNonEmpty joins the non-empty entries with "\n"
func joinNonEmpty(texts []string) string {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}

// docxParagraphs returns the text of every body-level paragraph in order
func docxParagraphs(data []byte) ([]string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return paragraphsFromDocumentXML(doc.Editable().GetContent())
}

// paragraphsFromDocumentXML walks word/document.xml and collects the text of
// each w:p that is a direct child of w:body. Paragraphs nested in tables or
// text boxes are not part of the body paragraph list.
func paragraphsFromDocumentXML(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		stack      []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
		skipDepth  int // >0 while inside a text box within the paragraph
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if t.Name.Space != wordNS {
				local = ""
			}
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, local)

			switch {
			case !inPara && local == "p" && parent == "body":
				inPara = true
				paraDepth = len(stack)
				current.Reset()
			case inPara && local == "txbxContent":
				skipDepth++
			case inPara && skipDepth == 0 && parent == "r" && local == "tab":
				current.WriteByte('\t')
			case inPara && skipDepth == 0 && parent == "r" && local == "cr":
				current.WriteByte('\n')
			case inPara && skipDepth == 0 && parent == "r" && local == "br" && isLineBreak(t):
				current.WriteByte('\n')
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			local := stack[len(stack)-1]
			if inPara && local == "txbxContent" {
				skipDepth--
			}
			if inPara && len(stack) == paraDepth {
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if inPara && skipDepth == 0 && len(stack) > 0 && stack[len(stack)-1] == "t" {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

// isLineBreak reports whether a w:br is a text-wrapping break. Page and
// column breaks carry no text.
func isLineBreak(br xml.StartElement) bool {
	for _, attr := range br.Attr {
		if attr.Name.Local == "type" && attr.Name.Space == wordNS {
			return attr.Value == "" || attr.Value == "textWrapping"
		}
	}
	return true
}

// SniffFormat returns the format implied by the leading magic bytes, or ""
func SniffFormat(content []byte) Format {
	switch {
	case bytes.HasPrefix(content, []byte("%PDF-")):
		return FormatPDF
	case bytes.HasPrefix(content, []byte("PK\x03\x04")):
		return FormatDOCX
	default:
		return ""
	}
}
