package profile

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"tailorpro/internal/errors"
)

var (
	xmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// ExtractText returns the plain text of a PDF or DOCX resume.
func ExtractText(r Resume) (string, error) {
	var (
		text string
		err  error
	)

	switch r.MIMEType {
	case MIMETypePDF:
		text, err = extractPDFText(r.Data)
	case MIMETypeDOCX:
		text, err = extractDocxText(r.Data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedMediaType,
			fmt.Sprintf("cannot extract text from %q", r.MIMEType), nil)
	}
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeTextExtractionFailed,
			"failed to extract text from resume", err)
	}

	text = strings.TrimSpace(blankRunPattern.ReplaceAllString(text, "\n\n"))
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodeTextExtractionFailed,
			"resume contains no extractable text", nil)
	}
	return text, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	// GetContent returns document.xml; paragraphs become lines
	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	return html.UnescapeString(xmlTagPattern.ReplaceAllString(content, "")), nil
}
