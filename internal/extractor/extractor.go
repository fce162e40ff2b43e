// Package extractor turns uploaded report files into plain text for the
// parsers. Premium summaries arrive either as UTF-8 text or as PDFs; PDFs
// are extracted page by page and concatenated in document order.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts the text of every page, in order, as one string.
// An unreadable document returns an error rather than partial text.
func PDFText(r io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("extracting page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// SummaryText returns the text content of an uploaded premium summary file.
// The filename extension decides whether PDF extraction is needed; anything
// that is not a PDF is treated as UTF-8 text as-is.
func SummaryText(filename string, data []byte) (string, error) {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return PDFText(bytes.NewReader(data), int64(len(data)))
	}
	return string(data), nil
}
