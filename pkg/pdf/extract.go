package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText means the PDF parsed fine but produced no extractable text
// (scanned images, empty pages).
var ErrNoText = errors.New("no text could be extracted from the PDF")

// ExtractText pulls plain text from PDF bytes. Pages that fail to
// extract are skipped; an empty overall result is an error so callers
// don't enqueue analysis of nothing.
func ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	full := strings.Join(pages, "\n\n")
	if strings.TrimSpace(full) == "" {
		return "", ErrNoText
	}
	return full, nil
}
