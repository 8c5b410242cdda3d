// Package extract pulls the plain text layer out of resume PDFs.
package extract

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ExtractionError reports a resume that could not be read as a PDF.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Extractor reads PDF text with MuPDF.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText returns the text of every page concatenated in page order
// with no separators added. Pages without a text layer contribute "".
func (Extractor) ExtractText(pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", &ExtractionError{Message: "empty document"}
	}
	if !looksLikePDF(pdf) {
		return "", &ExtractionError{Message: "missing %PDF header"}
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", &ExtractionError{Message: "open document", Cause: err}
	}
	defer doc.Close()

	if doc.NumPage() <= 0 {
		return "", &ExtractionError{Message: "document has no pages"}
	}

	var b strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return "", &ExtractionError{Message: fmt.Sprintf("read page %d", page+1), Cause: err}
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// looksLikePDF checks for the header within the first KiB, where
// readers tolerate leading garbage.
func looksLikePDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return strings.Contains(string(head), "%PDF-")
}
