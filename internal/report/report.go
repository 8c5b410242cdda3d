// Package report lays out the interview analysis as a downloadable PDF.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/chaz8081/mock-interviewer/internal/config"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

// MIME is the content type of rendered reports.
const MIME = "application/pdf"

// Title heads every report.
const Title = "Interview Performance Report"

// Layout in points.
const (
	margin         = 72
	titleSize      = 24
	titleHeight    = 28
	titleSpacing   = 12
	headingSize    = 12
	headingHeight  = 16
	headingSpacing = 20
	contentSize    = 12
	leading        = 16
	blockSpacing   = 16
)

// customFamily names the optional UTF-8 font once registered.
const customFamily = "ReportUTF8"

// RenderError reports a PDF that could not be produced.
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Input is everything a report is built from. ResumeText is carried for
// completeness but not laid out.
type Input struct {
	Analysis    string
	Domain      types.Domain
	ResumeText  string
	GeneratedAt time.Time
}

// Document is the report content before layout.
type Document struct {
	Title       string
	Subheadings []string
	Blocks      []string
}

// File is a rendered report ready for download.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Build splits the analysis into blank-line-delimited blocks, in order.
// Blocks that are empty after trimming are dropped.
func Build(in Input) Document {
	doc := Document{
		Title: Title,
		Subheadings: []string{
			"Date: " + in.GeneratedAt.Format("January 02, 2006"),
			"Domain: " + string(in.Domain),
		},
	}
	for _, section := range strings.Split(in.Analysis, "\n\n") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		doc.Blocks = append(doc.Blocks, section)
	}
	return doc
}

// Filename returns the download name for a report generated at ts.
func Filename(ts time.Time) string {
	return "interview_report_" + ts.Format("20060102_150405") + ".pdf"
}

// Renderer writes Documents as US Letter PDFs.
type Renderer struct {
	fontDir  string
	fontFile string
}

// NewRenderer creates a Renderer. When cfg names a font file it is used
// for all text; otherwise the core Helvetica font is used.
func NewRenderer(cfg config.ReportConfig) *Renderer {
	return &Renderer{fontDir: cfg.FontDir, fontFile: cfg.FontFile}
}

// Render produces the PDF bytes for in. Output is identical for identical
// input, including GeneratedAt.
func (r *Renderer) Render(in Input) (data []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			data, err = nil, &RenderError{Message: fmt.Sprintf("panic during layout: %v", rec)}
		}
	}()

	if in.GeneratedAt.IsZero() {
		return nil, &RenderError{Message: "missing report timestamp"}
	}
	doc := Build(in)

	pdf := fpdf.New("P", "pt", "Letter", r.fontDir)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetModificationDate(in.GeneratedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)

	family, boldStyle := "Helvetica", "B"
	text := newEncoder(pdf.UnicodeTranslatorFromDescriptor(""))
	if r.fontFile != "" {
		pdf.AddUTF8Font(customFamily, "", r.fontFile)
		if err := pdf.Error(); err != nil {
			return nil, &RenderError{Message: "load font " + r.fontFile, Cause: err}
		}
		family, boldStyle = customFamily, ""
		text = dropControl
	}

	pdf.AddPage()

	pdf.SetFont(family, boldStyle, titleSize)
	pdf.CellFormat(0, titleHeight, text(doc.Title), "", 1, "C", false, 0, "")
	pdf.Ln(titleSpacing)

	pdf.SetFont(family, "", headingSize)
	pdf.SetTextColor(128, 128, 128)
	for _, line := range doc.Subheadings {
		pdf.CellFormat(0, headingHeight, text(line), "", 1, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(headingSpacing)

	pdf.SetFont(family, "", contentSize)
	for _, block := range doc.Blocks {
		pdf.MultiCell(0, leading, text(block), "", "L", false)
		pdf.Ln(blockSpacing)
	}

	if err := pdf.Error(); err != nil {
		return nil, &RenderError{Message: "lay out report", Cause: err}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Message: "write pdf", Cause: err}
	}
	return buf.Bytes(), nil
}

// newEncoder converts UTF-8 to the cp1252 bytes core fonts expect. Runes
// with no cp1252 code point are dropped.
func newEncoder(translate func(string) string) func(string) string {
	return func(s string) string {
		var b strings.Builder
		for _, r := range dropControl(s) {
			if r < 0x80 {
				b.WriteRune(r)
				continue
			}
			if enc := translate(string(r)); enc != "" && enc != "." {
				b.WriteString(enc)
			}
		}
		return b.String()
	}
}

// dropControl removes control characters other than newline.
func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if (r < 0x20 && r != '\n') || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
