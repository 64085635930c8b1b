package source

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ppiankov/inspectra/internal/model"
)

// PDFAdapter extracts text rows from PDF documents with ledongthuc/pdf,
// optionally validating the file with pdfcpu first
type PDFAdapter struct {
	validate bool
}

// NewPDFAdapter creates a new PDF adapter
func NewPDFAdapter(validate bool) *PDFAdapter {
	return &PDFAdapter{validate: validate}
}

// Name returns the adapter name
func (a *PDFAdapter) Name() string {
	return "pdf"
}

// CanHandle matches application/pdf and .pdf files
func (a *PDFAdapter) CanHandle(location string, contentType string) bool {
	return contentType == "application/pdf" || extension(location) == ".pdf"
}

// Pages returns one page per PDF page, rows top to bottom. Pages whose content
// cannot be decoded are returned empty so numbering stays aligned with the document.
func (a *PDFAdapter) Pages(ctx context.Context, data []byte) (pages []model.Page, err error) {
	if a.validate {
		if err := Validate(data); err != nil {
			return nil, err
		}
	}

	// ledongthuc/pdf panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	n := r.NumPage()
	pages = make([]model.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := model.Page{Number: i}
		if p := r.Page(i); !p.V.IsNull() {
			page.Lines = pageLines(p)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

var disableConfigDir sync.Once

// Validate checks the PDF structure with pdfcpu in relaxed mode
func Validate(data []byte) error {
	// pdfcpu would otherwise create a config directory under the user's home
	disableConfigDir.Do(api.DisableConfigDir)

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// pageLines extracts text row by row, falling back to plain text
func pageLines(p pdf.Page) []string {
	rows, err := p.GetTextByRow()
	if err != nil {
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil
		}
		return strings.Split(text, "\n")
	}

	// PDF Y grows upwards, so the top row has the largest position
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	var lines []string
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		if line := rowText(row.Content); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// rowText joins the text runs of a row left to right, inserting a space where
// the gap between runs exceeds a fifth of the font size
func rowText(texts []pdf.Text) string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var buf strings.Builder
	for i, t := range sorted {
		buf.WriteString(t.S)
		if i == len(sorted)-1 {
			break
		}
		fontSize := t.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		if gap := sorted[i+1].X - (t.X + t.W); gap > fontSize*0.2 {
			buf.WriteByte(' ')
		}
	}
	return buf.String()
}
