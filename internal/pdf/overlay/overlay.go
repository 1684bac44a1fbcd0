// Package overlay draws text runs on top of an existing PDF whose pages are imported
// unchanged. It serves templates that carry no interactive form.
package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// TextRun is one piece of text placed at a fixed point of the first page.
// X and Y are PDF user-space coordinates: points from the bottom-left corner.
type TextRun struct {
	X    float64
	Y    float64
	Text string
	Bold bool
	Size float64
}

// Font names the two weights used for runs
type Font struct {
	Family string
	Size   float64
}

// DefaultFont is the standard Helvetica family
var DefaultFont = Font{Family: "Helvetica", Size: 10}

// Renderer imports template pages and overlays runs on page one
type Renderer struct {
	Font Font
}

// NewRenderer returns a renderer using DefaultFont
func NewRenderer() *Renderer {
	return &Renderer{Font: DefaultFont}
}

// Render returns a new document made of every template page, with runs drawn on
// the first one.
func (r *Renderer) Render(templateData []byte, runs []TextRun) ([]byte, error) {
	if len(templateData) == 0 {
		return nil, errors.New("template data is empty")
	}

	dims, err := pageDims(templateData)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(templateData))

	for i, dim := range dims {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: dim.width, Ht: dim.height})

		tpl := importer.ImportPageFromStream(pdf, &rs, i+1, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, dim.width, dim.height)

		if i == 0 {
			r.drawRuns(pdf, runs, dim.height)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to compose PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawRuns(pdf *fpdf.Fpdf, runs []TextRun, pageHeight float64) {
	pdf.SetTextColor(0, 0, 0)
	for _, run := range runs {
		if run.Text == "" {
			continue
		}

		style := ""
		if run.Bold {
			style = "B"
		}
		size := run.Size
		if size <= 0 {
			size = r.Font.Size
		}
		pdf.SetFont(r.Font.Family, style, size)

		// fpdf measures y from the top edge
		pdf.Text(run.X, pageHeight-run.Y, encodeCoreFont(run.Text))
	}
}

// encodeCoreFont converts s to cp1252, the encoding of fpdf core fonts. Runes the
// code page lacks become '?' without affecting the rest of the run.
func encodeCoreFont(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, err := enc.String(s)
	if err != nil {
		return strings.Repeat("?", len([]rune(s)))
	}
	return strings.ReplaceAll(out, "\x1a", "?")
}

type dim struct {
	width  float64
	height float64
}

func pageDims(data []byte) ([]dim, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	pageDims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if len(pageDims) == 0 {
		return nil, errors.New("template has no pages")
	}

	dims := make([]dim, 0, len(pageDims))
	for _, d := range pageDims {
		dims = append(dims, dim{width: d.Width, height: d.Height})
	}
	return dims, nil
}
