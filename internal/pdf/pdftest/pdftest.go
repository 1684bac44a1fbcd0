// Package pdftest builds small PDF documents for tests: blank pages produced with
// fpdf, optionally carrying an AcroForm with text fields added through pdfcpu.
package pdftest

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// TextField describes one text field of a generated form
type TextField struct {
	Name  string
	Value string
}

// BlankPDF returns an A4 document with the given number of pages and no form
func BlankPDF(pages int) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Text(40, 40, fmt.Sprintf("MANDAT page %d", i+1))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// FormPDF returns a one-page document whose AcroForm holds the given text fields
func FormPDF(fields []TextField) ([]byte, error) {
	base, err := BlankPDF(1)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(base), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	refs := types.Array{}
	for i, field := range fields {
		value, err := types.EscapedUTF16String(field.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode value of %s: %w", field.Name, err)
		}
		d := types.Dict(map[string]types.Object{
			"FT":   types.Name("Tx"),
			"T":    types.StringLiteral(field.Name),
			"V":    types.StringLiteral(*value),
			"Rect": types.NewNumberArray(20, float64(800-18*i), 200, float64(814-18*i)),
		})
		ir, err := ctx.IndRefForNewObject(d)
		if err != nil {
			return nil, fmt.Errorf("failed to add field %s: %w", field.Name, err)
		}
		refs = append(refs, *ir)
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	rootDict["AcroForm"] = types.Dict(map[string]types.Object{"Fields": refs})

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
