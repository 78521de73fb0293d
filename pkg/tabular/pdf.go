package tabular

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/mchmarny/cargoscan/pkg/manifest"
)

const (
	pdfColumnsDefault  = 4
	pdfMaxRowsDefault  = 10
	pdfCellWidth       = 40
	pdfCellHeight      = 10
	pdfMaxCellChars    = 20
	pdfFontFamily      = "Arial"
	pdfFontSize        = 10
	pdfCellBorder      = "1"
	pdfCellNoLineBreak = 0
)

// PDFOptions controls the fixed-column table renderer. Zero values use the defaults.
type PDFOptions struct {
	Columns int
	MaxRows int
}

func (o PDFOptions) withDefaults() PDFOptions {
	if o.Columns <= 0 || o.Columns > len(ExportColumns) {
		o.Columns = pdfColumnsDefault
	}
	if o.MaxRows <= 0 {
		o.MaxRows = pdfMaxRowsDefault
	}
	return o
}

// WritePDF renders the leading export columns of the top records as a bordered table.
func WritePDF(w io.Writer, res *manifest.RankedResult, opts PDFOptions) error {
	if res == nil {
		return errNilResult
	}
	opts = opts.withDefaults()

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "", pdfFontSize)

	for _, h := range ExportColumns[:opts.Columns] {
		pdf.CellFormat(pdfCellWidth, pdfCellHeight, tr(h), pdfCellBorder, pdfCellNoLineBreak, "", false, 0, "")
	}
	pdf.Ln(-1)

	for _, r := range manifest.Select(res.Records, opts.MaxRows) {
		for _, v := range exportStrings(r, 0)[:opts.Columns] {
			pdf.CellFormat(pdfCellWidth, pdfCellHeight, tr(clip(v, pdfMaxCellChars)), pdfCellBorder, pdfCellNoLineBreak, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
