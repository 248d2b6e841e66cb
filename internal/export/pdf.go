// Package export renders export documents and writes them somewhere the
// user can fetch them from.
package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"fitdiary/internal/aggregate"
	"fitdiary/internal/models"
)

const (
	CSVName        = "health_data.csv"
	CSVContentType = "text/csv"
	PDFName        = "health_data.pdf"
	PDFContentType = "application/pdf"
)

// Layout of the tabular PDF, in points on an A4 page.
const (
	PageWidth    = 595.0
	PageHeight   = 842.0
	StartX       = 10.0
	StartY       = 25.0
	RowHeight    = 20.0
	FontSize     = 12.0
	BottomMargin = 20.0
)

// ColumnOffsets are x offsets from StartX, one per aggregate.Columns entry.
var ColumnOffsets = []float64{0, 80, 180, 280, 360, 440}

// RowsPerPage is how many data rows fit under the header of one page.
func RowsPerPage() int {
	usable := PageHeight - BottomMargin - (StartY + RowHeight)
	return int(usable/RowHeight) + 1
}

// PageCount is the number of pages RenderPDF produces for n rows.
func PageCount(n int) int {
	per := RowsPerPage()
	if n <= per {
		return 1
	}
	return (n + per - 1) / per
}

// RenderPDF draws t as a table with a bold header. Rows that do not fit
// continue on a new page under a repeated header. Core PDF fonts cannot
// encode emoji, so known mood glyphs are written as the mood name.
func RenderPDF(w io.Writer, t aggregate.Table) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	y := newPage(pdf, t.Header, tr)
	per := RowsPerPage()
	for i, row := range t.Rows {
		if i > 0 && i%per == 0 {
			y = newPage(pdf, t.Header, tr)
		}
		for col, cell := range row {
			if col >= len(ColumnOffsets) {
				break
			}
			if col == 4 && models.IsMoodGlyph(cell) {
				cell = models.MoodFromGlyph(cell).Name
			}
			pdf.Text(StartX+ColumnOffsets[col], y, tr(cell))
		}
		y += RowHeight
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// newPage starts a page, draws the bold header and returns the baseline of
// the first data row.
func newPage(pdf *fpdf.Fpdf, header []string, tr func(string) string) float64 {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", FontSize)
	for col, h := range header {
		if col >= len(ColumnOffsets) {
			break
		}
		pdf.Text(StartX+ColumnOffsets[col], StartY, tr(h))
	}
	pdf.SetFont("Helvetica", "", FontSize)
	return StartY + RowHeight
}
