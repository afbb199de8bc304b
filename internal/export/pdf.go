package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
)

const (
	pdfMargin     = 10.0
	pdfRowHeight  = 7.0
	pdfFontSize   = 9.0
	pdfTitleSize  = 14.0
	pdfEllipsis   = "..."
	pdfPageLayout = "L"
)

// PDF renders t as a landscape A4 table. Column headers repeat on every page and
// cell text that does not fit is truncated with an ellipsis.
func PDF(t Table, now time.Time) ([]byte, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("pdf export: no columns")
	}

	pdf := gofpdf.New(pdfPageLayout, "mm", "A4", "")
	pdf.SetTitle(t.Title, false)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	widths := columnWidths(t.Columns, pageW-2*pdfMargin)

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", pdfTitleSize)
			pdf.CellFormat(0, 10, tr(t.Title), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", pdfFontSize)
			pdf.CellFormat(0, 10, now.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range t.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(fit(pdf, c.Header, widths[i])), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	if len(t.Rows) == 0 {
		pdf.CellFormat(0, pdfRowHeight, "No records.", "1", 1, "C", false, 0, "")
	}
	for _, row := range t.Rows {
		for i := range t.Columns {
			var v string
			if i < len(row) {
				v = row[i]
			}
			pdf.CellFormat(widths[i], pdfRowHeight, tr(fit(pdf, v, widths[i])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf export: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column, usable float64) []float64 {
	var total float64
	for _, c := range cols {
		total += weight(c)
	}
	out := make([]float64, len(cols))
	for i, c := range cols {
		out[i] = usable * weight(c) / total
	}
	return out
}

func weight(c Column) float64 {
	if c.Width <= 0 {
		return 1
	}
	return c.Width
}

// fit shortens s until it fits width (less cell padding).
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	limit := width - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+pdfEllipsis) > limit {
		r = r[:len(r)-1]
	}
	return string(r) + pdfEllipsis
}
