package render

import (
	"io"

	"github.com/go-pdf/fpdf"

	"memberreports/internal/model"
)

const (
	pageMargin = 0.5
	lineHeight = 0.22
	rowHeight  = 0.24
	// widest column before proportional scaling, in inches
	maxColumn = 2.5
)

func (r *Renderer) newDocument() (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "in", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func (r *Renderer) tablePDF(w io.Writer, p model.Payload) error {
	pdf, tr := r.newDocument()
	pdf.SetTitle(tr(p.Title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 0.4, tr(p.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, lineHeight, "Generated on "+r.now().In(r.loc).Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(0.2)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 0.3, "Summary", "", 1, "L", false, 0, "")
	for _, e := range p.Summary {
		if e.Nested() {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, lineHeight, tr(Humanize(e.Key)+":"), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			for _, c := range e.Children {
				pdf.SetX(pageMargin + 0.3)
				pdf.CellFormat(0, lineHeight, tr("- "+Humanize(c.Key)+": "+model.FormatValue(c.Value)), "", 1, "L", false, 0, "")
			}
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		label := tr(Humanize(e.Key) + ": ")
		pdf.CellFormat(pdf.GetStringWidth(label)+0.02, lineHeight, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, tr(model.FormatValue(e.Value)), "", 1, "L", false, 0, "")
	}

	if len(p.Rows) > 0 {
		pdf.Ln(0.25)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 0.3, "Detailed Data", "", 1, "L", false, 0, "")
		drawTable(pdf, tr, p.Rows)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, rows []model.Row) {
	headers := rows[0].Keys()
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(headers))
		for j, key := range headers {
			v, _ := row.Get(key)
			cells[i][j] = tr(model.FormatValue(v))
		}
	}
	widths := columnWidths(pdf, headers, cells)

	_, pageH := pdf.GetPageSize()
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 220, 220)
		for j, h := range headers {
			pdf.CellFormat(widths[j], rowHeight, fit(tr(h), widths[j]-0.08, pdf.GetStringWidth), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	header()
	for i, row := range cells {
		if pdf.GetY()+rowHeight > pageH-pageMargin {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		for j, c := range row {
			pdf.CellFormat(widths[j], rowHeight, fit(c, widths[j]-0.08, pdf.GetStringWidth), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// columnWidths sizes columns to their widest cell, capped at maxColumn, then
// scales them to the printable width.
func columnWidths(pdf *fpdf.Fpdf, headers []string, cells [][]string) []float64 {
	pageW, _ := pdf.GetPageSize()
	avail := pageW - 2*pageMargin

	widths := make([]float64, len(headers))
	pdf.SetFont("Helvetica", "B", 9)
	for j, h := range headers {
		widths[j] = pdf.GetStringWidth(h) + 0.12
	}
	pdf.SetFont("Helvetica", "", 8)
	for _, row := range cells {
		for j, c := range row {
			if w := pdf.GetStringWidth(c) + 0.12; w > widths[j] {
				widths[j] = w
			}
		}
	}
	total := 0.0
	for j := range widths {
		if widths[j] > maxColumn {
			widths[j] = maxColumn
		}
		total += widths[j]
	}
	if total > 0 {
		scale := avail / total
		for j := range widths {
			widths[j] *= scale
		}
	}
	return widths
}
