package render

import (
	"io"

	"github.com/xuri/excelize/v2"

	"memberreports/internal/model"
)

const (
	dataSheet    = "Data"
	summarySheet = "Summary"
	// Category of top-level scalar summary entries.
	generalCategory = "General"
)

func (r *Renderer) workbook(w io.Writer, p model.Payload) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	first := f.GetSheetName(0)
	if len(p.Rows) > 0 {
		if err := f.SetSheetName(first, dataSheet); err != nil {
			return err
		}
		if err := writeDataSheet(f, p.Rows, bold); err != nil {
			return err
		}
		if _, err := f.NewSheet(summarySheet); err != nil {
			return err
		}
	} else if err := f.SetSheetName(first, summarySheet); err != nil {
		return err
	}
	if err := writeSummarySheet(f, p.Summary, bold); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	_, err = f.WriteTo(w)
	return err
}

func writeDataSheet(f *excelize.File, rows []model.Row, headerStyle int) error {
	headers := rows[0].Keys()
	if err := setRow(f, dataSheet, 1, headers); err != nil {
		return err
	}
	for i, row := range rows {
		values := make([]string, len(headers))
		for j, key := range headers {
			v, _ := row.Get(key)
			values[j] = model.FormatValue(v)
		}
		if err := setRow(f, dataSheet, i+2, values); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(dataSheet, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(dataSheet, "A", lastCol, 18)
}

func writeSummarySheet(f *excelize.File, summary []model.SummaryEntry, headerStyle int) error {
	if err := setRow(f, summarySheet, 1, []string{"Category", "Metric", "Value"}); err != nil {
		return err
	}
	n := 2
	for _, e := range summary {
		if e.Nested() {
			for _, c := range e.Children {
				if err := setRow(f, summarySheet, n, []string{Humanize(e.Key), Humanize(c.Key), model.FormatValue(c.Value)}); err != nil {
					return err
				}
				n++
			}
			continue
		}
		if err := setRow(f, summarySheet, n, []string{generalCategory, Humanize(e.Key), model.FormatValue(e.Value)}); err != nil {
			return err
		}
		n++
	}
	if err := f.SetCellStyle(summarySheet, "A1", "C1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "C", 22)
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return f.SetSheetRow(sheet, cell, &row)
}
