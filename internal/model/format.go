package model

import (
	"fmt"
	"strings"
)

// OutputFormat is the binary format a report is rendered into.
type OutputFormat string

const (
	FormatPDF   OutputFormat = "PDF"
	FormatExcel OutputFormat = "Excel"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ParseOutputFormat accepts "PDF", "Excel" and "xlsx" in any case.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Extension returns the file extension, without the dot.
func (f OutputFormat) Extension() string {
	if f == FormatPDF {
		return "pdf"
	}
	return "xlsx"
}

// ContentTypeFor derives the mime type from a filename extension.
func ContentTypeFor(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return ContentTypePDF
	}
	return ContentTypeXLSX
}
