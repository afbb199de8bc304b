// Package export renders list-screen rows as downloadable XLSX or PDF files.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Format is a download file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// ParseFormat accepts "xlsx" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Column is one table column. Width is a relative weight for PDF layout; zero means 1.
type Column struct {
	Header string
	Width  float64
}

// Table is the data handed to a renderer.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]string
}

// Download is a rendered file ready to stream.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Render renders t in the requested format. The file name is base plus the date.
func Render(f Format, t Table, base string, now time.Time) (Download, error) {
	name := fmt.Sprintf("%s-%s.%s", base, now.Format("20060102"), f)
	switch f {
	case FormatXLSX:
		data, err := XLSX(t)
		if err != nil {
			return Download{}, err
		}
		return Download{FileName: name, ContentType: ContentTypeXLSX, Data: data}, nil
	case FormatPDF:
		data, err := PDF(t, now)
		if err != nil {
			return Download{}, err
		}
		return Download{FileName: name, ContentType: ContentTypePDF, Data: data}, nil
	default:
		return Download{}, fmt.Errorf("unsupported export format %q", f)
	}
}

// Build projects items into a Table with one cell function per column.
func Build[T any](title string, cols []Column, items []T, cell func(T) []string) Table {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, cell(it))
	}
	return Table{Title: title, Columns: cols, Rows: rows}
}
