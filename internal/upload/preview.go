package upload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/target/recon-console/internal/domain/model"
	apperrors "github.com/target/recon-console/internal/errors"
)

const maxXLSRows = 100000

// Preview reads the header and counts data rows. Blank rows are ignored. A file
// with no non-blank rows is a validation error.
func Preview(name string, data []byte) (model.UploadPreview, error) {
	rows, sheet, err := readRows(name, data)
	if err != nil {
		return model.UploadPreview{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "The file could not be read as a spreadsheet.")
	}

	rows = dropBlank(rows)
	if len(rows) == 0 {
		return model.UploadPreview{}, apperrors.ValidationField(FieldFile, "The worksheet is empty.")
	}

	header := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		header = append(header, strings.TrimSpace(h))
	}
	return model.UploadPreview{
		FileName: name,
		Sheet:    sheet,
		Header:   header,
		Rows:     len(rows) - 1,
	}, nil
}

func readRows(name string, data []byte) ([][]string, string, error) {
	switch Extension(name) {
	case ".csv":
		rows, err := readCSV(data)
		return rows, "", err
	case ".xls":
		return readXLS(data)
	case ".xlsx":
		return readXLSX(data)
	default:
		return nil, "", fmt.Errorf("unsupported extension %q", Extension(name))
	}
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
}

func readXLSX(data []byte) ([][]string, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, "", errors.New("no worksheet found")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, sheet, nil
}

func readXLS(data []byte) ([][]string, string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, "", fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, "", errors.New("no worksheet found")
	}
	name := ""
	if s := wb.GetSheet(0); s != nil {
		name = s.Name
	}
	return wb.ReadAllCells(maxXLSRows), name, nil
}

func dropBlank(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
