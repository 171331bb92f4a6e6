package report

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxGridRows = 100000

// ReadGrid parses spreadsheet bytes into a raw cell grid. The format is
// picked from the filename extension: modern .xlsx via excelize, legacy
// binary .xls via extrame/xls.
func ReadGrid(data []byte, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format: %s", filename)
	}
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	rows := wb.ReadAllCells(maxGridRows)
	if len(rows) == 0 {
		return nil, errors.New("xls workbook has no rows")
	}
	return rows, nil
}

// cell returns the trimmed value at column i, or "" when the row is short.
// Missing cells are never distinguished from empty ones downstream.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
