// Package workbook reads the first sheet of a bank export into raw rows.
package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Sheet is a grid of raw cell text. Rows may be ragged.
type Sheet struct {
	Name string
	Rows [][]string
}

// Cell returns the trimmed cell at (row, col), or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// Read opens path and returns its first sheet. The format is picked from the
// extension: .xlsx/.xlsm through excelize, .xls through the BIFF reader and
// .csv through encoding/csv.
func Read(path string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported workbook format %q", filepath.Ext(path))
	}
}

func readXLSX(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	// Raw values keep date cells as serial numbers instead of the
	// locale-dependent display format.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return &Sheet{Name: sheets[0], Rows: rows}, nil
}

func readXLS(path string) (*Sheet, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("workbook %s: could not read first sheet", path)
	}

	out := &Sheet{Name: sheet.Name}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			out.Rows = append(out.Rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// ReadCSV reads a delimited export. The delimiter is sniffed from the first
// line: ";" when it has more semicolons than commas.
func ReadCSV(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	first, _, _ := strings.Cut(text, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return &Sheet{Name: "csv", Rows: rows}, nil
}
