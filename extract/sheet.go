package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
	"github.com/xuri/excelize/v2"
)

const cellDelimiter = " | "

// renderSheet formats a sheet as a header line followed by one line per non-empty row.
func renderSheet(name string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("=== Sheet: ")
	b.WriteString(name)
	b.WriteString(" ===")
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, cellDelimiter))
	}
	return b.String()
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// extractXLSX renders every visible sheet, skipping hidden rows and columns.
func extractXLSX(data []byte) ([]Section, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %w", ErrCorruptFile, err)
	}
	defer func() { _ = f.Close() }()

	var sections []Section
	for _, sheet := range f.GetSheetList() {
		if visible, err := f.GetSheetVisible(sheet); err == nil && !visible {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: xlsx sheet %q: %w", ErrCorruptFile, sheet, err)
		}

		hiddenCols := make(map[int]bool)
		var visibleRows [][]string
		for i, row := range rows {
			if visible, err := f.GetRowVisible(sheet, i+1); err == nil && !visible {
				continue
			}
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				hidden, seen := hiddenCols[j]
				if !seen {
					hidden = isColHidden(f, sheet, j+1)
					hiddenCols[j] = hidden
				}
				if !hidden {
					cells = append(cells, cell)
				}
			}
			visibleRows = append(visibleRows, cells)
		}
		sections = append(sections, Section{Sheet: sheet, Text: renderSheet(sheet, visibleRows)})
	}
	return sections, nil
}

func isColHidden(f *excelize.File, sheet string, col int) bool {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return false
	}
	visible, err := f.GetColVisible(sheet, name)
	return err == nil && !visible
}

// extractXLS renders every sheet of a legacy workbook. The format reader
// exposes no visibility flags, so every row and column is rendered.
func extractXLS(data []byte) (sections []Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = fmt.Errorf("%w: xls: %v", ErrCorruptFile, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xls: %w", ErrCorruptFile, err)
	}

	for i := 0; i < wb.GetNumberSheets(); i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		var rows [][]string
		for _, row := range sheet.GetRows() {
			rows = append(rows, xlsRowValues(row.GetCols()))
		}
		sections = append(sections, Section{Sheet: sheet.GetName(), Text: renderSheet(sheet.GetName(), rows)})
	}
	return sections, nil
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
