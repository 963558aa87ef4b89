package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders datasets into a single-sheet workbook with a bold, filterable header row.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the dataset to a workbook. The sheet is named after the title when present.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(data.Title)
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &data.Headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	for i, row := range data.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return nil, err
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", lastCol+"1", bold)
	}
	_ = f.AutoFilter(sheet, "A1:"+lastCol+"1", nil)
	applyWidths(f, sheet, data)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func applyWidths(f *excelize.File, sheet string, data Dataset) {
	for c, h := range data.Headers {
		width := len([]rune(h)) + 2
		for r := 0; r < len(data.Rows) && r < 50; r++ {
			if l := len([]rune(data.Rows[r][c])); l > width {
				width = l
			}
		}
		if width < 10 {
			width = 10
		}
		if width > 40 {
			width = 40
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			continue
		}
		_ = f.SetColWidth(sheet, col, col, float64(width))
	}
}

func sheetName(title string) string {
	title = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '?', '*', '[', ']', ':':
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if title == "" {
		return defaultSheet
	}
	if r := []rune(title); len(r) > 31 {
		title = string(r[:31])
	}
	return title
}

// ReadRows returns the non-empty rows of the first sheet of an XLSX workbook, trimmed.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	rows := make([][]string, 0, len(raw))
	for _, row := range raw {
		empty := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// BuildWorkbook renders rows into an XLSX file. It is used to produce import templates.
func BuildWorkbook(headers []string, rows [][]string) ([]byte, error) {
	return NewXLSXExporter().Render(Dataset{Headers: headers, Rows: rows})
}
