package catalog

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"quotedesk/internal/domain"
)

// ExportXLSX writes t as a formatted workbook: styled header, bordered cells, fitted
// column widths and an autofilter over the data.
func ExportXLSX(t domain.Table, sheet string) ([]byte, error) {
	if sheet = strings.TrimSpace(sheet); sheet == "" {
		sheet = "Sheet1"
	}
	if len([]rune(sheet)) > 31 {
		sheet = string([]rune(sheet)[:31])
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	if len(t.Headers) == 0 {
		var buf bytes.Buffer
		err := f.Write(&buf)
		return buf.Bytes(), err
	}

	widths := make([]float64, len(t.Headers))
	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
		widths[i] = float64(len([]rune(h)))
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, headerStyle)

	for r, row := range t.Rows {
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
			if w := float64(len([]rune(v))); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if len(t.Rows) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(t.Headers), len(t.Rows)+1)
		_ = f.SetCellStyle(sheet, "A2", end, dataStyle)
		_ = f.AutoFilter(sheet, "A1:"+end, nil)
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := w*1.2 + 4
		if width < 8 {
			width = 8
		}
		if width > 60 {
			width = 60
		}
		_ = f.SetColWidth(sheet, col, col, width)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
