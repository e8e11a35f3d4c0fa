package catalog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"quotedesk/internal/domain"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file has no rows")
)

// MaxUploadRows bounds one upload.
const MaxUploadRows = 50000

// ParseUpload reads a .csv or the first sheet of a .xlsx into a Table. Without a header
// row the columns are named "Column 1", "Column 2", ...
func ParseUpload(name string, r io.Reader, hasHeader bool) (domain.Table, error) {
	var grid [][]string
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		grid, err = readCSV(r)
	case ".xlsx", ".xlsm":
		grid, err = readXLSX(r)
	default:
		return domain.Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(name))
	}
	if err != nil {
		return domain.Table{}, err
	}
	grid = dropBlankTail(grid)
	if len(grid) == 0 {
		return domain.Table{}, ErrEmptyFile
	}
	if len(grid) > MaxUploadRows+1 {
		return domain.Table{}, fmt.Errorf("file has more than %d rows", MaxUploadRows)
	}

	width := 0
	for _, r := range grid {
		if len(r) > width {
			width = len(r)
		}
	}
	var header []string
	if hasHeader {
		header = make([]string, width)
		copy(header, grid[0])
		grid = grid[1:]
	} else {
		header = make([]string, width)
	}
	header = uniqueHeaders(header)

	t := domain.Table{Headers: header}
	for _, r := range grid {
		row := make([]string, width)
		for i := range row {
			if i < len(r) {
				row[i] = strings.TrimSpace(r[i])
			}
		}
		if isEmptyRow(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(b))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return grid, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

// uniqueHeaders names blank headers "Column N" and suffixes repeats with ".1", ".2", ...
// until the name is not taken by any earlier header.
func uniqueHeaders(in []string) []string {
	out := make([]string, len(in))
	used := map[string]bool{}
	next := map[string]int{}
	for i, h := range in {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		name := h
		for used[name] {
			next[h]++
			name = fmt.Sprintf("%s.%d", h, next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func dropBlankTail(grid [][]string) [][]string {
	n := len(grid)
	for n > 0 && isEmptyRow(grid[n-1]) {
		n--
	}
	return grid[:n]
}

func isEmptyRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
