// Package sheets stores the application's tables as worksheets: named 2-D grids of
// strings whose first row is the header.
package sheets

import (
	"context"
	"errors"
)

// Well-known tabs. Every other tab is a product category.
const (
	TabUsers      = "users"
	TabCategories = "categories"
	TabQuotes     = "quotes"
	TabLogs       = "logs"
	TabEOL        = "eol_products"
)

var (
	ErrWorksheetNotFound = errors.New("worksheet not found")
	ErrWorksheetExists   = errors.New("worksheet already exists")
	ErrRowOutOfRange     = errors.New("row out of range")
)

// Workbook is the spreadsheet backend. Row indexes are 0-based and include the header.
type Workbook interface {
	Worksheets(ctx context.Context) ([]string, error)
	AddWorksheet(ctx context.Context, title string) error
	Values(ctx context.Context, title string) ([][]string, error)
	AppendRows(ctx context.Context, title string, rows [][]string) error
	Replace(ctx context.Context, title string, rows [][]string) error
	UpdateRow(ctx context.Context, title string, index int, row []string) error
}

// IsReserved reports whether title is one of the system tabs.
func IsReserved(title string) bool {
	switch title {
	case TabUsers, TabCategories, TabQuotes, TabLogs, TabEOL:
		return true
	}
	return false
}

// Ensure creates title when missing and writes header into it when the tab is empty.
func Ensure(ctx context.Context, wb Workbook, title string, header []string) error {
	err := wb.AddWorksheet(ctx, title)
	switch {
	case errors.Is(err, ErrWorksheetExists):
		if len(header) == 0 {
			return nil
		}
		grid, err := wb.Values(ctx, title)
		if err != nil || len(grid) > 0 {
			return err
		}
	case err != nil:
		return err
	}
	if len(header) == 0 {
		return nil
	}
	return wb.AppendRows(ctx, title, [][]string{header})
}

// ValuesOrEmpty treats a missing tab as empty.
func ValuesOrEmpty(ctx context.Context, wb Workbook, title string) ([][]string, error) {
	grid, err := wb.Values(ctx, title)
	if errors.Is(err, ErrWorksheetNotFound) {
		return nil, nil
	}
	return grid, err
}
