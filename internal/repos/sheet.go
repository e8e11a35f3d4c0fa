package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"quotedesk/internal/cache"
	"quotedesk/internal/domain"
	"quotedesk/internal/sheets"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrReserved  = errors.New("reserved name")
)

// Sheets is the cached read path shared by every repo. Reads are served from the cache
// for TTL; every write goes to the workbook and drops the affected keys.
type Sheets struct {
	WB    sheets.Workbook
	Cache cache.Store
	TTL   time.Duration
}

func NewSheets(wb sheets.Workbook, c cache.Store, ttl time.Duration) *Sheets {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Sheets{WB: wb, Cache: c, TTL: ttl}
}

func sheetKey(title string) string { return "sheet:" + title }

const tabsKey = "worksheets"

// Grid returns the raw values of title; a missing tab reads as empty.
func (s *Sheets) Grid(ctx context.Context, title string) ([][]string, error) {
	var grid [][]string
	if found, _ := cache.GetObject(ctx, s.Cache, sheetKey(title), &grid); found {
		return grid, nil
	}
	grid, err := sheets.ValuesOrEmpty(ctx, s.WB, title)
	if err != nil {
		return nil, err
	}
	_ = cache.SetObject(ctx, s.Cache, sheetKey(title), grid, s.TTL)
	return grid, nil
}

func (s *Sheets) Table(ctx context.Context, title string) (domain.Table, error) {
	grid, err := s.Grid(ctx, title)
	if err != nil {
		return domain.Table{}, err
	}
	return domain.TableFromGrid(grid), nil
}

func (s *Sheets) Worksheets(ctx context.Context) ([]string, error) {
	var tabs []string
	if found, _ := cache.GetObject(ctx, s.Cache, tabsKey, &tabs); found {
		return tabs, nil
	}
	tabs, err := s.WB.Worksheets(ctx)
	if err != nil {
		return nil, err
	}
	_ = cache.SetObject(ctx, s.Cache, tabsKey, tabs, s.TTL)
	return tabs, nil
}

// Invalidate drops the cached values of the given tabs and the tab list.
func (s *Sheets) Invalidate(ctx context.Context, titles ...string) {
	keys := []string{tabsKey}
	for _, t := range titles {
		keys = append(keys, sheetKey(t))
	}
	_ = s.Cache.Delete(ctx, keys...)
}

// fresh reads title bypassing the cache; used before row updates so indexes are current.
func (s *Sheets) fresh(ctx context.Context, title string) ([][]string, error) {
	return s.WB.Values(ctx, title)
}

// findRow returns the grid index of the first data row whose col equals val
// (case-insensitive), or -1.
func findRow(grid [][]string, col, val string) int {
	if len(grid) == 0 {
		return -1
	}
	c := -1
	for i, h := range grid[0] {
		if h == col {
			c = i
			break
		}
	}
	if c < 0 {
		return -1
	}
	for i := 1; i < len(grid); i++ {
		if c < len(grid[i]) && strings.EqualFold(strings.TrimSpace(grid[i][c]), val) {
			return i
		}
	}
	return -1
}

// setCell returns a copy of row with header column col set to val, widened as needed.
func setCell(header, row []string, col, val string) []string {
	out := make([]string, len(header))
	copy(out, row)
	for i, h := range header {
		if h == col {
			out[i] = val
		}
	}
	return out
}
