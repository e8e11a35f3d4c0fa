package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"quotedesk/internal/domain"
)

// Header names read for well-known fields, in preference order.
var (
	NameColumns  = []string{"Product Name", "name", "Name"}
	PriceColumns = []string{"Price", "price"}
	SKUColumns   = []string{"SKU", "sku"}
	DescColumns  = []string{"Description", "description", "desc"}
)

// HiddenColumns are not listed in a product's details; the price is revealed on demand.
var HiddenColumns = map[string]bool{
	domain.CategoryColumn: true,
	"last_updated":        true,
	"Price":               true,
	"price":               true,
}

var ErrBadPrice = errors.New("price is not a number")

// ParseMoney reads "$1,299.50" or "1299.5".
func ParseMoney(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadPrice
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, ErrBadPrice
	}
	return f, nil
}

// Lookup finds the first row whose key column (any of cols) equals val, ignoring case.
func Lookup(t domain.Table, cols []string, val string) (domain.ProductRow, bool) {
	val = strings.TrimSpace(val)
	for _, c := range cols {
		i := t.Index(c)
		if i < 0 {
			continue
		}
		for _, r := range t.Rows {
			if strings.EqualFold(strings.TrimSpace(r[i]), val) {
				row := make(domain.ProductRow, len(t.Headers))
				for n, h := range t.Headers {
					row[h] = r[n]
				}
				return row, true
			}
		}
	}
	return nil, false
}
