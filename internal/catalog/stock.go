package catalog

import (
	"strconv"
	"strings"

	"quotedesk/internal/domain"
)

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
	Unknown    = "UNKNOWN"

	lowStockBelow = 5
)

// StockColumns are the header names read as a stock count, in preference order.
var StockColumns = []string{"Stock", "stock", "Qty", "qty", "Quantity"}

// StockStatus classifies a stock cell. Non-numeric values are UNKNOWN.
func StockStatus(value string) domain.Availability {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if v == "" {
		return domain.Availability{Status: Unknown}
	}
	qty, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return domain.Availability{Status: Unknown}
		}
		qty = int(f)
	}
	status := OutOfStock
	switch {
	case qty >= lowStockBelow:
		status = InStock
	case qty > 0:
		status = LowStock
	}
	return domain.Availability{Status: status, Qty: qty}
}
