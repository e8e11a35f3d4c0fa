// Package quote prices quote line items and renders quotes to PDF.
package quote

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"quotedesk/internal/domain"
)

// DefaultTaxRate is Australian GST.
const DefaultTaxRate = 0.10

var ErrInvalidItem = errors.New("invalid line item")

// Totals are the summary figures of a quote.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Grand    decimal.Decimal
}

func (t Totals) SubtotalFloat() float64 { return t.Subtotal.Round(2).InexactFloat64() }
func (t Totals) TaxFloat() float64 { return t.Tax.Round(2).InexactFloat64() }
func (t Totals) GrandFloat() float64 { return t.Grand.Round(2).InexactFloat64() }

// LineTotal is qty*price less the discount: a percentage of the gross when the type
// is "%", otherwise a flat amount.
func LineTotal(it domain.LineItem) decimal.Decimal {
	gross := decimal.NewFromInt(int64(it.Qty)).Mul(decimal.NewFromFloat(it.Price))
	val := decimal.NewFromFloat(it.DiscountVal)
	var discount decimal.Decimal
	if it.DiscountType == domain.DiscountPercent {
		discount = gross.Mul(val).Div(decimal.NewFromInt(100))
	} else {
		discount = val
	}
	return gross.Sub(discount)
}

// Compute sums the line totals and applies rate.
func Compute(items []domain.LineItem, rate float64) Totals {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(LineTotal(it))
	}
	tax := sub.Mul(decimal.NewFromFloat(rate))
	return Totals{Subtotal: sub, Tax: tax, Grand: sub.Add(tax)}
}

// Finalize returns a copy of items with Total filled in, rounded to cents.
func Finalize(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, it := range items {
		it.Total = LineTotal(it).Round(2).InexactFloat64()
		out[i] = it
	}
	return out
}

// Validate checks one line before it enters a draft.
func Validate(it domain.LineItem) error {
	switch {
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case it.Qty < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	case !finite(it.Price) || !finite(it.DiscountVal):
		return fmt.Errorf("%w: amounts must be finite numbers", ErrInvalidItem)
	case it.Price < 0:
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidItem)
	case it.DiscountType != domain.DiscountPercent && it.DiscountType != domain.DiscountFlat:
		return fmt.Errorf("%w: discount type must be %% or $", ErrInvalidItem)
	case it.DiscountVal < 0:
		return fmt.Errorf("%w: discount cannot be negative", ErrInvalidItem)
	case it.DiscountType == domain.DiscountPercent && it.DiscountVal > 100:
		return fmt.Errorf("%w: percentage discount above 100", ErrInvalidItem)
	}
	return nil
}

func finite(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }

// Build assembles a quote ready to be saved.
func Build(id, by string, client domain.Client, items []domain.LineItem, rate float64, validDays int, seller string, now time.Time) domain.Quote {
	items = Finalize(items)
	return domain.Quote{
		ID:             id,
		CreatedAt:      now.UTC().Format(time.RFC3339),
		CreatedBy:      by,
		ClientName:     client.Name,
		ClientEmail:    client.Email,
		ClientPhone:    client.Phone,
		Status:         domain.QuoteDraft,
		TotalAmount:    Compute(items, rate).GrandFloat(),
		Items:          items,
		ExpirationDate: now.AddDate(0, 0, validDays).UTC().Format("2006-01-02"),
		SellerInfo:     seller,
	}
}

// NewID returns a short human-friendly quote number such as Q-20260301-4F2A9C.
func NewID(now time.Time, suffix string) string {
	suffix = strings.ToUpper(strings.ReplaceAll(suffix, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("Q-%s-%s", now.UTC().Format("20060102"), suffix)
}
