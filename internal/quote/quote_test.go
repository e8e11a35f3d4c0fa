package quote

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"quotedesk/internal/domain"
)

func TestLineTotalAndCompute(t *testing.T) {
	items := []domain.LineItem{
		{Name: "Widget", Qty: 2, Price: 10, DiscountVal: 10, DiscountType: domain.DiscountPercent},
	}
	if got := LineTotal(items[0]).String(); got != "18" {
		t.Fatalf("line total = %s, want 18", got)
	}
	tot := Compute(items, DefaultTaxRate)
	if tot.SubtotalFloat() != 18 || tot.TaxFloat() != 1.8 || tot.GrandFloat() != 19.8 {
		t.Fatalf("totals = %v / %v / %v", tot.Subtotal, tot.Tax, tot.Grand)
	}
}

func TestLineTotal_FlatDiscountAndFloatNoise(t *testing.T) {
	it := domain.LineItem{Name: "Cable", Qty: 3, Price: 0.1, DiscountVal: 0.05, DiscountType: domain.DiscountFlat}
	if got := LineTotal(it).String(); got != "0.25" {
		t.Fatalf("line total = %s, want 0.25", got)
	}
	tot := Compute([]domain.LineItem{it, it}, DefaultTaxRate)
	if got := tot.Grand.String(); got != "0.55" {
		t.Fatalf("grand = %s, want 0.55", got)
	}
}

func TestCompute_Empty(t *testing.T) {
	tot := Compute(nil, DefaultTaxRate)
	if !tot.Grand.IsZero() {
		t.Fatalf("empty quote grand = %s", tot.Grand)
	}
}

func TestValidate(t *testing.T) {
	ok := domain.LineItem{Name: "x", Qty: 1, Price: 1, DiscountType: domain.DiscountPercent}
	if err := Validate(ok); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}
	bad := []domain.LineItem{
		{Name: "", Qty: 1, DiscountType: "%"},
		{Name: "x", Qty: 0, DiscountType: "%"},
		{Name: "x", Qty: 1, Price: -1, DiscountType: "%"},
		{Name: "x", Qty: 1, DiscountType: "?"},
		{Name: "x", Qty: 1, DiscountVal: 101, DiscountType: "%"},
		{Name: "x", Qty: 1, DiscountVal: -1, DiscountType: "$"},
		{Name: "x", Qty: 1, Price: math.Inf(1), DiscountType: "$"},
		{Name: "x", Qty: 1, Price: math.NaN(), DiscountType: "%"},
		{Name: "x", Qty: 1, Price: 1, DiscountVal: math.Inf(1), DiscountType: "$"},
	}
	for _, it := range bad {
		if err := Validate(it); !errors.Is(err, ErrInvalidItem) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidItem", it, err)
		}
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	items := []domain.LineItem{{Name: "Widget", Qty: 2, Price: 10, DiscountVal: 10, DiscountType: "%"}}
	q := Build("Q-1", "alice", domain.Client{Name: "Acme"}, items, DefaultTaxRate, 30, "Seller", now)

	if q.Items[0].Total != 18 || q.TotalAmount != 19.8 {
		t.Fatalf("quote totals: %+v", q)
	}
	if q.ExpirationDate != "2026-03-31" || q.Status != domain.QuoteDraft {
		t.Fatalf("expiry/status: %s %s", q.ExpirationDate, q.Status)
	}
	if items[0].Total != 0 {
		t.Fatal("Build must not modify the caller's items")
	}
}

func TestNewID(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := NewID(now, "4f2a9c1e-0000"); got != "Q-20260301-4F2A9C" {
		t.Fatalf("id = %s", got)
	}
}

func TestRenderPDF(t *testing.T) {
	q := Build("Q-1", "alice", domain.Client{Name: "Acme Pty", Email: "buyer@acme.test"},
		[]domain.LineItem{
			{Name: "Widget", Desc: "Blue", Qty: 2, Price: 10, DiscountVal: 10, DiscountType: "%"},
			{Name: "Cable", Qty: 1, Price: 5, DiscountType: "$"},
		}, DefaultTaxRate, 30, "Quotedesk Pty Ltd\nSydney", time.Now())

	b, err := RenderPDF(q, DefaultTaxRate)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", b[:8])
	}
}
