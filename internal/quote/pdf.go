package quote

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"quotedesk/internal/domain"
)

// RenderPDF lays out q on one or more A4 pages: seller and client blocks, quote
// number and dates, the item table and the summary figures.
func RenderPDF(q domain.Quote, rate float64) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "QUOTATION", "", 1, "R", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(95, 6, "From", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Quote for", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	y := pdf.GetY()
	pdf.MultiCell(90, 5, tr(q.SellerInfo), "", "L", false)
	leftEnd := pdf.GetY()
	pdf.SetXY(110, y)
	client := strings.TrimSpace(strings.Join(nonEmpty(q.ClientName, q.ClientEmail, q.ClientPhone), "\n"))
	pdf.MultiCell(0, 5, tr(client), "", "L", false)
	if pdf.GetY() < leftEnd {
		pdf.SetY(leftEnd)
	}
	pdf.Ln(4)

	meta := [][2]string{
		{"Quote #", q.ID},
		{"Date", dateOnly(q.CreatedAt)},
		{"Valid until", q.ExpirationDate},
	}
	for _, m := range meta {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 6, m[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(m[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{62, 40, 14, 22, 20, 22}
	heads := []string{"Item", "Description", "Qty", "Unit", "Discount", "Total"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(31, 78, 120)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range heads {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	for _, it := range q.Items {
		cells := []string{
			tr(clip(it.Name, 38)),
			tr(clip(it.Desc, 24)),
			fmt.Sprintf("%d", it.Qty),
			money(it.Price),
			discountLabel(it),
			money(LineTotal(it).Round(2).InexactFloat64()),
		}
		for i, c := range cells {
			align := "L"
			if i >= 2 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	t := Compute(q.Items, rate)
	pdf.Ln(3)
	summary := [][2]string{
		{"Subtotal", money(t.SubtotalFloat())},
		{fmt.Sprintf("GST (%g%%)", rate*100), money(t.TaxFloat())},
		{"Total", money(t.GrandFloat())},
	}
	for i, s := range summary {
		style := ""
		if i == len(summary)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(138, 6, s[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, s[1], "", 1, "R", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

func discountLabel(it domain.LineItem) string {
	if it.DiscountVal == 0 {
		return "-"
	}
	if it.DiscountType == domain.DiscountPercent {
		return fmt.Sprintf("%g%%", it.DiscountVal)
	}
	return money(it.DiscountVal)
}

func dateOnly(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
