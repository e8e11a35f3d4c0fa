package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

// build a draft from the catalog, save it, then read it back as owner, admin and stranger
func TestQuoteFlowTotalsAndAccess(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)

	add := ta.post(t, "/quote/items", sid, url.Values{
		"source":   {"catalog"},
		"category": {"Retro Consoles"},
		"sku":      {"gbc-001"},
		"qty":      {"2"},
	})
	if add.StatusCode != http.StatusFound {
		t.Fatalf("add item: %d %s", add.StatusCode, body(t, add))
	}
	manual := ta.post(t, "/quote/items", sid, url.Values{
		"name":          {"Shipping"},
		"price":         {"$20.00"},
		"qty":           {"1"},
		"discount":      {"5"},
		"discount_type": {"$"},
	})
	if manual.StatusCode != http.StatusFound {
		t.Fatalf("add manual: %d %s", manual.StatusCode, body(t, manual))
	}
	// 2 x 129.99 + (20 - 5) = 274.98; GST 27.50; total 302.48
	draft := body(t, ta.get(t, "/quote", sid))
	for _, want := range []string{"Game Boy Color", "259.98", "274.98", "27.50", "302.48"} {
		if !strings.Contains(draft, want) {
			t.Fatalf("draft page missing %q", want)
		}
	}

	if resp := ta.post(t, "/quote/save", sid, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("save without client expected 400, got %d", resp.StatusCode)
	}
	client := ta.post(t, "/quote/client", sid, url.Values{
		"client_name":  {"Acme Pty Ltd"},
		"client_email": {"buyer@acme.test"},
		"client_phone": {"0412 345 678"},
	})
	if client.StatusCode != http.StatusFound {
		t.Fatalf("client: %d", client.StatusCode)
	}

	saved := ta.post(t, "/quote/save", sid, nil)
	if saved.StatusCode != http.StatusFound {
		t.Fatalf("save: %d %s", saved.StatusCode, body(t, saved))
	}
	loc := saved.Header.Get("Location")
	if !strings.HasPrefix(loc, "/quotes/Q-") {
		t.Fatalf("unexpected redirect %q", loc)
	}

	view := ta.get(t, loc, sid)
	if view.StatusCode != http.StatusOK {
		t.Fatalf("view: %d", view.StatusCode)
	}
	page := body(t, view)
	for _, want := range []string{"Acme Pty Ltd", "+61412345678", "302.48", "Draft"} {
		if !strings.Contains(page, want) {
			t.Fatalf("quote page missing %q", want)
		}
	}
	if strings.Contains(body(t, ta.get(t, "/quote", sid)), "Game Boy Color") {
		t.Fatal("draft not cleared after save")
	}

	pdf := ta.get(t, loc+"/pdf", sid)
	if pdf.StatusCode != http.StatusOK || pdf.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: %d %s", pdf.StatusCode, pdf.Header.Get("Content-Type"))
	}
	if !strings.HasPrefix(body(t, pdf), "%PDF") {
		t.Fatal("pdf body is not a PDF")
	}

	if resp := ta.get(t, loc, ta.admin(t)); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin view expected 200, got %d", resp.StatusCode)
	}
	if resp := ta.get(t, loc, ta.sessionFor(t, "mallory", "user")); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger view expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body(t, ta.get(t, "/quotes", sid)), strings.TrimPrefix(loc, "/quotes/")) {
		t.Fatal("quote missing from the owner's list")
	}
	if strings.Contains(body(t, ta.get(t, "/quotes", ta.sessionFor(t, "mallory", "user"))), strings.TrimPrefix(loc, "/quotes/")) {
		t.Fatal("quote listed for another user")
	}

	if resp := ta.post(t, loc+"/status", sid, url.Values{"status": {"Accepted"}}); resp.StatusCode != http.StatusFound {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if resp := ta.post(t, loc+"/status", sid, url.Values{"status": {"Paid"}}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad status expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body(t, ta.get(t, loc, sid)), "<strong>Accepted</strong>") {
		t.Fatal("status not updated")
	}

	// mail is not configured in tests
	email := ta.post(t, loc+"/email", sid, nil)
	if email.StatusCode != http.StatusFound || !strings.HasSuffix(email.Header.Get("Location"), "info=maildisabled") {
		t.Fatalf("email: %d %q", email.StatusCode, email.Header.Get("Location"))
	}

	if resp := ta.post(t, loc+"/load", sid, nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("load: %d", resp.StatusCode)
	}
	reloaded := body(t, ta.get(t, "/quote", sid))
	if !strings.Contains(reloaded, "Editing a copy of") || !strings.Contains(reloaded, "302.48") {
		t.Fatal("saved quote not loaded into the draft")
	}
}

func TestQuoteRemoveAndClear(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	for _, name := range []string{"First", "Second"} {
		ta.post(t, "/quote/items", sid, url.Values{"name": {name}, "price": {"10"}, "qty": {"1"}})
	}
	if resp := ta.post(t, "/quote/items/0/delete", sid, nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("remove: %d", resp.StatusCode)
	}
	page := body(t, ta.get(t, "/quote", sid))
	if strings.Contains(page, "First") || !strings.Contains(page, "Second") {
		t.Fatal("wrong line removed")
	}
	if resp := ta.post(t, "/quote/items/5/delete", sid, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("remove out of range expected 400, got %d", resp.StatusCode)
	}
	ta.post(t, "/quote/clear", sid, nil)
	if strings.Contains(body(t, ta.get(t, "/quote", sid)), "Second") {
		t.Fatal("draft not cleared")
	}
}

// non-finite amounts are rejected instead of reaching the decimal maths
func TestQuoteRejectsNonFiniteAmounts(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	cases := []url.Values{
		{"name": {"Widget"}, "price": {"Inf"}, "qty": {"1"}, "discount_type": {"$"}},
		{"name": {"Widget"}, "price": {"NaN"}, "qty": {"1"}},
		{"name": {"Widget"}, "price": {"10"}, "qty": {"1"}, "discount": {"Inf"}, "discount_type": {"$"}},
		{"name": {"Widget"}, "price": {"10"}, "qty": {"1"}, "discount": {"NaN"}},
		{"source": {"catalog"}, "category": {"Retro Consoles"}, "sku": {"GBC-001"}, "discount": {"-Inf"}},
	}
	for _, form := range cases {
		if resp := ta.post(t, "/quote/items", sid, form); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%v: expected 400, got %d", form, resp.StatusCode)
		}
	}
	page := ta.get(t, "/quote", sid)
	if page.StatusCode != http.StatusOK || strings.Contains(body(t, page), "Widget") {
		t.Fatal("rejected item reached the draft")
	}
}
