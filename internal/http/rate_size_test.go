package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// price API throttled per client
func TestPriceAPIRateLimit(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	path := "/api/v1/price?category=Retro+Consoles&sku=GBC-001"

	first := ta.get(t, path, sid)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("price: %d", first.StatusCode)
	}
	if b := body(t, first); !strings.Contains(b, "129.99") {
		t.Fatalf("unexpected price body %s", b)
	}
	for i := 0; i < 29; i++ {
		if resp := ta.get(t, path, sid); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d throttled early: %d", i+2, resp.StatusCode)
		}
	}
	if resp := ta.get(t, path, sid); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 30 requests, got %d", resp.StatusCode)
	}
}

// oversized POST rejected with 413
func TestBodySizeLimit(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/quote/items", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := ta.app.Test(req)
	// fasthttp may refuse the body before fiber answers
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(b))
	}
}
