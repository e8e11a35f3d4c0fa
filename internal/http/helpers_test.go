package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"quotedesk/internal/cache"
	"quotedesk/internal/config"
	"quotedesk/internal/domain"
	"quotedesk/internal/http/handlers"
	applog "quotedesk/internal/log"
	"quotedesk/internal/session"
	"quotedesk/internal/sheets"
)

type testApp struct {
	app      *fiber.App
	wb       *sheets.SQLBook
	sessions *session.Store
	csrf     string
}

func testConfig() config.Config {
	return config.Config{
		CacheTTL:       time.Minute,
		SessionTTL:     time.Hour,
		TargetColumns:  []string{"Product Name", "SKU", "Price", "Stock"},
		TaxRate:        0.10,
		QuoteValidDays: 30,
		SellerInfo:     "Quotedesk Test Pty Ltd",
	}
}

// newTestApp wires the real routes over an in-memory sqlite workbook with the demo
// users (admin, alice) and the "Retro Consoles" category.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	wb, err := sheets.OpenSQL("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })

	deps := handlers.NewDeps(wb, cache.NewMemory(), cache.NewLocalLocker(), testConfig(), nil, nil)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, BodyLimit: 1 << 20, ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	deps.Register(app)
	app.Use(handlers.NotFound)

	ta := &testApp{app: app, wb: wb, sessions: deps.Sessions}
	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	ta.csrf = cookie(resp, "csrf_")
	if ta.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return ta
}

// sessionFor stores a logged-in session and returns its id, skipping the login form.
func (ta *testApp) sessionFor(t *testing.T, username, role string) string {
	t.Helper()
	sid := "sid-" + username
	if err := ta.sessions.Save(context.Background(), &session.Session{ID: sid, Username: username, Role: role}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return sid
}

func (ta *testApp) alice(t *testing.T) string { return ta.sessionFor(t, "alice", domain.RoleUser) }
func (ta *testApp) admin(t *testing.T) string { return ta.sessionFor(t, "admin", domain.RoleAdmin) }

func (ta *testApp) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// post sends form with the csrf token (and sid when given).
func (ta *testApp) post(t *testing.T, path, sid string, form url.Values) *http.Response {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", ta.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (ta *testApp) postRaw(t *testing.T, path, sid, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// cookie returns the last value set for name; the sid cookie is re-issued on login.
func cookie(resp *http.Response, name string) string {
	v := ""
	for _, c := range resp.Cookies() {
		if c.Name == name {
			v = c.Value
		}
	}
	return v
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

type logEntry struct {
	Level  string                 `json:"level"`
	Action string                 `json:"action"`
	Fields map[string]interface{} `json:"fields"`
}

// captureLogs redirects the event log into a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	old := applog.Writer()
	applog.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	defer applog.SetOutput(old)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
