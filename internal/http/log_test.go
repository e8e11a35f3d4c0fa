package handlers_test

import (
	"net/url"
	"testing"

	"quotedesk/internal/sheets"
)

// auth logging on success/fail
func TestAuthLogging(t *testing.T) {
	ta := newTestApp(t)

	failLogs := captureLogs(t, func() { login(t, ta, "alice", "badpass!") })
	e, ok := findLog(failLogs, "auth.login.fail")
	if !ok {
		t.Fatal("auth.login.fail log not found")
	}
	if e.Level != "warn" || e.Fields["username"] != "alice" {
		t.Fatalf("unexpected fail entry: %+v", e)
	}

	okLogs := captureLogs(t, func() { login(t, ta, "alice", "Passw0rd!") })
	e, ok = findLog(okLogs, "auth.login.success")
	if !ok {
		t.Fatal("auth.login.success log not found")
	}
	if e.Level != "audit" || e.Fields["username"] != "alice" {
		t.Fatalf("unexpected success entry: %+v", e)
	}
}

// admin access denial logged as security warning
func TestAdminDenialLogged(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	logs := captureLogs(t, func() { ta.get(t, "/admin/users", sid) })
	e, ok := findLog(logs, "access.denied.admin")
	if !ok {
		t.Fatal("access.denied.admin log not found")
	}
	if e.Level != "warn" {
		t.Fatalf("expected warn level, got %q", e.Level)
	}
}

// business actions are audited
func TestQuoteSaveAudited(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	ta.post(t, "/quote/items", sid, url.Values{"name": {"Repair"}, "price": {"50"}, "qty": {"1"}})
	ta.post(t, "/quote/client", sid, url.Values{"client_name": {"Acme"}})

	logs := captureLogs(t, func() { ta.post(t, "/quote/save", sid, nil) })
	e, ok := findLog(logs, "quote.save")
	if !ok {
		t.Fatal("quote.save log not found")
	}
	if e.Level != "audit" || e.Fields["quote_id"] == nil {
		t.Fatalf("unexpected quote.save entry: %+v", e)
	}
	if total, _ := e.Fields["total"].(float64); total != 55 {
		t.Fatalf("expected total 55, got %v", e.Fields["total"])
	}

	grid, err := ta.wb.Values(t.Context(), sheets.TabLogs)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, row := range grid[1:] {
		if len(row) > 2 && row[1] == "alice" && row[2] == "Save Quote" {
			found = true
		}
	}
	if !found {
		t.Fatal("Save Quote not recorded in the logs tab")
	}
}
