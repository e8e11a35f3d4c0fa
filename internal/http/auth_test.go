package handlers_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"quotedesk/internal/sheets"
)

// ensure seeded passwords are hashed (not plaintext).
func TestPasswordsSeededAreHashed(t *testing.T) {
	ta := newTestApp(t)
	grid, err := ta.wb.Values(context.Background(), sheets.TabUsers)
	if err != nil {
		t.Fatalf("read users: %v", err)
	}
	if len(grid) < 2 {
		t.Fatal("no users seeded")
	}
	for _, row := range grid[1:] {
		h := row[1]
		if strings.Contains(h, "Passw0rd!") {
			t.Fatalf("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

func login(t *testing.T, ta *testApp, username, password string) *http.Response {
	t.Helper()
	return ta.post(t, "/login", "", url.Values{"username": {username}, "password": {password}})
}

// login throttling + success/fail paths.
func TestLoginSuccessFailAndThrottle(t *testing.T) {
	ta := newTestApp(t)

	if resp := login(t, ta, "alice", "wrongpass!"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad creds, got %d", resp.StatusCode)
	}

	good := login(t, ta, "alice", "Passw0rd!")
	if good.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect on success, got %d", good.StatusCode)
	}
	sid := cookie(good, "sid")
	if sid == "" {
		t.Fatal("sid cookie missing after login")
	}
	if resp := ta.get(t, "/quote", sid); resp.StatusCode != http.StatusOK {
		t.Fatalf("logged-in session rejected: %d", resp.StatusCode)
	}

	// five attempts per window; two used above
	for i := 0; i < 3; i++ {
		if resp := login(t, ta, "alice", "wrongpass!"); resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("throttled too early at attempt %d", i+3)
		}
	}
	if resp := login(t, ta, "alice", "wrongpass!"); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after throttle, got %d", resp.StatusCode)
	}
}

func TestLoginRotatesSessionID(t *testing.T) {
	ta := newTestApp(t)
	before := "sid-before"
	form := url.Values{"username": {"alice"}, "password": {"Passw0rd!"}}
	resp := ta.post(t, "/login", before, form)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login: %d", resp.StatusCode)
	}
	after := cookie(resp, "sid")
	if after == "" || after == before {
		t.Fatalf("expected a fresh sid, got %q", after)
	}
	if resp := ta.get(t, "/quote", before); resp.StatusCode != http.StatusFound {
		t.Fatalf("old sid should not be logged in, got %d", resp.StatusCode)
	}
}

func TestRegisterPendingThenApproved(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.post(t, "/register", "", url.Values{
		"username": {"bob"},
		"email":    {"bob@quotedesk.test"},
		"password": {"S3cure!pass"},
		"confirm":  {"S3cure!pass"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register: %d %s", resp.StatusCode, body(t, resp))
	}

	resp = login(t, ta, "bob", "S3cure!pass")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("pending login expected 403, got %d", resp.StatusCode)
	}
	if !strings.Contains(body(t, resp), "awaiting administrator approval") {
		t.Fatal("pending message missing")
	}

	if resp := ta.post(t, "/admin/users/bob/approve", ta.admin(t), nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("approve: %d", resp.StatusCode)
	}
	if resp := login(t, ta, "bob", "S3cure!pass"); resp.StatusCode != http.StatusFound {
		t.Fatalf("approved login expected redirect, got %d", resp.StatusCode)
	}
}

func TestRegisterRejectsDuplicateAndWeak(t *testing.T) {
	ta := newTestApp(t)
	dup := ta.post(t, "/register", "", url.Values{
		"username": {"alice"},
		"email":    {"other@quotedesk.test"},
		"password": {"S3cure!pass"},
		"confirm":  {"S3cure!pass"},
	})
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate expected 409, got %d", dup.StatusCode)
	}
	weak := ta.post(t, "/register", "", url.Values{
		"username": {"carol"},
		"email":    {"carol@quotedesk.test"},
		"password": {"password"},
		"confirm":  {"password"},
	})
	if weak.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak password expected 400, got %d", weak.StatusCode)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	ta := newTestApp(t)
	sid := ta.alice(t)
	if resp := ta.get(t, "/quote", sid); resp.StatusCode != http.StatusOK {
		t.Fatalf("quote page: %d", resp.StatusCode)
	}
	if resp := ta.post(t, "/logout", sid, nil); resp.StatusCode != http.StatusFound {
		t.Fatalf("logout: %d", resp.StatusCode)
	}
	resp := ta.get(t, "/quote", sid)
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login after logout, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}
