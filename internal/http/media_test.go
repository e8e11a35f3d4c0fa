package handlers_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/bootstrap"
	"quotedesk/internal/http/handlers"
)

func TestMediaServesOnlyScreenshotDir(t *testing.T) {
	root := t.TempDir()
	snaps := filepath.Join(root, "snaps")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(snaps, "x.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "quotedesk.db"), []byte("secret"), 0o600); err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	app.Get(bootstrap.MediaPrefix+"/*", handlers.Media(snaps))

	resp, err := app.Test(httptest.NewRequest("GET", bootstrap.MediaPrefix+"/x.png", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || body(t, resp) != "png-bytes" {
		t.Fatalf("screenshot not served: %d", resp.StatusCode)
	}

	for _, path := range []string{
		"/media/quotedesk.db",
		bootstrap.MediaPrefix + "/%2e%2e/quotedesk.db",
		bootstrap.MediaPrefix + "/..%2fquotedesk.db",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 404 {
			t.Fatalf("%s: status %d, want 404", path, resp.StatusCode)
		}
		if b := body(t, resp); b == "secret" {
			t.Fatalf("%s leaked a file outside the screenshot dir", path)
		}
	}
}
