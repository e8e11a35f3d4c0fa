package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"quotedesk/internal/http/handlers"
)

func newErrorApp() *fiber.App {
	app := fiber.New(fiber.Config{
		Views:        html.New("../../web/templates", ".html"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(requestid.New())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("sheets: dial tcp 10.0.0.5:5432: secret trace")
	})
	app.Get("/fiber500", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "db timeout: secret trace")
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "Bad input")
	})
	return app
}

// friendly error surface, no internal leakage
func TestErrorHandlerHidesInternals(t *testing.T) {
	app := newErrorApp()
	for _, path := range []string{"/boom", "/fiber500"} {
		var resp *http.Response
		logs := captureLogs(t, func() {
			var err error
			resp, err = app.Test(httptest.NewRequest("GET", path, nil))
			if err != nil {
				t.Fatalf("%s: %v", path, err)
			}
		})
		if resp.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		s := body(t, resp)
		if !strings.Contains(s, "Something went wrong") {
			t.Fatalf("%s: friendly message missing; body=%s", path, s)
		}
		if strings.Contains(s, "secret") || strings.Contains(s, "10.0.0.5") {
			t.Fatalf("%s: internal details leaked to user; body=%s", path, s)
		}
		if e, ok := findLog(logs, "server.error"); !ok || e.Level != "error" {
			t.Fatalf("%s: server.error not logged: %+v", path, logs)
		}
	}
}

func TestErrorHandlerKeepsClientErrors(t *testing.T) {
	resp, err := newErrorApp().Test(httptest.NewRequest("GET", "/bad", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest || !strings.Contains(body(t, resp), "Bad input") {
		t.Fatalf("expected 400 with message, got %d", resp.StatusCode)
	}
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.get(t, "/no/such/page", ta.alice(t))
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(body(t, resp), "Page not found") {
		t.Fatalf("expected not-found page, got %d", resp.StatusCode)
	}
}
