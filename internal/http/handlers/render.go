package handlers

import (
	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/session"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if s := current(c); s.LoggedIn() {
		data["User"] = s
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// renderStatus renders tmpl with an explicit status code.
func renderStatus(c *fiber.Ctx, status int, tmpl string, data fiber.Map) error {
	c.Status(status)
	return render(c, tmpl, data)
}

func notFound(c *fiber.Ctx, status int, msg string) error {
	return renderStatus(c, status, "notfound", fiber.Map{"Message": msg})
}

// current returns the request's session; never nil after the Sessions middleware.
func current(c *fiber.Ctx) *session.Session {
	if s, ok := c.Locals("session").(*session.Session); ok && s != nil {
		return s
	}
	return &session.Session{}
}
