package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "quotedesk/internal/log"
)

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !current(c).LoggedIn() {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := current(c)
		if !s.LoggedIn() {
			return c.Redirect("/login")
		}
		if !s.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user": s.Username})
			return notFound(c, fiber.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}
