package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "quotedesk/internal/log"
)

const friendlyError = "Something went wrong. Please try again."

// ErrorHandler is the app-wide fiber error handler. Client errors keep their status
// and message; anything else is logged and replaced by a generic page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := fiber.StatusInternalServerError, friendlyError
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code, msg = fe.Code, fe.Message
		applog.Info(c, "server.client_error", map[string]any{"code": code})
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// CSRFError answers a failed token check.
func CSRFError(c *fiber.Ctx, err error) error {
	applog.Security(c, "csrf.fail", nil)
	return notFound(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
}

// NotFound is the catch-all for unknown routes.
func NotFound(c *fiber.Ctx) error {
	return notFound(c, fiber.StatusNotFound, "Page not found")
}
