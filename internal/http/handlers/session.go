package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "quotedesk/internal/log"
	"quotedesk/internal/session"
)

const sidCookie = "sid"

func setSID(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false, // enable true behind TLS
		Expires:  expires,
	})
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if sid == "" {
		sid = uuid.NewString()
		setSID(c, sid, time.Time{})
	}
	return sid
}

// Sessions loads the caller's session into Locals("session") and stores it back once
// the handler returns. Handlers that end a session set Locals("session") to nil.
func Sessions(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		s, err := store.Load(c.UserContext(), sid)
		if err != nil {
			applog.Error(c, "session.load", err, nil)
			s = &session.Session{ID: sid}
		}
		c.Locals("session", s)
		if s.Username != "" {
			c.Locals("username", s.Username)
		}

		herr := c.Next()

		if s, ok := c.Locals("session").(*session.Session); ok && s != nil {
			if err := store.Save(c.UserContext(), s); err != nil {
				applog.Error(c, "session.save", err, nil)
			}
		}
		return herr
	}
}

// rotate moves the session to a fresh id, e.g. after login.
func rotate(c *fiber.Ctx, store *session.Store, s *session.Session) {
	if err := store.Destroy(c.UserContext(), s.ID); err != nil {
		applog.Error(c, "session.destroy", err, nil)
	}
	s.ID = uuid.NewString()
	setSID(c, s.ID, time.Time{})
}
