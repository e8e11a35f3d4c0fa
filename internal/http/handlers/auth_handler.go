package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/log"
	"quotedesk/internal/services"
	"quotedesk/internal/session"
	"quotedesk/internal/validate"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Sessions *session.Store
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if current(c).LoggedIn() {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{"Username": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")
	if _, ok := validate.Username(username); !ok || pass == "" || len(pass) > 128 {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "bad_format"})
		return renderStatus(c, fiber.StatusUnauthorized, "login", fiber.Map{"Err": "Invalid username or password", "Username": username})
	}

	u, err := h.Auth.Login(c.UserContext(), username, pass)
	switch {
	case errors.Is(err, services.ErrPending):
		log.Security(c, "auth.login.pending", map[string]any{"username": username})
		return renderStatus(c, fiber.StatusForbidden, "login", fiber.Map{"Err": "Your account is awaiting administrator approval.", "Username": username})
	case errors.Is(err, services.ErrBadCreds):
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return renderStatus(c, fiber.StatusUnauthorized, "login", fiber.Map{"Err": "Invalid username or password", "Username": username})
	case err != nil:
		log.Error(c, "auth.login.error", err, map[string]any{"username": username})
		return renderStatus(c, fiber.StatusInternalServerError, "login", fiber.Map{"Err": "Could not sign you in. Please retry.", "Username": username})
	}

	s := current(c)
	rotate(c, h.Sessions, s)
	s.Username, s.Role = u.Username, u.Role
	c.Locals("username", u.Username)
	log.Audit(c, "auth.login.success", map[string]any{"username": u.Username, "role": u.Role})
	return c.Redirect("/")
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Username": "", "Email": ""})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	in := services.RegisterInput{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}
	back := fiber.Map{"Username": in.Username, "Email": in.Email}
	if in.Password != c.FormValue("confirm") {
		back["Err"] = "Passwords do not match"
		return renderStatus(c, fiber.StatusBadRequest, "register", back)
	}
	err := h.Auth.Register(c.UserContext(), in)
	switch {
	case errors.Is(err, services.ErrUserExists):
		log.Security(c, "auth.register.duplicate", map[string]any{"username": in.Username})
		back["Err"] = "That username is already taken"
		return renderStatus(c, fiber.StatusConflict, "register", back)
	case errors.Is(err, services.ErrWeakPassword):
		back["Err"] = err.Error()
		return renderStatus(c, fiber.StatusBadRequest, "register", back)
	case errors.Is(err, services.ErrInvalidInput):
		log.Security(c, "validation.fail", map[string]any{"form": "register"})
		back["Err"] = "Check your username and email"
		return renderStatus(c, fiber.StatusBadRequest, "register", back)
	case err != nil:
		log.Error(c, "auth.register.error", err, nil)
		back["Err"] = "Could not register right now. Please retry."
		return renderStatus(c, fiber.StatusInternalServerError, "register", back)
	}
	log.Audit(c, "auth.register", map[string]any{"username": in.Username})
	return render(c, "login", fiber.Map{"Username": "", "Info": "Registration received. An administrator will approve your account."})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	s := current(c)
	if err := h.Sessions.Destroy(c.UserContext(), s.ID); err != nil {
		log.Error(c, "session.destroy", err, nil)
	}
	c.Locals("session", nil)
	setSID(c, "", time.Now().Add(-1*time.Hour))
	log.Audit(c, "auth.logout", map[string]any{"username": s.Username})
	return c.Redirect("/login")
}
