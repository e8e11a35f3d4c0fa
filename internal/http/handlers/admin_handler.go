package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "quotedesk/internal/log"
	"quotedesk/internal/repos"
	"quotedesk/internal/services"
	"quotedesk/internal/validate"
)

type AdminHandler struct {
	Admin *services.AdminService
}

// recentLogs is how many activity rows the admin page shows.
const recentLogs = 100

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	pending, err := h.Admin.Pending(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.pending.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load users")
	}
	return render(c, "admin_dashboard", fiber.Map{"Pending": pending})
}

// GET /admin/users
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Admin.AllUsers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load users")
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}

// POST /admin/users/:username/approve
func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	username, ok := validate.Username(c.Params("username"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid username")
	}
	if err := h.Admin.Approve(c.UserContext(), current(c).Username, username); err != nil {
		return h.userErr(c, "admin.users.approve.fail", username, err)
	}
	applog.Audit(c, "admin.users.approve", map[string]any{"target": username})
	return c.Redirect("/admin")
}

// POST /admin/users/:username/role
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	username, ok := validate.Username(c.Params("username"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid username")
	}
	role := c.FormValue("role")
	if err := h.Admin.SetRole(c.UserContext(), current(c).Username, username, role); err != nil {
		return h.userErr(c, "admin.users.role.fail", username, err)
	}
	applog.Audit(c, "admin.users.role", map[string]any{"target": username, "role": role})
	return c.Redirect("/admin/users")
}

// GET /admin/logs
func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	entries, err := h.Admin.RecentLogs(c.UserContext(), recentLogs)
	if err != nil {
		applog.Error(c, "admin.logs.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load the activity log")
	}
	return render(c, "admin_logs", fiber.Map{"Logs": entries})
}

// GET /admin/eol
func (h *AdminHandler) EOL(c *fiber.Ctx) error {
	t, err := h.Admin.EOLArchive(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.eol.fail", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load the EOL archive")
	}
	return render(c, "admin_eol", fiber.Map{"Headers": t.Headers, "Rows": t.Rows})
}

func (h *AdminHandler) userErr(c *fiber.Ctx, action, username string, err error) error {
	switch {
	case errors.Is(err, repos.ErrNotFound):
		return c.Status(fiber.StatusNotFound).SendString("no such user")
	case errors.Is(err, services.ErrInvalidInput):
		applog.Security(c, action, map[string]any{"target": username, "err": err.Error()})
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	applog.Error(c, action, err, map[string]any{"target": username})
	return c.Status(fiber.StatusInternalServerError).SendString("could not update user")
}
