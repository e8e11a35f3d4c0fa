package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/log"
	"quotedesk/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.categories", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load categories")
	}
	return render(c, "categories", fiber.Map{"Categories": cats, "Name": ""})
}

func (h *CategoryHandler) Add(c *fiber.Ctx) error {
	s := current(c)
	name := c.FormValue("name")
	err := h.Catalog.AddCategory(c.UserContext(), s.Username, name)
	if err != nil {
		status, msg := fiber.StatusInternalServerError, "Could not add the category"
		switch {
		case errors.Is(err, services.ErrCategoryExists):
			status, msg = fiber.StatusConflict, "That category already exists"
		case errors.Is(err, services.ErrInvalidInput):
			log.Security(c, "validation.fail", map[string]any{"field": "category", "value": name})
			status, msg = fiber.StatusBadRequest, err.Error()
		default:
			log.Error(c, "catalog.category.add", err, map[string]any{"name": name})
		}
		cats, _ := h.Catalog.ListCategories(c.UserContext())
		return renderStatus(c, status, "categories", fiber.Map{"Categories": cats, "Err": msg, "Name": name})
	}
	log.Audit(c, "catalog.category.add", map[string]any{"name": name})
	return c.Redirect("/categories")
}
