package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/log"
	"quotedesk/internal/repos"
	"quotedesk/internal/services"
	"quotedesk/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// Search serves the product check page: a keyword search across all categories, or one
// category listed in full.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	ctx := c.UserContext()
	s := current(c)
	cats, err := h.Catalog.CategoryNames(ctx)
	if err != nil {
		log.Error(c, "catalog.categories", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load the catalog. Please retry.")
	}
	data := fiber.Map{
		"Categories": cats,
		"Products":   []services.ProductView{},
		"Count":      0,
		"Draft":      len(s.Draft.Items),
		"Q":          "",
		"Category":   "",
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		data["Category"] = category
		products, err := h.Catalog.Category(ctx, category)
		if errors.Is(err, repos.ErrNotFound) {
			log.Security(c, "validation.fail", map[string]any{"field": "category", "value": category})
			data["Err"] = "Unknown category"
			return renderStatus(c, fiber.StatusNotFound, "search", data)
		}
		if err != nil {
			log.Error(c, "catalog.category", err, map[string]any{"category": category})
			return notFound(c, fiber.StatusInternalServerError, "Could not load results. Please retry.")
		}
		data["Products"], data["Count"] = products, len(products)
		return render(c, "search", data)
	}

	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		// Initial page load: show empty search without errors
		data["Q"] = s.SearchQuery
		return render(c, "search", data)
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		data["Err"] = "Enter a valid keyword (letters/numbers only)"
		return renderStatus(c, fiber.StatusBadRequest, "search", data)
	}
	products, err := h.Catalog.Search(ctx, q)
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load results. Please retry.")
	}
	s.SearchQuery = q
	data["Q"], data["Products"], data["Count"] = q, products, len(products)
	return render(c, "search", data)
}
