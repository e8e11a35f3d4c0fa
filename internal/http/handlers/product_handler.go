package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/log"
	"quotedesk/internal/repos"
	"quotedesk/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// Price reveals one product's price. Every reveal lands in the activity log.
func (h *ProductHandler) Price(c *fiber.Ctx) error {
	category := strings.TrimSpace(c.Query("category"))
	sku := strings.TrimSpace(c.Query("sku"))
	if category == "" || sku == "" || len(sku) > 64 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing category or sku",
		})
	}
	price, err := h.Catalog.RevealPrice(c.UserContext(), current(c).Username, category, sku)
	if errors.Is(err, repos.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no price for this product",
		})
	}
	if err != nil {
		log.Error(c, "catalog.price", err, map[string]any{"category": category, "sku": sku})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not load the price",
		})
	}
	log.Info(c, "catalog.price.view", map[string]any{"category": category, "sku": sku})
	return c.JSON(fiber.Map{"category": category, "sku": sku, "price": price})
}
