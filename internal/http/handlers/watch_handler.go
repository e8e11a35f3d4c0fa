package handlers

import (
	"bytes"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/log"
	"quotedesk/internal/services"
	"quotedesk/internal/validate"
)

type WatchHandler struct {
	Watch *services.WatchService
}

func (h *WatchHandler) Page(c *fiber.Ctx) error {
	return h.renderPage(c, fiber.StatusOK, nil)
}

// Add searches resellers for a SKU, or adds one manual link.
func (h *WatchHandler) Add(c *fiber.Ctx) error {
	sku, ok := validate.Q(c.FormValue("sku"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "sku"})
		return h.renderPage(c, fiber.StatusBadRequest, fiber.Map{"Err": "Enter a valid SKU"})
	}
	link := strings.TrimSpace(c.FormValue("url"))
	if link != "" {
		if u, err := url.Parse(link); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			log.Security(c, "validation.fail", map[string]any{"field": "url"})
			return h.renderPage(c, fiber.StatusBadRequest, fiber.Map{"Err": "Enter a full http(s) link"})
		}
	}
	n, err := h.Watch.Add(c.UserContext(), current(c), sku, link)
	if err != nil {
		return h.fail(c, "watch.add", err)
	}
	log.Info(c, "watch.add", map[string]any{"sku": sku, "added": n, "manual": link != ""})
	return c.Redirect("/watch")
}

func (h *WatchHandler) LoadMore(c *fiber.Ctx) error {
	n, err := h.Watch.LoadMore(c.UserContext(), current(c))
	if err != nil {
		return h.fail(c, "watch.more", err)
	}
	log.Info(c, "watch.more", map[string]any{"added": n})
	return c.Redirect("/watch")
}

func (h *WatchHandler) Remove(c *fiber.Ctx) error {
	h.Watch.Remove(current(c), selected(c))
	return c.Redirect("/watch")
}

func (h *WatchHandler) Clear(c *fiber.Ctx) error {
	h.Watch.Clear(current(c))
	return c.Redirect("/watch")
}

// Scan prices the ticked rows, or every row when none are ticked.
func (h *WatchHandler) Scan(c *fiber.Ctx) error {
	sel := selected(c)
	if err := h.Watch.Scan(c.UserContext(), current(c), sel); err != nil {
		return h.fail(c, "watch.scan", err)
	}
	log.Audit(c, "watch.scan", map[string]any{"rows": len(sel)})
	return c.Redirect("/watch")
}

func (h *WatchHandler) CSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.Watch.CSV(&buf, current(c)); err != nil {
		log.Error(c, "watch.csv", err, nil)
		return c.Status(fiber.StatusInternalServerError).SendString("could not export")
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="price_watch.csv"`)
	return c.Send(buf.Bytes())
}

func (h *WatchHandler) fail(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrWatcherOff):
		return h.renderPage(c, fiber.StatusServiceUnavailable, fiber.Map{"Err": "The price watcher is not configured"})
	case errors.Is(err, services.ErrInvalidInput):
		return h.renderPage(c, fiber.StatusBadRequest, fiber.Map{"Err": err.Error()})
	}
	log.Error(c, action, err, nil)
	return h.renderPage(c, fiber.StatusBadGateway, fiber.Map{"Err": "The search service did not answer. Please retry."})
}

func (h *WatchHandler) renderPage(c *fiber.Ctx, status int, extra fiber.Map) error {
	s := current(c)
	data := fiber.Map{
		"Entries": s.Watchlist,
		"SKU":     s.WatchSKU,
		"Offset":  s.WatchOffset,
		"Enabled": h.Watch.Watcher != nil,
	}
	for k, v := range extra {
		data[k] = v
	}
	return renderStatus(c, status, "watch", data)
}

// selected reads the ticked row indexes ("sel" checkboxes).
func selected(c *fiber.Ctx) []int {
	var out []int
	for _, raw := range c.Request().PostArgs().PeekMulti("sel") {
		if i, err := strconv.Atoi(string(raw)); err == nil && i >= 0 {
			out = append(out, i)
		}
	}
	return out
}
