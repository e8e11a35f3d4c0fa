package handlers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"quotedesk/internal/catalog"
	"quotedesk/internal/domain"
	"quotedesk/internal/log"
	"quotedesk/internal/mail"
	"quotedesk/internal/quote"
	"quotedesk/internal/repos"
	"quotedesk/internal/services"
	"quotedesk/internal/validate"
)

type QuoteHandler struct {
	Quotes  *services.QuoteService
	Catalog *services.CatalogService
}

// Draft shows the quote being built.
func (h *QuoteHandler) Draft(c *fiber.Ctx) error {
	return h.renderDraft(c, fiber.StatusOK, nil)
}

// AddItem adds a catalog product (source=catalog) or a manual line.
func (h *QuoteHandler) AddItem(c *fiber.Ctx) error {
	s := current(c)
	qty := validate.Qty(c.FormValue("qty"))
	discount, err := parseDiscount(c.FormValue("discount"))
	if err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "discount"})
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": "Enter a valid discount"})
	}
	dtype := c.FormValue("discount_type", domain.DiscountPercent)

	if c.FormValue("source") == "catalog" {
		category, sku := c.FormValue("category"), c.FormValue("sku")
		err = h.Quotes.AddCatalogItem(c.UserContext(), s, category, sku, qty, discount, dtype)
		if err == nil {
			log.Info(c, "quote.item.add", map[string]any{"category": category, "sku": sku, "qty": qty})
			return c.Redirect("/quote")
		}
	} else {
		price, perr := catalog.ParseMoney(c.FormValue("price"))
		if perr != nil {
			return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": "Enter a valid unit price"})
		}
		err = h.Quotes.AddItem(s, services.ItemInput{
			Name:         c.FormValue("name"),
			Desc:         c.FormValue("desc"),
			Qty:          qty,
			Price:        price,
			DiscountVal:  discount,
			DiscountType: dtype,
		})
		if err == nil {
			log.Info(c, "quote.item.add", map[string]any{"manual": true, "qty": qty})
			return c.Redirect("/quote")
		}
	}

	switch {
	case errors.Is(err, repos.ErrNotFound):
		return h.renderDraft(c, fiber.StatusNotFound, fiber.Map{"Err": "Product not found"})
	case errors.Is(err, quote.ErrInvalidItem), errors.Is(err, catalog.ErrBadPrice):
		log.Security(c, "validation.fail", map[string]any{"field": "item", "err": err.Error()})
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": err.Error()})
	}
	log.Error(c, "quote.item.add", err, nil)
	return h.renderDraft(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not add the item"})
}

func (h *QuoteHandler) RemoveItem(c *fiber.Ctx) error {
	idx, err := strconv.Atoi(c.Params("idx"))
	if err != nil {
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": "Unknown line"})
	}
	if err := h.Quotes.RemoveItem(current(c), idx); err != nil {
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": err.Error()})
	}
	return c.Redirect("/quote")
}

func (h *QuoteHandler) Clear(c *fiber.Ctx) error {
	h.Quotes.Clear(current(c))
	log.Info(c, "quote.clear", nil)
	return c.Redirect("/quote")
}

func (h *QuoteHandler) SetClient(c *fiber.Ctx) error {
	err := h.Quotes.SetClient(current(c), services.ClientInput{
		Name:  c.FormValue("client_name"),
		Email: c.FormValue("client_email"),
		Phone: c.FormValue("client_phone"),
	})
	if err != nil {
		log.Security(c, "validation.fail", map[string]any{"form": "client", "err": err.Error()})
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": "Check the client name, email and phone"})
	}
	return c.Redirect("/quote")
}

func (h *QuoteHandler) Save(c *fiber.Ctx) error {
	q, err := h.Quotes.Save(c.UserContext(), current(c))
	switch {
	case errors.Is(err, services.ErrEmptyQuote):
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": "Add at least one item"})
	case errors.Is(err, services.ErrNoClient):
		return h.renderDraft(c, fiber.StatusBadRequest, fiber.Map{"Err": "Enter the client name"})
	case err != nil:
		log.Error(c, "quote.save", err, nil)
		return h.renderDraft(c, fiber.StatusInternalServerError, fiber.Map{"Err": "Could not save the quote"})
	}
	log.Audit(c, "quote.save", map[string]any{"quote_id": q.ID, "total": q.TotalAmount})
	return c.Redirect("/quotes/" + q.ID)
}

func (h *QuoteHandler) List(c *fiber.Ctx) error {
	qs, err := h.Quotes.List(c.UserContext(), current(c))
	if err != nil {
		log.Error(c, "quote.list", err, nil)
		return notFound(c, fiber.StatusInternalServerError, "Could not load quotes")
	}
	return render(c, "quotes", fiber.Map{"Quotes": qs})
}

func (h *QuoteHandler) View(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	}
	q, err := h.Quotes.Get(c.UserContext(), current(c), id)
	if err != nil {
		return h.lookupErr(c, id, err)
	}
	t := quote.Compute(q.Items, h.Quotes.TaxRate)
	return render(c, "quote_view", fiber.Map{
		"Q":        q,
		"Subtotal": t.SubtotalFloat(),
		"Tax":      t.TaxFloat(),
		"Grand":    t.GrandFloat(),
		"Statuses": []string{domain.QuoteDraft, domain.QuoteSent, domain.QuoteAccepted, domain.QuoteDeclined},
		"Notice":   c.Query("info"),
	})
}

// Load copies a saved quote into the draft.
func (h *QuoteHandler) Load(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	}
	if err := h.Quotes.Load(c.UserContext(), current(c), id); err != nil {
		return h.lookupErr(c, id, err)
	}
	log.Info(c, "quote.load", map[string]any{"quote_id": id})
	return c.Redirect("/quote")
}

func (h *QuoteHandler) PDF(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	}
	b, _, err := h.Quotes.PDF(c.UserContext(), current(c), id)
	if err != nil {
		return h.lookupErr(c, id, err)
	}
	log.Info(c, "quote.pdf", map[string]any{"quote_id": id})
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.pdf"`, id))
	return c.Send(b)
}

func (h *QuoteHandler) Email(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	}
	err := h.Quotes.Email(c.UserContext(), current(c), id)
	switch {
	case errors.Is(err, services.ErrNoClientMail):
		return c.Redirect("/quotes/" + id + "?info=nomail")
	case errors.Is(err, mail.ErrDisabled):
		return c.Redirect("/quotes/" + id + "?info=maildisabled")
	case err != nil && !errors.Is(err, repos.ErrNotFound) && !errors.Is(err, services.ErrForbidden):
		log.Error(c, "quote.email", err, map[string]any{"quote_id": id})
		return c.Redirect("/quotes/" + id + "?info=mailfailed")
	case err != nil:
		return h.lookupErr(c, id, err)
	}
	log.Audit(c, "quote.email", map[string]any{"quote_id": id})
	return c.Redirect("/quotes/" + id + "?info=sent")
}

func (h *QuoteHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := h.id(c)
	if !ok {
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	}
	status := c.FormValue("status")
	err := h.Quotes.SetStatus(c.UserContext(), current(c), id, status)
	if errors.Is(err, services.ErrBadStatus) {
		log.Security(c, "validation.fail", map[string]any{"field": "status", "value": status})
		return c.Status(fiber.StatusBadRequest).SendString("unknown status")
	}
	if err != nil {
		return h.lookupErr(c, id, err)
	}
	log.Audit(c, "quote.status", map[string]any{"quote_id": id, "status": status})
	return c.Redirect("/quotes/" + id)
}

func (h *QuoteHandler) id(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "quote_id"})
	}
	return id, ok
}

func (h *QuoteHandler) lookupErr(c *fiber.Ctx, id string, err error) error {
	switch {
	case errors.Is(err, repos.ErrNotFound):
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	case errors.Is(err, services.ErrForbidden):
		log.Security(c, "access.denied.quote", map[string]any{"quote_id": id})
		return notFound(c, fiber.StatusNotFound, "Quote not found")
	}
	log.Error(c, "quote.load", err, map[string]any{"quote_id": id})
	return notFound(c, fiber.StatusInternalServerError, "Could not load the quote")
}

func (h *QuoteHandler) renderDraft(c *fiber.Ctx, status int, extra fiber.Map) error {
	s := current(c)
	cats, err := h.Catalog.CategoryNames(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.categories", err, nil)
	}
	t := h.Quotes.Totals(s)
	data := fiber.Map{
		"Draft":      s.Draft,
		"Categories": cats,
		"Subtotal":   t.SubtotalFloat(),
		"Tax":        t.TaxFloat(),
		"Grand":      t.GrandFloat(),
		"TaxRate":    h.Quotes.TaxRate * 100,
	}
	for k, v := range extra {
		data[k] = v
	}
	return renderStatus(c, status, "quote", data)
}

func parseDiscount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.New("discount is not a finite number")
	}
	return f, nil
}
