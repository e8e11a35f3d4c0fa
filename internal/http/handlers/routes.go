package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "quotedesk/internal/log"
)

// Register mounts the session middleware and every page and API route on r.
func (d *Deps) Register(r fiber.Router) {
	r.Use(Sessions(d.Sessions))

	// Auth routes (login throttled)
	r.Get("/login", d.AuthHandler.LoginForm)
	r.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return renderStatus(c, fiber.StatusTooManyRequests, "login", fiber.Map{"Username": "", "Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	r.Get("/register", d.AuthHandler.RegisterForm)
	r.Post("/register", limiter.New(limiter.Config{Max: 5, Expiration: time.Hour}), d.AuthHandler.Register)
	r.Post("/logout", d.AuthHandler.Logout)

	user := RequireUser()

	// Product check
	r.Get("/", user, d.SearchHandler.Search)
	r.Get("/search", user, limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), d.SearchHandler.Search)
	r.Get("/categories", user, d.CategoryHandler.List)
	r.Post("/categories", user, d.CategoryHandler.Add)

	api := r.Group("/api/v1", user)
	priceLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|price"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.price.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/price", priceLimiter, d.ProductHandler.Price)

	// Upload & mapping
	r.Get("/upload", user, d.UploadHandler.Form)
	r.Post("/upload", user, d.UploadHandler.Preview)
	r.Get("/upload/:id", user, d.UploadHandler.Mapping)
	r.Post("/upload/:id", user, d.UploadHandler.Save)
	r.Post("/upload/:id/discard", user, d.UploadHandler.Discard)

	// Quotes
	r.Get("/quote", user, d.QuoteHandler.Draft)
	r.Post("/quote/items", user, d.QuoteHandler.AddItem)
	r.Post("/quote/items/:idx/delete", user, d.QuoteHandler.RemoveItem)
	r.Post("/quote/clear", user, d.QuoteHandler.Clear)
	r.Post("/quote/client", user, d.QuoteHandler.SetClient)
	r.Post("/quote/save", user, d.QuoteHandler.Save)
	r.Get("/quotes", user, d.QuoteHandler.List)
	r.Get("/quotes/:id", user, d.QuoteHandler.View)
	r.Get("/quotes/:id/pdf", user, d.QuoteHandler.PDF)
	r.Post("/quotes/:id/load", user, d.QuoteHandler.Load)
	r.Post("/quotes/:id/email", user, limiter.New(limiter.Config{Max: 10, Expiration: time.Hour}), d.QuoteHandler.Email)
	r.Post("/quotes/:id/status", user, d.QuoteHandler.SetStatus)

	// Price watcher
	r.Get("/watch", user, d.WatchHandler.Page)
	r.Post("/watch/add", user, d.WatchHandler.Add)
	r.Post("/watch/more", user, d.WatchHandler.LoadMore)
	r.Post("/watch/remove", user, d.WatchHandler.Remove)
	r.Post("/watch/clear", user, d.WatchHandler.Clear)
	r.Post("/watch/scan", user, d.WatchHandler.Scan)
	r.Get("/watch/csv", user, d.WatchHandler.CSV)

	// Admin
	admin := r.Group("/admin", RequireAdmin())
	admin.Get("/", d.AdminHandler.Dashboard)
	admin.Get("/users", d.AdminHandler.UsersPage)
	admin.Post("/users/:username/approve", d.AdminHandler.Approve)
	admin.Post("/users/:username/role", d.AdminHandler.SetRole)
	admin.Get("/logs", d.AdminHandler.Logs)
	admin.Get("/eol", d.AdminHandler.EOL)
}
