package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"quotedesk/internal/bootstrap"
	"quotedesk/internal/config"
	"quotedesk/internal/http/handlers"
	applog "quotedesk/internal/log"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
		}
	}

	wb, closeWB, err := bootstrap.OpenWorkbook(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeWB()
	store, locker, closeCache, err := bootstrap.OpenCache(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()
	watcher, closeWatch, err := bootstrap.NewWatcher(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeWatch()

	deps := handlers.NewDeps(wb, store, locker, cfg, bootstrap.NewMailer(cfg), watcher)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		// uploads carry whole supplier catalogs
		BodyLimit: 16 << 20,
		// a scan of a full page of results takes a while
		WriteTimeout: 15 * time.Minute,
		ErrorHandler: handlers.ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.ScreenshotDir
	if abs, err := filepath.Abs(mediaDir); err == nil {
		mediaDir = abs
	}
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] %s -> %s", bootstrap.MediaPrefix, mediaDir)

	app.Static("/static", "./web/static")
	app.Get(bootstrap.MediaPrefix+"/*", handlers.Media(mediaDir))

	// Health
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// ---------- App handlers ----------
	deps.Register(app)

	app.Use(handlers.NotFound)

	log.Fatal(app.Listen(":" + cfg.Port))
}
