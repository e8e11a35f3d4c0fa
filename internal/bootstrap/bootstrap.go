// Package bootstrap builds the configured backends shared by the server and catalogctl.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"quotedesk/internal/cache"
	"quotedesk/internal/config"
	applog "quotedesk/internal/log"
	"quotedesk/internal/mail"
	"quotedesk/internal/pricewatch"
	"quotedesk/internal/sheets"
)

// MediaPrefix is the URL prefix the server maps onto the media directory.
const MediaPrefix = "/media/snaps"

// Closer releases whatever Open* acquired.
type Closer func() error

func noop() error { return nil }

// OpenWorkbook returns the SQL (sqlite/postgres) or Google Sheets backend.
func OpenWorkbook(ctx context.Context, cfg config.Config) (sheets.Workbook, Closer, error) {
	switch cfg.SheetsBackend {
	case "google":
		var opts []option.ClientOption
		switch {
		case cfg.GoogleCredsJSON != "":
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredsJSON)))
		case cfg.GoogleCredsFile != "":
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredsFile))
		}
		wb, err := sheets.OpenGoogle(ctx, cfg.SheetID, opts...)
		if err != nil {
			return nil, nil, err
		}
		if err := sheets.Ensure(ctx, wb, sheets.TabUsers, sheets.UsersHeader); err != nil {
			return nil, nil, fmt.Errorf("prepare users tab: %w", err)
		}
		return wb, noop, nil
	case "sql", "":
		wb, err := sheets.OpenSQL(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return wb, wb.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown SHEETS_BACKEND %q", cfg.SheetsBackend)
}

// OpenCache returns Redis when REDIS_ADDRESS is set, else the in-process LRU. The
// locker follows the cache so that syncs are serialised across instances too.
func OpenCache(ctx context.Context, cfg config.Config) (cache.Store, cache.Locker, Closer, error) {
	if cfg.RedisAddress == "" {
		return cache.NewMemory(), cache.NewLocalLocker(), noop, nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisAddress)
	if err != nil {
		return nil, nil, nil, err
	}
	return r, cache.NewRedisLocker(r), r.Close, nil
}

func NewMailer(cfg config.Config) mail.Sender {
	m := mail.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	if !m.Enabled() {
		applog.Logger().WithField("level", "info").Info("mail.disabled")
	}
	return m
}

// NewWatcher assembles the price watcher. It returns nil, without error, when the
// search or vision credentials are missing.
func NewWatcher(ctx context.Context, cfg config.Config) (*pricewatch.Watcher, Closer, error) {
	if cfg.SearchAPIKey == "" || cfg.SearchCX == "" || cfg.OpenAIKey == "" {
		applog.Logger().WithField("level", "info").Info("pricewatch.disabled")
		return nil, noop, nil
	}
	search, err := pricewatch.NewGoogleSearch(ctx, cfg.SearchAPIKey, cfg.SearchCX)
	if err != nil {
		return nil, nil, err
	}

	var render pricewatch.Renderer
	switch cfg.Renderer {
	case "browser":
		render = &pricewatch.BrowserRenderer{ProxyServer: cfg.ProxyServer}
	case "proxy", "":
		if cfg.ProxyAPIKey == "" {
			return nil, nil, errors.New("RENDERER=proxy needs PROXY_API_KEY")
		}
		render = pricewatch.NewProxyRenderer(cfg.ProxyAPIURL, cfg.ProxyAPIKey)
	default:
		return nil, nil, fmt.Errorf("unknown RENDERER %q", cfg.Renderer)
	}

	var store pricewatch.ImageStore = &pricewatch.LocalStore{Dir: cfg.ScreenshotDir, URLPrefix: MediaPrefix}
	closer := Closer(noop)
	if cfg.GCSBucket != "" {
		gcs, err := pricewatch.NewGCSStore(ctx, cfg.GCSBucket, cfg.GoogleCredsJSON)
		if err != nil {
			return nil, nil, err
		}
		store, closer = gcs, gcs.Close
	}

	vision := pricewatch.NewOpenAIVision(cfg.OpenAIKey, cfg.VisionModel)
	w := pricewatch.New(search, render, vision, store, cfg.ScanTimeout, cfg.ScanInterval, applog.Logger())
	return w, closer, nil
}
