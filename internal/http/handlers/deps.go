package handlers

import (
	"quotedesk/internal/cache"
	"quotedesk/internal/config"
	"quotedesk/internal/mail"
	"quotedesk/internal/pricewatch"
	"quotedesk/internal/repos"
	"quotedesk/internal/services"
	"quotedesk/internal/session"
	"quotedesk/internal/sheets"
)

type Deps struct {
	Sessions *session.Store

	AuthHandler     *AuthHandler
	SearchHandler   *SearchHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	UploadHandler   *UploadHandler
	QuoteHandler    *QuoteHandler
	WatchHandler    *WatchHandler
	AdminHandler    *AdminHandler
}

// NewDeps wires repos, services and handlers over one workbook and cache. mailer and
// watcher may be nil; the matching features then report themselves as disabled.
func NewDeps(wb sheets.Workbook, store cache.Store, locker cache.Locker, cfg config.Config, mailer mail.Sender, watcher *pricewatch.Watcher) *Deps {
	if store == nil {
		store = cache.NewMemory()
	}
	sh := repos.NewSheets(wb, store, cfg.CacheTTL)
	userRepo := repos.NewUserRepo(sh)
	catRepo := repos.NewCategoryRepo(sh)
	prodRepo := repos.NewProductRepo(sh, catRepo)
	quoteRepo := repos.NewQuoteRepo(sh)
	logRepo := repos.NewLogRepo(sh)
	eolRepo := repos.NewEOLRepo(sh)

	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	act := &services.Activity{Logs: logRepo}
	authSvc := &services.AuthService{Users: userRepo, Activity: act, Mail: mailer, AdminEmail: cfg.AdminEmail}
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, act)
	uploadSvc := &services.UploadService{
		Cats:     catRepo,
		Prods:    prodRepo,
		EOL:      eolRepo,
		Activity: act,
		Locker:   locker,
		Targets:  cfg.TargetColumns,
	}
	quoteSvc := &services.QuoteService{
		Quotes:    quoteRepo,
		Catalog:   catalogSvc,
		Activity:  act,
		Mail:      mailer,
		TaxRate:   cfg.TaxRate,
		ValidDays: cfg.QuoteValidDays,
		Seller:    cfg.SellerInfo,
	}
	watchSvc := &services.WatchService{Watcher: watcher, Activity: act}
	adminSvc := &services.AdminService{Users: userRepo, Logs: logRepo, EOL: eolRepo, Activity: act}

	sessions := session.NewStore(store, cfg.SessionTTL)
	return &Deps{
		Sessions:        sessions,
		AuthHandler:     &AuthHandler{Auth: authSvc, Sessions: sessions},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		UploadHandler:   &UploadHandler{Upload: uploadSvc, Catalog: catalogSvc},
		QuoteHandler:    &QuoteHandler{Quotes: quoteSvc, Catalog: catalogSvc},
		WatchHandler:    &WatchHandler{Watch: watchSvc},
		AdminHandler:    &AdminHandler{Admin: adminSvc},
	}
}
