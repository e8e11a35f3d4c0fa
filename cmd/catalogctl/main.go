package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"quotedesk/internal/bootstrap"
	"quotedesk/internal/config"
	"quotedesk/internal/domain"
	"quotedesk/internal/repos"
	"quotedesk/internal/services"
	"quotedesk/internal/session"
)

const usage = "expected one of: add-user, approve-user, sync, pricewatch"

func main() {
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	username := addUserCmd.String("username", "", "Username for the new user")
	email := addUserCmd.String("email", "", "Email for the new user")
	password := addUserCmd.String("password", "", "Password for the new user")
	admin := addUserCmd.Bool("admin", false, "Give the user the admin role")

	approveCmd := flag.NewFlagSet("approve-user", flag.ExitOnError)
	approveName := approveCmd.String("username", "", "Pending user to activate")

	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)
	syncFile := syncCmd.String("file", "", "CSV or XLSX snapshot of the category")
	syncCategory := syncCmd.String("category", "", "Category to replace")
	syncKey := syncCmd.String("key", "SKU", "Key column used to compare rows")
	syncNoHeader := syncCmd.Bool("no-header", false, "The file has no header row")
	syncAppend := syncCmd.Bool("append", false, "Append the rows instead of replacing the category")

	watchCmd := flag.NewFlagSet("pricewatch", flag.ExitOnError)
	watchSKU := watchCmd.String("sku", "", "SKU or product name to look up")
	watchURL := watchCmd.String("url", "", "Check this one page instead of searching")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()

	switch os.Args[1] {
	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" || *email == "" {
			fmt.Println("username, email and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		role := domain.RoleUser
		if *admin {
			role = domain.RoleAdmin
		}
		addUser(ctx, cfg, services.RegisterInput{Username: *username, Email: *email, Password: *password}, role)
	case "approve-user":
		approveCmd.Parse(os.Args[2:])
		if *approveName == "" {
			approveCmd.PrintDefaults()
			os.Exit(1)
		}
		approveUser(ctx, cfg, *approveName)
	case "sync":
		syncCmd.Parse(os.Args[2:])
		if *syncFile == "" || *syncCategory == "" {
			fmt.Println("file and category are required")
			syncCmd.PrintDefaults()
			os.Exit(1)
		}
		syncCategoryFile(ctx, cfg, *syncFile, *syncCategory, *syncKey, !*syncNoHeader, *syncAppend)
	case "pricewatch":
		watchCmd.Parse(os.Args[2:])
		if *watchSKU == "" {
			watchCmd.PrintDefaults()
			os.Exit(1)
		}
		priceWatch(ctx, cfg, *watchSKU, *watchURL)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

// open returns a process-local cached sheets layer plus a cleanup func.
func open(ctx context.Context, cfg config.Config) (*repos.Sheets, func()) {
	wb, closeWB, err := bootstrap.OpenWorkbook(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open workbook: %v", err)
	}
	return repos.NewSheets(wb, nil, cfg.CacheTTL), func() { _ = closeWB() }
}

func addUser(ctx context.Context, cfg config.Config, in services.RegisterInput, role string) {
	sh, done := open(ctx, cfg)
	defer done()
	auth := &services.AuthService{Users: repos.NewUserRepo(sh), Activity: &services.Activity{Logs: repos.NewLogRepo(sh)}}
	if err := auth.CreateUser(ctx, in, role); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("User '%s' created with role %s.\n", in.Username, role)
}

func approveUser(ctx context.Context, cfg config.Config, username string) {
	sh, done := open(ctx, cfg)
	defer done()
	admin := &services.AdminService{Users: repos.NewUserRepo(sh), Activity: &services.Activity{Logs: repos.NewLogRepo(sh)}}
	if err := admin.Approve(ctx, "catalogctl", username); err != nil {
		log.Fatalf("Failed to approve user: %v", err)
	}
	fmt.Printf("User '%s' is now active.\n", username)
}

func syncCategoryFile(ctx context.Context, cfg config.Config, path, category, key string, hasHeader, appendOnly bool) {
	sh, done := open(ctx, cfg)
	defer done()
	_, locker, closeCache, err := bootstrap.OpenCache(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer closeCache()

	cats := repos.NewCategoryRepo(sh)
	svc := &services.UploadService{
		Cats:     cats,
		Prods:    repos.NewProductRepo(sh, cats),
		EOL:      repos.NewEOLRepo(sh),
		Activity: &services.Activity{Logs: repos.NewLogRepo(sh)},
		Locker:   locker,
		Targets:  cfg.TargetColumns,
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()
	up, err := svc.Preview(filepath.Base(path), f, hasHeader, category)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}
	printMapping(cfg.TargetColumns, up)

	if appendOnly {
		n, err := svc.Append(ctx, "catalogctl", category, up, up.Mapping)
		if err != nil {
			log.Fatalf("Append failed: %v", err)
		}
		fmt.Printf("Appended %d rows to %s.\n", n, category)
		return
	}
	res, err := svc.Sync(ctx, "catalogctl", category, key, up, up.Mapping)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	fmt.Printf("Synced %s: %d rows, %d new, %d end of life, %d unchanged.\n",
		category, res.Rows, len(res.NewKeys), len(res.EOLKeys), len(res.Unchanged))
	if len(res.EOLKeys) > 0 {
		fmt.Printf("Archived: %s\n", strings.Join(res.EOLKeys, ", "))
	}
}

func printMapping(targets []string, up session.Upload) {
	for _, t := range targets {
		src := up.Mapping[t]
		if src == "" {
			src = "(skip)"
		}
		fmt.Printf("  %-16s <- %s\n", t, src)
	}
}

func priceWatch(ctx context.Context, cfg config.Config, sku, link string) {
	w, closeWatch, err := bootstrap.NewWatcher(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start the price watcher: %v", err)
	}
	defer closeWatch()
	svc := &services.WatchService{Watcher: w}
	sess := &session.Session{Username: "catalogctl"}
	n, err := svc.Add(ctx, sess, sku, link)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	log.Printf("scanning %d pages for %s", n, sku)
	if err := svc.Scan(ctx, sess, nil); err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	if err := svc.CSV(os.Stdout, sess); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}
}
