package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	LogFile string

	// Workbook backend: "sql" (sqlite/postgres tables) or "google" (Sheets API).
	SheetsBackend   string
	DBDriver        string
	DBDSN           string
	SheetID         string
	GoogleCredsFile string
	GoogleCredsJSON string

	CacheTTL     time.Duration
	SessionTTL   time.Duration
	RedisAddress string

	TargetColumns  []string
	TaxRate        float64
	QuoteValidDays int
	SellerInfo     string

	MailgunDomain string
	MailgunAPIKey string
	MailgunSender string
	AdminEmail    string

	OpenAIKey     string
	VisionModel   string
	SearchAPIKey  string
	SearchCX      string
	Renderer      string
	ProxyAPIURL   string
	ProxyAPIKey   string
	ProxyServer   string
	ScanTimeout   time.Duration
	ScanInterval  time.Duration
	ScreenshotDir string
	GCSBucket     string
}

func Load() Config {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg := Config{
		Port:    getEnv("PORT", "8080"),
		LogFile: getEnv("LOG_FILE", "./quotedesk.log"),

		SheetsBackend:   strings.ToLower(getEnv("SHEETS_BACKEND", "sql")),
		DBDriver:        getEnv("DB_DRIVER", "sqlite"),
		DBDSN:           getEnv("DB_DSN", "quotedesk.db"),
		SheetID:         getEnv("GOOGLE_SHEET_ID", ""),
		GoogleCredsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		CacheTTL:     getDuration("CACHE_TTL", 60*time.Second),
		SessionTTL:   getDuration("SESSION_TTL", 12*time.Hour),
		RedisAddress: getEnv("REDIS_ADDRESS", ""),

		TargetColumns:  splitList(getEnv("TARGET_COLUMNS", "Product Name,SKU,Price,Stock")),
		TaxRate:        getFloat("TAX_RATE", 0.10),
		QuoteValidDays: getInt("QUOTE_VALID_DAYS", 30),
		SellerInfo:     getEnv("SELLER_INFO", "Quotedesk Pty Ltd"),

		MailgunDomain: getEnv("MAILGUN_DOMAIN", ""),
		MailgunAPIKey: getEnv("MAILGUN_API_KEY", ""),
		MailgunSender: getEnv("MAILGUN_SENDER", "Quotedesk <no-reply@quotedesk.test>"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),

		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		VisionModel:   getEnv("VISION_MODEL", "gpt-4o-mini"),
		SearchAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		SearchCX:      getEnv("GOOGLE_CX", ""),
		Renderer:      strings.ToLower(getEnv("RENDERER", "proxy")),
		ProxyAPIURL:   getEnv("PROXY_API_URL", "https://app.scrapingbee.com/api/v1/"),
		ProxyAPIKey:   getEnv("PROXY_API_KEY", ""),
		ProxyServer:   getEnv("PROXY_SERVER", ""),
		ScanTimeout:   getDuration("SCAN_TIMEOUT", 30*time.Second),
		ScanInterval:  getDuration("SCAN_INTERVAL", 2*time.Second),
		ScreenshotDir: getEnv("SCREENSHOT_DIR", "./web/media/snaps"),
		GCSBucket:     getEnv("GCS_BUCKET", ""),
	}

	log.Printf("[config] PORT=%s SHEETS_BACKEND=%s DB_DRIVER=%s DB_DSN=%s REDIS=%s RENDERER=%s LOG_FILE=%s",
		cfg.Port, cfg.SheetsBackend, cfg.DBDriver, mask(cfg.DBDSN), cfg.RedisAddress, cfg.Renderer, cfg.LogFile)
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mask hides credentials embedded in postgres URLs.
func mask(dsn string) string {
	if i := strings.Index(dsn, "@"); i > 0 {
		if j := strings.Index(dsn, "://"); j >= 0 && j < i {
			return dsn[:j+3] + "****" + dsn[i:]
		}
	}
	return dsn
}
