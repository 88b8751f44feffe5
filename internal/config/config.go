// Package config reads the engine's configuration from the environment
// into one explicit value handed to constructors; nothing in the engine
// reads the environment after startup.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store identifies one storefront and its API credentials.
type Store struct {
	Domain string
	Token  string
}

// Config is the full engine configuration.
type Config struct {
	// Master is the source-of-truth storefront whose orders drive the
	// ledger. Secondary is the optional second storefront sharing the same
	// physical stock; empty domain disables cross-store synchronization.
	Master    Store
	Secondary Store

	// UsePrefixPerStore namespaces ledger ids with the store domain. The
	// master store stays unprefixed for compatibility with ids recorded
	// before multi-store support.
	UsePrefixPerStore bool

	// StartDate is the lower bound for order fetching.
	StartDate time.Time

	// SegmentCountry is the destination country broken out into its own
	// sales table (historically the US report).
	SegmentCountry string

	DatabaseURL string

	// Reporting store.
	GoogleCredentialsJSON []byte
	SpreadsheetID         string
	StockSheet            string
	SalesSheet            string
	SegmentSalesSheet     string

	// LocationID pins stock operations to one location instead of the
	// store's primary location. 0 means primary.
	LocationID int64

	// Pacing policy for remote calls.
	Pace       time.Duration
	RetryDelay time.Duration

	// Ops API.
	Port             string
	JWTSecret        string
	OperatorEmail    string
	OperatorPassword string // bcrypt hash
	AllowedOrigins   []string
}

const defaultStartDate = "2025-07-02"

// Load reads configs/.env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := Config{
		Master: Store{
			Domain: getenv("SHOP_DOMAIN_1", ""),
			Token:  getenv("SHOPIFY_ACCESS_TOKEN_1", ""),
		},
		Secondary: Store{
			Domain: getenv("SHOP_DOMAIN_2", ""),
			Token:  getenv("SHOPIFY_ACCESS_TOKEN_2", ""),
		},
		UsePrefixPerStore: getenv("USE_STORE_PREFIX", "") == "true",
		SegmentCountry:    getenv("SEGMENT_COUNTRY", "US"),
		DatabaseURL:       getenv("DATABASE_URL", ""),
		SpreadsheetID:     getenv("SPREADSHEET_ID", ""),
		StockSheet:        getenv("STOCK_SHEET", "Blad1"),
		SalesSheet:        getenv("SALES_SHEET", "Blad2"),
		SegmentSalesSheet: getenv("SEGMENT_SALES_SHEET", "Blad3"),
		Pace:              2 * time.Second,
		RetryDelay:        60 * time.Second,
		Port:              getenv("PORT", "8080"),
		JWTSecret:         getenv("JWT_SECRET", ""),
		OperatorEmail:     getenv("OPERATOR_EMAIL", ""),
		OperatorPassword:  getenv("OPERATOR_PASSWORD_HASH", ""),
		AllowedOrigins:    []string{getenv("ALLOWED_ORIGIN", "http://localhost:5173")},
	}

	if cfg.Master.Domain == "" {
		return Config{}, fmt.Errorf("missing env SHOP_DOMAIN_1")
	}
	if cfg.Master.Token == "" {
		return Config{}, fmt.Errorf("missing env SHOPIFY_ACCESS_TOKEN_1")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing env DATABASE_URL")
	}
	if creds := os.Getenv("GOOGLE_CREDENTIALS_JSON"); creds != "" {
		cfg.GoogleCredentialsJSON = []byte(creds)
	} else {
		return Config{}, fmt.Errorf("missing env GOOGLE_CREDENTIALS_JSON")
	}
	if cfg.SpreadsheetID == "" {
		return Config{}, fmt.Errorf("missing env SPREADSHEET_ID")
	}

	start := getenv("START_DATE", defaultStartDate)
	parsed, err := time.Parse("2006-01-02", start)
	if err != nil {
		return Config{}, fmt.Errorf("invalid START_DATE %q: %w", start, err)
	}
	cfg.StartDate = parsed

	if raw := os.Getenv("LOCATION_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOCATION_ID %q: %w", raw, err)
		}
		cfg.LocationID = id
	}

	return cfg, nil
}

// MultiStore reports whether a secondary storefront is configured.
func (c Config) MultiStore() bool {
	return c.Secondary.Domain != "" && c.Secondary.Token != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
