package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverHTTP     = "http"
	DriverPostgres = "postgres"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Driver      string // BACKEND_DRIVER: http (store API) or postgres (read replica)
	Commerce    CommerceConfig
	Database    DatabaseConfig
	Storefront  StorefrontConfig
	OrderSync   OrderSyncConfig
}

// CommerceConfig is used to call the commerce backend's store API
type CommerceConfig struct {
	BaseURL        string // e.g. http://medusa:9000
	PublishableKey string // COMMERCE_PUBLISHABLE_KEY, sent as x-publishable-api-key
	Timeout        time.Duration
	MaxRetries     int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type StorefrontConfig struct {
	DefaultCountryCode string
	RegionCookieName   string
	SearchProductLimit int
}

type OrderSyncConfig struct {
	PollInterval     time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int    // 0 = one fetch per tracked order
	WebhookURL       string // ORDER_WEBHOOK_URL: optional, receives status changes
}

func Load() (*Config, error) {
	// .env values populate the process environment; real env vars win
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	l := loader{v: v}
	cfg := &Config{
		Port:        l.str("PORT", "8080"),
		Environment: l.str("ENVIRONMENT", "development"),
		LogLevel:    l.str("LOG_LEVEL", "info"),
		Driver:      strings.ToLower(strings.TrimSpace(l.str("BACKEND_DRIVER", DriverHTTP))),
		Commerce: CommerceConfig{
			BaseURL:        strings.TrimSpace(l.str("COMMERCE_BASE_URL", "")),
			PublishableKey: strings.TrimSpace(l.str("COMMERCE_PUBLISHABLE_KEY", "")),
			Timeout:        l.duration("COMMERCE_TIMEOUT", 30*time.Second),
			MaxRetries:     l.integer("COMMERCE_MAX_RETRIES", 3),
		},
		Database: DatabaseConfig{
			Host:     l.str("DB_HOST", "localhost"),
			Port:     l.str("DB_PORT", "5432"),
			User:     l.str("DB_USER", "postgres"),
			Password: l.str("DB_PASSWORD", "postgres"),
			DBName:   l.str("DB_NAME", "medusa"),
			SSLMode:  l.str("DB_SSLMODE", "disable"),
		},
		Storefront: StorefrontConfig{
			DefaultCountryCode: strings.ToLower(strings.TrimSpace(l.str("DEFAULT_COUNTRY_CODE", "es"))),
			RegionCookieName:   strings.TrimSpace(l.str("REGION_COOKIE_NAME", "_region")),
			SearchProductLimit: l.integer("SEARCH_PRODUCT_LIMIT", 100),
		},
		OrderSync: OrderSyncConfig{
			PollInterval:     l.duration("ORDER_POLL_INTERVAL", 60*time.Second),
			FetchTimeout:     l.duration("ORDER_FETCH_TIMEOUT", 15*time.Second),
			FetchConcurrency: l.integer("ORDER_FETCH_CONCURRENCY", 0),
			WebhookURL:       strings.TrimSpace(l.str("ORDER_WEBHOOK_URL", "")),
		},
	}
	if l.err != nil {
		return nil, l.err
	}

	// Validate required fields
	switch cfg.Driver {
	case DriverHTTP:
		if cfg.Commerce.BaseURL == "" {
			return nil, fmt.Errorf("COMMERCE_BASE_URL is required")
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("BACKEND_DRIVER must be %q or %q, got %q", DriverHTTP, DriverPostgres, cfg.Driver)
	}
	if cfg.OrderSync.PollInterval <= 0 {
		return nil, fmt.Errorf("ORDER_POLL_INTERVAL must be positive")
	}
	if cfg.OrderSync.FetchConcurrency < 0 {
		return nil, fmt.Errorf("ORDER_FETCH_CONCURRENCY must not be negative")
	}

	return cfg, nil
}

// loader reads keys with getEnvOrViper precedence and keeps the first parse error
type loader struct {
	v   *viper.Viper
	err error
}

func (l *loader) str(key, defaultValue string) string {
	return getEnvOrViper(l.v, key, defaultValue)
}

func (l *loader) duration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(l.str(key, ""))
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		// bare numbers are seconds
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			l.fail(fmt.Errorf("%s: invalid duration %q", key, raw))
			return defaultValue
		}
		d = time.Duration(secs) * time.Second
	}
	return d
}

func (l *loader) integer(key string, defaultValue int) int {
	raw := strings.TrimSpace(l.str(key, ""))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		l.fail(fmt.Errorf("%s: invalid integer %q", key, raw))
		return defaultValue
	}
	return n
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func getEnvOrViper(v *viper.Viper, key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return defaultValue
}
