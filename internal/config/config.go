package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress        string
	DatabaseURI       string
	JWTSecret         string
	TokenTTL          time.Duration
	ShutdownTimeout   time.Duration
	RemovalDiscount   decimal.Decimal
	OrderNumberPrefix string
	KitchenWebhookURL string
	LogLevel          string
}

const (
	defaultRunAddress        = ":8080"
	defaultJWTSecret         = "change-me-in-production"
	defaultTokenTTL          = 12 * time.Hour
	defaultShutdownTimeout   = 10 * time.Second
	defaultRemovalDiscount   = "50"
	defaultOrderNumberPrefix = "PZ"
	defaultLogLevel          = "info"
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		JWTSecret:         getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:          getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		OrderNumberPrefix: getString(lookup, "ORDER_NUMBER_PREFIX", defaultOrderNumberPrefix),
		KitchenWebhookURL: getString(lookup, "KITCHEN_WEBHOOK_URL", ""),
		LogLevel:          getString(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	fs := flag.NewFlagSet("pizzeria", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		tokenTTLStr        = cfg.TokenTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		removalDiscountStr = getString(lookup, "REMOVAL_DISCOUNT", defaultRemovalDiscount)
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Lifetime of staff auth tokens")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&removalDiscountStr, "removal-discount", removalDiscountStr, "Discount per removed ingredient")
	fs.StringVar(&cfg.OrderNumberPrefix, "order-prefix", cfg.OrderNumberPrefix, "Prefix of generated order numbers")
	fs.StringVar(&cfg.KitchenWebhookURL, "k", cfg.KitchenWebhookURL, "Kitchen display webhook URL")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.RemovalDiscount, err = decimal.NewFromString(removalDiscountStr); err != nil {
		return nil, fmt.Errorf("invalid removal discount: %w", err)
	}
	if cfg.RemovalDiscount.IsNegative() {
		return nil, fmt.Errorf("removal discount must not be negative")
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.OrderNumberPrefix = strings.ToUpper(strings.TrimSpace(cfg.OrderNumberPrefix))
	if cfg.OrderNumberPrefix == "" {
		cfg.OrderNumberPrefix = defaultOrderNumberPrefix
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.KitchenWebhookURL != "" {
		u, err := url.Parse(cfg.KitchenWebhookURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid kitchen webhook URL %q", cfg.KitchenWebhookURL)
		}
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
