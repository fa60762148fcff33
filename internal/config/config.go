// Package config loads server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port    int
	BaseURL string

	DBDriver string
	DBDSN    string

	JWTSecret  string
	SessionTTL time.Duration

	AdminUsername string
	// Exactly one of AdminPasswordHash (bcrypt) or AdminPassword is set.
	AdminPasswordHash string
	AdminPassword     string

	Currency string

	BlobBackend         string // local or gcs
	BlobDir             string
	BlobPublicURL       string
	GCSBucket           string
	GCSCredentialsFile  string
	StripeSecretKey     string
	StripeWebhookSecret string

	RedisAddr string
	CacheTTL  time.Duration

	LogLevel  string
	LogFormat string

	LoginRate  float64 // attempts per second per client IP
	LoginBurst int
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration using getenv and validates it.
func LoadFrom(getenv func(string) string) (*Config, error) {
	getEnv := func(key, fallback string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return fallback
	}

	var errs []error
	getDuration := func(key string, fallback time.Duration) time.Duration {
		v := getenv(key)
		if v == "" {
			return fallback
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return d
	}
	getInt := func(key string, fallback int) int {
		v := getenv(key)
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return n
	}
	getFloat := func(key string, fallback float64) float64 {
		v := getenv(key)
		if v == "" {
			return fallback
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return f
	}

	cfg := &Config{
		Port:                getInt("PORT", 8080),
		DBDriver:            getEnv("DB_DRIVER", "sqlite"),
		DBDSN:               getEnv("DB_DSN", "./data/rentroll.db"),
		JWTSecret:           getenv("JWT_SECRET"),
		SessionTTL:          getDuration("SESSION_TTL", 24*time.Hour),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash:   getenv("ADMIN_PASSWORD_HASH"),
		AdminPassword:       getenv("ADMIN_PASSWORD"),
		Currency:            strings.ToLower(getEnv("CURRENCY", "inr")),
		BlobBackend:         getEnv("BLOB_BACKEND", "local"),
		BlobDir:             getEnv("BLOB_DIR", "./data/documents"),
		BlobPublicURL:       getEnv("BLOB_PUBLIC_URL", "/files"),
		GCSBucket:           getenv("GCS_BUCKET"),
		GCSCredentialsFile:  getenv("GCS_CREDENTIALS_FILE"),
		StripeSecretKey:     getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: getenv("STRIPE_WEBHOOK_SECRET"),
		RedisAddr:           getenv("REDIS_ADDR"),
		CacheTTL:            getDuration("CACHE_TTL", 5*time.Minute),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		LoginRate:           getFloat("LOGIN_RATE", 0.2),
		LoginBurst:          getInt("LOGIN_BURST", 5),
	}
	cfg.BaseURL = strings.TrimSuffix(getEnv("BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	switch c.BlobBackend {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required when BLOB_BACKEND=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_BACKEND must be local or gcs, got %q", c.BlobBackend))
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set"))
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE and LOGIN_BURST must be positive"))
	}
	return errs
}

// CheckoutEnabled reports whether online rent payment is configured.
func (c *Config) CheckoutEnabled() bool {
	return c.StripeSecretKey != ""
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
