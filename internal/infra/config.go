package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	LedgerPostgres = "postgres"
	LedgerMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	LedgerDriver       string
	DatabaseURL        string
	JWTSecret          string
	AppURL             string
	CORSAllowedOrigins []string
	RateLimitPerMin    int
	TrustProxy         bool
	DefaultLocale      string
	GeoIPDBPath        string

	CashfreeMode         string
	CashfreeBaseURL      string
	CashfreeClientID     string
	CashfreeClientSecret string
	CashfreeAPIVersion   string
	GatewayTimeout       time.Duration

	WebhookVerifySignature bool
	WebhookNotFoundRetries int
	WebhookNotFoundBackoff time.Duration
	OrderGraceWindow       time.Duration
	PendingPaymentTTL      time.Duration
	SetupMaxAttempts       int
	WorkerPollInterval     time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LedgerDriver:       strings.ToLower(getEnv("LEDGER_DRIVER", LedgerPostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustProxy:         getEnvBool("TRUST_PROXY", false),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),

		CashfreeMode:         strings.ToUpper(getEnv("CASHFREE_MODE", "SANDBOX")),
		CashfreeBaseURL:      os.Getenv("CASHFREE_BASE_URL"),
		CashfreeClientID:     os.Getenv("CASHFREE_CLIENT_ID"),
		CashfreeClientSecret: os.Getenv("CASHFREE_CLIENT_SECRET"),
		CashfreeAPIVersion:   getEnv("CASHFREE_API_VERSION", "2023-08-01"),
		GatewayTimeout:       time.Second * time.Duration(getEnvInt("CASHFREE_TIMEOUT_SECONDS", 15)),

		WebhookNotFoundRetries: getEnvInt("WEBHOOK_NOT_FOUND_RETRIES", 3),
		WebhookNotFoundBackoff: time.Millisecond * time.Duration(getEnvInt("WEBHOOK_NOT_FOUND_BACKOFF_MS", 250)),
		OrderGraceWindow:       time.Second * time.Duration(getEnvInt("ORDER_GRACE_WINDOW_SECONDS", 900)),
		PendingPaymentTTL:      time.Minute * time.Duration(getEnvInt("PENDING_PAYMENT_TTL_MINUTES", 120)),
		SetupMaxAttempts:       getEnvInt("SUBSCRIPTION_SETUP_MAX_ATTEMPTS", 8),
		WorkerPollInterval:     time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 30)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}
	// Unsigned webhooks are only accepted in development.
	cfg.WebhookVerifySignature = getEnvBool("WEBHOOK_VERIFY_SIGNATURE", !cfg.IsDevelopment())
	cfg.AppURL = strings.TrimRight(getEnv("APP_URL", "http://localhost:"+cfg.Port), "/")

	switch cfg.LedgerDriver {
	case LedgerPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case LedgerMemory:
	default:
		return nil, fmt.Errorf("unsupported LEDGER_DRIVER %q", cfg.LedgerDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.CashfreeMode != "SANDBOX" && cfg.CashfreeMode != "PROD" {
		return nil, fmt.Errorf("CASHFREE_MODE must be SANDBOX or PROD")
	}
	if cfg.CashfreeMode == "PROD" && !cfg.WebhookVerifySignature {
		return nil, fmt.Errorf("WEBHOOK_VERIFY_SIGNATURE cannot be disabled when CASHFREE_MODE is PROD")
	}
	if cfg.CashfreeBaseURL == "" {
		cfg.CashfreeBaseURL = "https://sandbox.cashfree.com"
		if cfg.CashfreeMode == "PROD" {
			cfg.CashfreeBaseURL = "https://api.cashfree.com"
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
