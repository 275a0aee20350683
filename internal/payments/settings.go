package payments

import (
	"strings"
	"time"

	"creatorsupport/internal/infra"
)

const (
	defaultGatewayTimeout   = 15 * time.Second
	defaultSetupMaxAttempts = 8
	defaultGraceWindow      = 15 * time.Minute
	defaultPendingTTL       = 2 * time.Hour
	defaultBatchSize        = 50
	minSetupLease           = 2 * time.Minute
)

// Settings tunes the payment core. Zero values fall back to defaults.
type Settings struct {
	AppURL                 string
	GatewayTimeout         time.Duration
	SetupMaxAttempts       int
	SetupLease             time.Duration
	WebhookNotFoundRetries int
	WebhookNotFoundBackoff time.Duration
	OrderGraceWindow       time.Duration
	PendingPaymentTTL      time.Duration
	BatchSize              int

	Now        func() time.Time
	NewOrderID func(creatorID, tierID int64, at time.Time) string
}

// SettingsFromConfig maps the process configuration onto Settings.
func SettingsFromConfig(cfg *infra.Config) Settings {
	return Settings{
		AppURL:                 cfg.AppURL,
		GatewayTimeout:         cfg.GatewayTimeout,
		SetupMaxAttempts:       cfg.SetupMaxAttempts,
		WebhookNotFoundRetries: cfg.WebhookNotFoundRetries,
		WebhookNotFoundBackoff: cfg.WebhookNotFoundBackoff,
		OrderGraceWindow:       cfg.OrderGraceWindow,
		PendingPaymentTTL:      cfg.PendingPaymentTTL,
	}
}

func (s Settings) withDefaults() Settings {
	s.AppURL = strings.TrimRight(s.AppURL, "/")
	if s.GatewayTimeout <= 0 {
		s.GatewayTimeout = defaultGatewayTimeout
	}
	if s.SetupMaxAttempts <= 0 {
		s.SetupMaxAttempts = defaultSetupMaxAttempts
	}
	if s.SetupLease <= 0 {
		s.SetupLease = 2 * s.GatewayTimeout
		if s.SetupLease < minSetupLease {
			s.SetupLease = minSetupLease
		}
	}
	if s.WebhookNotFoundRetries < 0 {
		s.WebhookNotFoundRetries = 0
	}
	if s.OrderGraceWindow <= 0 {
		s.OrderGraceWindow = defaultGraceWindow
	}
	if s.PendingPaymentTTL <= 0 {
		s.PendingPaymentTTL = defaultPendingTTL
	}
	if s.BatchSize <= 0 {
		s.BatchSize = defaultBatchSize
	}
	if s.Now == nil {
		s.Now = func() time.Time { return time.Now().UTC() }
	}
	if s.NewOrderID == nil {
		s.NewOrderID = NewOrderID
	}
	return s
}

func (s Settings) returnURL(orderID string) string {
	return s.AppURL + "/support/success?order_id=" + orderID
}

func loggerOrNop(logger *infra.Logger) *infra.Logger {
	if logger != nil {
		return logger
	}
	l := infra.NopLogger()
	return &l
}
