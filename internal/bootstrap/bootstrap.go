// Package bootstrap builds the ledger and gateway shared by the api and
// worker processes.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"creatorsupport/internal/adapter/repo"
	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/infra/credentials"
	"creatorsupport/internal/providers/cashfree"
)

// Ledger is an opened ledger store plus its release func. Ping is nil for
// the memory driver.
type Ledger struct {
	Store  domain.LedgerStore
	Runner *infra.SQLRunner
	Ping   func(context.Context) error
	Close  func()
}

// OpenLedger connects the configured ledger driver. The memory driver is
// seeded with demo tiers in development so the checkout flow can be tried
// without a database.
func OpenLedger(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Ledger, error) {
	switch cfg.LedgerDriver {
	case infra.LedgerMemory:
		mem := repo.NewMemoryLedger()
		if cfg.IsDevelopment() {
			SeedDemoTiers(mem)
		}
		logger.Warn().Msg("using in-memory ledger; data is lost on restart")
		return &Ledger{Store: mem, Close: func() {}}, nil
	default:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return &Ledger{Store: repo.NewLedgerPG(runner), Runner: runner, Ping: pool.Ping, Close: pool.Close}, nil
	}
}

// SeedDemoTiers adds creator 7's tiers: 3 is ₹500 monthly, 4 is ₹100 one-time.
func SeedDemoTiers(mem *repo.MemoryLedger) {
	mem.SeedTier(domain.Tier{ID: 3, CreatorID: 7, Type: domain.SupportMonthly, Amount: decimal.NewFromInt(500), Title: "Monthly supporter", IsActive: true})
	mem.SeedTier(domain.Tier{ID: 4, CreatorID: 7, Type: domain.SupportOneTime, Amount: decimal.NewFromInt(100), Title: "Buy me a chai", IsActive: true})
}

// CashfreeSecret returns the configured API secret, falling back to the
// integration_tokens table when the environment does not carry one.
func CashfreeSecret(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner) (string, error) {
	if secret := strings.TrimSpace(cfg.CashfreeClientSecret); secret != "" {
		return secret, nil
	}
	if runner == nil {
		return "", nil
	}
	secret, err := credentials.NewStore(runner).CashfreeClientSecret(ctx)
	if err != nil {
		return "", fmt.Errorf("load cashfree secret: %w", err)
	}
	return secret, nil
}

// NewGateway builds the Cashfree client.
func NewGateway(cfg *infra.Config, secret string, logger infra.Logger) (*cashfree.Client, error) {
	return cashfree.NewClient(cashfree.Options{
		BaseURL:        cfg.CashfreeBaseURL,
		ClientID:       cfg.CashfreeClientID,
		ClientSecret:   secret,
		APIVersion:     cfg.CashfreeAPIVersion,
		Logger:         &logger,
		RequestTimeout: cfg.GatewayTimeout,
	})
}
