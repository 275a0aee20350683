package repo

import (
	"github.com/shopspring/decimal"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

// LedgerPG implements domain.LedgerStore on PostgreSQL. Every statement goes
// through the marked SQL executor; multi-row writes run inside InTx.
type LedgerPG struct {
	sql infra.TxExecutor
}

// NewLedgerPG constructs the PostgreSQL ledger.
func NewLedgerPG(sql infra.TxExecutor) *LedgerPG {
	return &LedgerPG{sql: sql}
}

var _ domain.LedgerStore = (*LedgerPG)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount string
		kind   string
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.CreatorID,
		&p.SupporterID,
		&p.TierID,
		&amount,
		&kind,
		&p.Gateway,
		&p.GatewayOrderID,
		&status,
		&p.SupporterName,
		&p.SupporterEmail,
		&p.SupporterPhone,
		&p.IsAnonymous,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	value, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	p.Amount = value
	p.Type = domain.SupportType(kind)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func scanSetup(row scanner) (*domain.SubscriptionSetup, error) {
	var (
		s      domain.SubscriptionSetup
		status string
	)
	if err := row.Scan(
		&s.ID,
		&s.PaymentID,
		&s.SubscriptionRef,
		&status,
		&s.Attempts,
		&s.LastError,
		&s.NextAttemptAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Status = domain.SetupStatus(status)
	return &s, nil
}

func scanSubscription(row scanner) (*domain.Subscription, error) {
	var (
		s      domain.Subscription
		amount string
		status string
	)
	if err := row.Scan(
		&s.ID,
		&s.PaymentID,
		&s.CreatorID,
		&s.SupporterID,
		&s.TierID,
		&amount,
		&s.GatewaySubscriptionID,
		&status,
		&s.StartDate,
		&s.NextBillingDate,
		&s.CancelledAt,
	); err != nil {
		return nil, err
	}
	value, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	s.Amount = value
	s.Status = domain.SubscriptionStatus(status)
	return &s, nil
}
