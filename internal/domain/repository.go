package domain

import (
	"context"
	"time"
)

// TierReader reads support tiers owned by the profile layer.
type TierReader interface {
	GetTier(ctx context.Context, tierID int64) (*Tier, error)
}

// PaymentRepository persists payments and applies their one-shot transition.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID string) (*Payment, error)
	// FinalizePayment moves a pending payment to a terminal status and writes
	// the dependent rows in one atomic step. It must be a compare-and-set at
	// the storage layer: concurrent callers for the same order see exactly one
	// Applied transition.
	FinalizePayment(ctx context.Context, params FinalizeParams) (*Transition, error)
	ListStalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]Payment, error)
}

// SubscriptionRepository handles subscriptions and their setup outbox.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, id int64) (*Subscription, error)
	GetSubscriptionByPaymentID(ctx context.Context, paymentID int64) (*Subscription, error)
	CancelSubscription(ctx context.Context, id int64, at time.Time) (*Subscription, bool, error)

	GetSubscriptionSetup(ctx context.Context, paymentID int64) (*SubscriptionSetup, error)
	// ClaimDueSubscriptionSetups leases pending setups whose next attempt is
	// due by pushing next_attempt_at to now+lease, so concurrent workers do
	// not pick the same row.
	ClaimDueSubscriptionSetups(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]SubscriptionSetup, error)
	// ClaimSubscriptionSetup leases one setup for an immediate retry, reviving
	// it when it had given up. Setups that are already done are returned
	// unchanged with claimed=false.
	ClaimSubscriptionSetup(ctx context.Context, paymentID int64, now time.Time, lease time.Duration) (setup *SubscriptionSetup, claimed bool, err error)
	ListSubscriptionSetups(ctx context.Context, status SetupStatus, limit int) ([]SubscriptionSetup, error)
	CompleteSubscriptionSetup(ctx context.Context, setupID int64, sub *Subscription) (*Subscription, error)
	RecordSubscriptionSetupFailure(ctx context.Context, setupID int64, errMsg string, nextAttemptAt time.Time, giveUp bool) (*SubscriptionSetup, error)
}

// SupporterRepository reads the public supporter wall.
type SupporterRepository interface {
	ListSupporters(ctx context.Context, creatorID int64, limit int) ([]SupporterPublicEntry, error)
}

// AnalyticsRepository aggregates ledger totals per creator.
type AnalyticsRepository interface {
	CreatorAnalytics(ctx context.Context, creatorID int64) (*CreatorAnalytics, error)
}

// LedgerStore is the full durable ledger used by the payment core.
type LedgerStore interface {
	TierReader
	PaymentRepository
	SubscriptionRepository
	SupporterRepository
	AnalyticsRepository
}
