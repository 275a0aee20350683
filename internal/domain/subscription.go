package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPaused    SubscriptionStatus = "paused"
)

// Subscription is the recurring monthly obligation spawned by a successful
// monthly payment. At most one exists per payment.
type Subscription struct {
	ID                    int64
	PaymentID             int64
	CreatorID             int64
	SupporterID           *int64
	TierID                int64
	Amount                decimal.Decimal
	GatewaySubscriptionID string
	Status                SubscriptionStatus
	StartDate             time.Time
	NextBillingDate       *time.Time
	CancelledAt           *time.Time
}

// SetupStatus tracks the post-success subscription creation step.
type SetupStatus string

const (
	SetupPending SetupStatus = "pending"
	SetupDone    SetupStatus = "done"
	SetupFailed  SetupStatus = "failed"
)

// SubscriptionSetup is written in the same transaction that marks a monthly
// payment successful, so the gateway subscription call can be retried
// independently of the payment.
type SubscriptionSetup struct {
	ID              int64
	PaymentID       int64
	SubscriptionRef string
	Status          SetupStatus
	Attempts        int
	LastError       string
	NextAttemptAt   time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSubscription builds the active subscription row for a successful monthly payment.
func NewSubscription(p *Payment, gatewaySubscriptionID string, start time.Time) *Subscription {
	next := start.AddDate(0, 1, 0)
	return &Subscription{
		PaymentID:             p.ID,
		CreatorID:             p.CreatorID,
		SupporterID:           p.SupporterID,
		TierID:                p.TierID,
		Amount:                p.Amount,
		GatewaySubscriptionID: gatewaySubscriptionID,
		Status:                SubscriptionActive,
		StartDate:             start,
		NextBillingDate:       &next,
	}
}
