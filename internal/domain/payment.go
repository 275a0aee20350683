package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SupportType is the cadence of a tier and of every payment made through it.
type SupportType string

const (
	SupportMonthly SupportType = "monthly"
	SupportOneTime SupportType = "one_time"
)

func (t SupportType) Valid() bool {
	return t == SupportMonthly || t == SupportOneTime
}

// PaymentStatus moves only pending -> success or pending -> failed.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

const GatewayCashfree = "cashfree"

// AnonymousName is shown publicly for supporters who asked to stay hidden.
const AnonymousName = "Anonymous"

// Payment is one attempt to move money from a supporter to a creator via a tier.
type Payment struct {
	ID             int64
	CreatorID      int64
	SupporterID    *int64
	TierID         int64
	Amount         decimal.Decimal
	Type           SupportType
	Gateway        string
	GatewayOrderID string
	Status         PaymentStatus
	SupporterName  string
	SupporterEmail string
	SupporterPhone string
	IsAnonymous    bool
	CreatedAt      time.Time
}

// PublicName is the display name used on the creator's supporter wall.
func (p *Payment) PublicName() string {
	name := strings.TrimSpace(p.SupporterName)
	if p.IsAnonymous || name == "" {
		return AnonymousName
	}
	return name
}

// Outcome is a verification result delivered by the verify call or a webhook.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
	OutcomeUnknown Outcome = "UNKNOWN"
)

// ParseOutcome maps a raw gateway payment status onto an Outcome. Transitional
// and unrecognized statuses map to OutcomeUnknown.
func ParseOutcome(raw string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(OutcomeSuccess):
		return OutcomeSuccess
	case string(OutcomeFailed):
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}

// TargetStatus returns the payment status an outcome transitions to.
func (o Outcome) TargetStatus() (PaymentStatus, bool) {
	switch o {
	case OutcomeSuccess:
		return PaymentSuccess, true
	case OutcomeFailed:
		return PaymentFailed, true
	default:
		return "", false
	}
}

// ReconcileSource names the path a verification outcome arrived through.
type ReconcileSource string

const (
	SourceVerify  ReconcileSource = "verify"
	SourceWebhook ReconcileSource = "webhook"
	SourceReaper  ReconcileSource = "reaper"
	SourceAdmin   ReconcileSource = "admin"
)

// ReconcileState describes what a reconcile call did.
type ReconcileState string

const (
	StateApplied           ReconcileState = "applied"
	StateAlreadyReconciled ReconcileState = "already_reconciled"
	StateIgnored           ReconcileState = "ignored"
)

// ReconciliationResult is returned for every reconcile call that found the payment.
type ReconciliationResult struct {
	OrderID      string
	State        ReconcileState
	Status       PaymentStatus
	Payment      *Payment
	Entry        *SupporterPublicEntry
	Subscription *Subscription
	SetupErr     *SubscriptionSetupError
}

// FinalizeParams describes one atomic pending -> terminal transition.
// For monthly successes the store also writes a SubscriptionSetup carrying
// SubscriptionRef, first claimable by workers at SetupNotBefore.
type FinalizeParams struct {
	OrderID         string
	Status          PaymentStatus
	SubscriptionRef string
	At              time.Time
	SetupNotBefore  time.Time
}

// Transition is what the store committed for a FinalizeParams request.
// Applied is false when the payment had already left pending; nothing was
// written in that case.
type Transition struct {
	Payment *Payment
	Applied bool
	Entry   *SupporterPublicEntry
	Setup   *SubscriptionSetup
}
