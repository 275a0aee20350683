package handlers

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"creatorsupport/internal/domain"
)

// money renders an amount as a JSON number without going through float64.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type paymentView struct {
	OrderID   string          `json:"orderId"`
	Status    string          `json:"status"`
	Amount    json.Number     `json:"amount"`
	Type      string          `json:"type"`
	CreatorID int64           `json:"creatorId"`
	TierID    int64           `json:"tierId"`
	CreatedAt time.Time       `json:"createdAt"`
}

func newPaymentView(p *domain.Payment) paymentView {
	return paymentView{
		OrderID:   p.GatewayOrderID,
		Status:    string(p.Status),
		Amount:    money(p.Amount),
		Type:      string(p.Type),
		CreatorID: p.CreatorID,
		TierID:    p.TierID,
		CreatedAt: p.CreatedAt,
	}
}

type supporterView struct {
	Name            string          `json:"name"`
	Amount          json.Number     `json:"amount"`
	Type            string          `json:"type"`
	IsAnonymous     bool            `json:"isAnonymous"`
	LastSupportedAt time.Time       `json:"lastSupportedAt"`
}

type subscriptionView struct {
	ID                    int64           `json:"id"`
	PaymentID             int64           `json:"paymentId"`
	CreatorID             int64           `json:"creatorId"`
	TierID                int64           `json:"tierId"`
	Amount                json.Number     `json:"amount"`
	GatewaySubscriptionID string          `json:"gatewaySubscriptionId"`
	Status                string          `json:"status"`
	StartDate             time.Time       `json:"startDate"`
	NextBillingDate       *time.Time      `json:"nextBillingDate,omitempty"`
	CancelledAt           *time.Time      `json:"cancelledAt,omitempty"`
}

func newSubscriptionView(s *domain.Subscription) *subscriptionView {
	if s == nil {
		return nil
	}
	return &subscriptionView{
		ID:                    s.ID,
		PaymentID:             s.PaymentID,
		CreatorID:             s.CreatorID,
		TierID:                s.TierID,
		Amount:                money(s.Amount),
		GatewaySubscriptionID: s.GatewaySubscriptionID,
		Status:                string(s.Status),
		StartDate:             s.StartDate,
		NextBillingDate:       s.NextBillingDate,
		CancelledAt:           s.CancelledAt,
	}
}

type setupView struct {
	PaymentID       int64     `json:"paymentId"`
	SubscriptionRef string    `json:"subscriptionRef"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	LastError       string    `json:"lastError,omitempty"`
	NextAttemptAt   time.Time `json:"nextAttemptAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newSetupView(s *domain.SubscriptionSetup) setupView {
	return setupView{
		PaymentID:       s.PaymentID,
		SubscriptionRef: s.SubscriptionRef,
		Status:          string(s.Status),
		Attempts:        s.Attempts,
		LastError:       s.LastError,
		NextAttemptAt:   s.NextAttemptAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
