package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the contact the gateway needs for orders and subscriptions.
type Customer struct {
	Name  string
	Email string
	Phone string
}

type OrderRequest struct {
	OrderID   string
	Amount    decimal.Decimal
	Customer  Customer
	ReturnURL string
	Note      string
	// ExpiresAt asks the gateway to close the order; zero keeps its default.
	ExpiresAt time.Time
}

type Order struct {
	GatewayOrderID   string
	PaymentLink      string
	PaymentSessionID string
}

// OrderState is the gateway's view of an order, used by the reaper.
type OrderState string

const (
	OrderActive     OrderState = "ACTIVE"
	OrderPaid       OrderState = "PAID"
	OrderExpired    OrderState = "EXPIRED"
	OrderTerminated OrderState = "TERMINATED"
	OrderCancelled  OrderState = "CANCELLED"
)

type PaymentVerification struct {
	OrderID       string
	PaymentID     string
	PaymentStatus string
}

type SubscriptionRequest struct {
	OrderID        string
	SubscriptionID string
	Amount         decimal.Decimal
	IntervalType   string
	IntervalCount  int
	Customer       Customer
	ReturnURL      string
}

const IntervalMonthly = "MONTHLY"

// Gateway is the remote payment provider. Implementations hold no local state
// and report transport failures (ErrGatewayTransport) separately from
// provider rejections (ErrGatewayBusiness).
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (OrderState, error)
	VerifyPayment(ctx context.Context, orderID, paymentID string) (*PaymentVerification, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (string, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}
