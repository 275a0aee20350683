package payments

import (
	"context"
	"strings"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

// Verifier handles the supporter's return from checkout: it asks the gateway
// for the payment attempt and feeds the answer to the Reconciler.
type Verifier struct {
	store      domain.PaymentRepository
	gateway    domain.Gateway
	reconciler *Reconciler
	settings   Settings
	logger     *infra.Logger
}

func NewVerifier(store domain.PaymentRepository, gateway domain.Gateway, reconciler *Reconciler, settings Settings, logger *infra.Logger) *Verifier {
	return &Verifier{
		store:      store,
		gateway:    gateway,
		reconciler: reconciler,
		settings:   settings.withDefaults(),
		logger:     loggerOrNop(logger),
	}
}

// Verify returns the payment status after applying the gateway's answer.
// Settled payments are answered from the ledger without a gateway call.
func (v *Verifier) Verify(ctx context.Context, orderID, paymentID string) (*domain.ReconciliationResult, error) {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	if orderID == "" {
		return nil, domain.Invalid("orderId", "is required")
	}
	if paymentID == "" {
		return nil, domain.Invalid("paymentId", "is required")
	}

	payment, err := v.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return &domain.ReconciliationResult{
			OrderID: orderID,
			State:   domain.StateAlreadyReconciled,
			Status:  payment.Status,
			Payment: payment,
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, v.settings.GatewayTimeout)
	defer cancel()
	verification, err := v.gateway.VerifyPayment(callCtx, orderID, paymentID)
	if err != nil {
		v.logger.Error().Err(err).Str("order_id", orderID).Str("payment_id", paymentID).Msg("gateway verify payment failed")
		return nil, err
	}
	return v.reconciler.Reconcile(ctx, orderID, domain.ParseOutcome(verification.PaymentStatus), domain.SourceVerify)
}
