package payments

import (
	"context"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

type reconcileStore interface {
	GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	FinalizePayment(ctx context.Context, params domain.FinalizeParams) (*domain.Transition, error)
}

// Reconciler applies a terminal verification outcome to exactly one payment,
// exactly once. Verify calls, webhooks and the reaper all end up here.
type Reconciler struct {
	store    reconcileStore
	setups   *SetupRunner
	settings Settings
	logger   *infra.Logger
}

func NewReconciler(store reconcileStore, setups *SetupRunner, settings Settings, logger *infra.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		setups:   setups,
		settings: settings.withDefaults(),
		logger:   loggerOrNop(logger),
	}
}

// Reconcile looks the payment up by its gateway order id and, when outcome is
// terminal and the payment still pending, commits the transition with its
// dependent rows. Non-terminal outcomes are reported as ignored and
// already-terminal payments as already reconciled; neither is an error.
// An unknown order id returns domain.ErrPaymentNotFound.
func (r *Reconciler) Reconcile(ctx context.Context, orderID string, outcome domain.Outcome, source domain.ReconcileSource) (*domain.ReconciliationResult, error) {
	log := r.logger.With().
		Str("order_id", orderID).
		Str("source", string(source)).
		Str("outcome", string(outcome)).
		Logger()

	payment, err := r.store.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result := &domain.ReconciliationResult{
		OrderID: orderID,
		Status:  payment.Status,
		Payment: payment,
	}

	target, terminal := outcome.TargetStatus()
	if !terminal {
		result.State = domain.StateIgnored
		log.Info().Str("status", string(payment.Status)).Msg("reconcile ignored")
		return result, nil
	}
	if payment.Status.Terminal() {
		result.State = domain.StateAlreadyReconciled
		r.logSettled(log, payment.Status, target)
		return result, nil
	}

	now := r.settings.Now()
	params := domain.FinalizeParams{OrderID: orderID, Status: target, At: now}
	if target == domain.PaymentSuccess && payment.Type == domain.SupportMonthly {
		params.SubscriptionRef = SubscriptionRef(orderID)
		params.SetupNotBefore = now.Add(r.settings.SetupLease)
	}
	tr, err := r.store.FinalizePayment(ctx, params)
	if err != nil {
		return nil, err
	}
	result.Payment = tr.Payment
	result.Status = tr.Payment.Status
	if !tr.Applied {
		result.State = domain.StateAlreadyReconciled
		r.logSettled(log, tr.Payment.Status, target)
		return result, nil
	}

	result.State = domain.StateApplied
	result.Entry = tr.Entry
	log.Info().Str("status", string(tr.Payment.Status)).Int64("payment_id", tr.Payment.ID).Msg("payment reconciled")

	if tr.Setup != nil && r.setups != nil {
		sub, setupErr := r.setups.Run(ctx, tr.Payment, tr.Setup)
		result.Subscription = sub
		result.SetupErr = setupErr
	}
	return result, nil
}

func (r *Reconciler) logSettled(log infra.Logger, current, target domain.PaymentStatus) {
	if current != target {
		log.Warn().Str("status", string(current)).Str("dropped", string(target)).Msg("conflicting outcome for settled payment dropped")
		return
	}
	log.Debug().Str("status", string(current)).Msg("payment already reconciled")
}
