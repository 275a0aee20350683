package payments

import (
	"context"
	"errors"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

// ReapStats summarizes one reaper sweep.
type ReapStats struct {
	Scanned   int
	Succeeded int
	Failed    int
	Skipped   int
}

// Reaper settles payments left pending past the TTL, for example when the
// gateway call after insert failed or no signal ever arrived.
type Reaper struct {
	store      domain.PaymentRepository
	gateway    domain.Gateway
	reconciler *Reconciler
	settings   Settings
	logger     *infra.Logger
}

func NewReaper(store domain.PaymentRepository, gateway domain.Gateway, reconciler *Reconciler, settings Settings, logger *infra.Logger) *Reaper {
	return &Reaper{
		store:      store,
		gateway:    gateway,
		reconciler: reconciler,
		settings:   settings.withDefaults(),
		logger:     loggerOrNop(logger),
	}
}

// Sweep runs one pass over stale pending payments.
func (r *Reaper) Sweep(ctx context.Context) (ReapStats, error) {
	var stats ReapStats
	cutoff := r.settings.Now().Add(-r.settings.PendingPaymentTTL)
	stale, err := r.store.ListStalePendingPayments(ctx, cutoff, r.settings.BatchSize)
	if err != nil {
		return stats, err
	}
	for _, p := range stale {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++
		outcome, ok := r.resolve(ctx, p.GatewayOrderID)
		if !ok {
			stats.Skipped++
			continue
		}
		res, err := r.reconciler.Reconcile(ctx, p.GatewayOrderID, outcome, domain.SourceReaper)
		if err != nil {
			r.logger.Error().Err(err).Str("order_id", p.GatewayOrderID).Msg("reaper reconcile failed")
			stats.Skipped++
			continue
		}
		if res.State != domain.StateApplied {
			stats.Skipped++
			continue
		}
		if res.Status == domain.PaymentSuccess {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

func (r *Reaper) resolve(ctx context.Context, orderID string) (domain.Outcome, bool) {
	callCtx, cancel := context.WithTimeout(ctx, r.settings.GatewayTimeout)
	defer cancel()
	state, err := r.gateway.GetOrder(callCtx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayOrderNotFound) {
			return domain.OutcomeFailed, true
		}
		r.logger.Warn().Err(err).Str("order_id", orderID).Msg("reaper could not read gateway order")
		return "", false
	}
	switch state {
	case domain.OrderPaid:
		return domain.OutcomeSuccess, true
	case domain.OrderExpired, domain.OrderTerminated, domain.OrderCancelled, domain.OrderActive:
		return domain.OutcomeFailed, true
	default:
		r.logger.Warn().Str("order_id", orderID).Str("order_status", string(state)).Msg("reaper skipped unknown gateway order status")
		return "", false
	}
}
