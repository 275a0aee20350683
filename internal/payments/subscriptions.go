package payments

import (
	"context"
	"time"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

type subscriptionStore interface {
	GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error)
	CancelSubscription(ctx context.Context, id int64, at time.Time) (*domain.Subscription, bool, error)
}

// SubscriptionService manages existing subscriptions.
type SubscriptionService struct {
	store    subscriptionStore
	gateway  domain.Gateway
	settings Settings
	logger   *infra.Logger
}

func NewSubscriptionService(store subscriptionStore, gateway domain.Gateway, settings Settings, logger *infra.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:    store,
		gateway:  gateway,
		settings: settings.withDefaults(),
		logger:   loggerOrNop(logger),
	}
}

// Cancel stops a subscription at the gateway, then marks it cancelled
// locally. Cancelling twice is a no-op.
func (s *SubscriptionService) Cancel(ctx context.Context, id int64) (*domain.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubscriptionCancelled {
		return sub, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.settings.GatewayTimeout)
	defer cancel()
	if err := s.gateway.CancelSubscription(callCtx, sub.GatewaySubscriptionID); err != nil {
		s.logger.Error().Err(err).Int64("subscription_id", id).Msg("gateway cancel subscription failed")
		return nil, err
	}

	updated, changed, err := s.store.CancelSubscription(ctx, id, s.settings.Now())
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info().Int64("subscription_id", id).Int64("payment_id", updated.PaymentID).Msg("subscription cancelled")
	}
	return updated, nil
}
