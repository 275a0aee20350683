package payments

import (
	"context"
	"errors"
	"time"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
)

const (
	setupBaseBackoff = time.Minute
	setupMaxBackoff  = 6 * time.Hour
	maxErrorLength   = 500
)

// SetupBackoff is the delay before the next attempt after a setup has already
// failed `attempts` times: 1m, 2m, 4m ... capped at 6h.
func SetupBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts >= 10 {
		return setupMaxBackoff
	}
	d := setupBaseBackoff << attempts
	if d > setupMaxBackoff {
		return setupMaxBackoff
	}
	return d
}

type setupStore interface {
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	GetSubscriptionByPaymentID(ctx context.Context, paymentID int64) (*domain.Subscription, error)
	GetSubscriptionSetup(ctx context.Context, paymentID int64) (*domain.SubscriptionSetup, error)
	ClaimDueSubscriptionSetups(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]domain.SubscriptionSetup, error)
	ClaimSubscriptionSetup(ctx context.Context, paymentID int64, now time.Time, lease time.Duration) (*domain.SubscriptionSetup, bool, error)
	ListSubscriptionSetups(ctx context.Context, status domain.SetupStatus, limit int) ([]domain.SubscriptionSetup, error)
	CompleteSubscriptionSetup(ctx context.Context, setupID int64, sub *domain.Subscription) (*domain.Subscription, error)
	RecordSubscriptionSetupFailure(ctx context.Context, setupID int64, errMsg string, nextAttemptAt time.Time, giveUp bool) (*domain.SubscriptionSetup, error)
}

// SetupRunner performs the post-success gateway subscription step recorded
// in the subscription_setups outbox.
type SetupRunner struct {
	store    setupStore
	gateway  domain.Gateway
	settings Settings
	logger   *infra.Logger
}

func NewSetupRunner(store setupStore, gateway domain.Gateway, settings Settings, logger *infra.Logger) *SetupRunner {
	return &SetupRunner{
		store:    store,
		gateway:  gateway,
		settings: settings.withDefaults(),
		logger:   loggerOrNop(logger),
	}
}

// Run creates the gateway subscription for a claimed setup and stores the
// local row. Failures are recorded on the setup and returned, never panicked
// or rolled back into the payment.
func (s *SetupRunner) Run(ctx context.Context, payment *domain.Payment, setup *domain.SubscriptionSetup) (*domain.Subscription, *domain.SubscriptionSetupError) {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With().
		Str("order_id", payment.GatewayOrderID).
		Int64("payment_id", payment.ID).
		Str("subscription_ref", setup.SubscriptionRef).
		Int("attempt", setup.Attempts+1).
		Logger()

	callCtx, cancel := context.WithTimeout(ctx, s.settings.GatewayTimeout)
	gatewayID, err := s.gateway.CreateSubscription(callCtx, domain.SubscriptionRequest{
		OrderID:        payment.GatewayOrderID,
		SubscriptionID: setup.SubscriptionRef,
		Amount:         payment.Amount,
		IntervalType:   domain.IntervalMonthly,
		IntervalCount:  1,
		Customer: domain.Customer{
			Name:  payment.SupporterName,
			Email: payment.SupporterEmail,
			Phone: payment.SupporterPhone,
		},
		ReturnURL: s.settings.returnURL(payment.GatewayOrderID),
	})
	cancel()
	if errors.Is(err, domain.ErrGatewaySubscriptionExists) {
		log.Info().Msg("gateway subscription already exists; reusing ref")
		gatewayID, err = setup.SubscriptionRef, nil
	}
	if err != nil {
		return nil, s.fail(ctx, log, payment, setup, err)
	}
	if gatewayID == "" {
		gatewayID = setup.SubscriptionRef
	}

	sub, err := s.store.CompleteSubscriptionSetup(ctx, setup.ID, domain.NewSubscription(payment, gatewayID, s.settings.Now()))
	if err != nil {
		return nil, s.fail(ctx, log, payment, setup, err)
	}
	log.Info().Int64("subscription_id", sub.ID).Str("gateway_subscription_id", sub.GatewaySubscriptionID).Msg("subscription active")
	return sub, nil
}

func (s *SetupRunner) fail(ctx context.Context, log infra.Logger, payment *domain.Payment, setup *domain.SubscriptionSetup, cause error) *domain.SubscriptionSetupError {
	attempts := setup.Attempts + 1
	giveUp := attempts >= s.settings.SetupMaxAttempts
	next := s.settings.Now().Add(SetupBackoff(setup.Attempts))

	msg := cause.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}
	if _, err := s.store.RecordSubscriptionSetupFailure(ctx, setup.ID, msg, next, giveUp); err != nil {
		log.Error().Err(err).Msg("record subscription setup failure")
	}

	event := log.Warn()
	if giveUp {
		event = log.Error()
	}
	event.Err(cause).Bool("gave_up", giveUp).Time("next_attempt_at", next).Msg("subscription setup failed")

	return &domain.SubscriptionSetupError{PaymentID: payment.ID, Attempts: attempts, GaveUp: giveUp, Err: cause}
}

// RetryDue claims setups whose next attempt is due and runs each one. It
// returns how many were attempted.
func (s *SetupRunner) RetryDue(ctx context.Context) (int, error) {
	now := s.settings.Now()
	due, err := s.store.ClaimDueSubscriptionSetups(ctx, now, s.settings.SetupLease, s.settings.BatchSize)
	if err != nil {
		return 0, err
	}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		setup := due[i]
		payment, err := s.store.GetPayment(ctx, setup.PaymentID)
		if err != nil {
			s.logger.Error().Err(err).Int64("payment_id", setup.PaymentID).Msg("load payment for subscription setup")
			continue
		}
		s.Run(ctx, payment, &setup)
	}
	return len(due), nil
}

// RetryOutcome reports a manual retry.
type RetryOutcome struct {
	Setup        *domain.SubscriptionSetup
	Subscription *domain.Subscription
	SetupErr     *domain.SubscriptionSetupError
}

// Retry runs the setup for one payment immediately, reviving it when it had
// given up. A setup that is already done returns its subscription.
func (s *SetupRunner) Retry(ctx context.Context, paymentID int64) (*RetryOutcome, error) {
	setup, claimed, err := s.store.ClaimSubscriptionSetup(ctx, paymentID, s.settings.Now(), s.settings.SetupLease)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if setup.Status != domain.SetupDone {
			return nil, domain.ErrSetupInProgress
		}
		sub, err := s.store.GetSubscriptionByPaymentID(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		return &RetryOutcome{Setup: setup, Subscription: sub}, nil
	}
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	sub, setupErr := s.Run(ctx, payment, setup)
	out := &RetryOutcome{Setup: setup, Subscription: sub, SetupErr: setupErr}
	if current, err := s.store.GetSubscriptionSetup(ctx, paymentID); err == nil {
		out.Setup = current
	}
	return out, nil
}

// List returns setups in the given status, newest first.
func (s *SetupRunner) List(ctx context.Context, status domain.SetupStatus, limit int) ([]domain.SubscriptionSetup, error) {
	return s.store.ListSubscriptionSetups(ctx, status, limit)
}
