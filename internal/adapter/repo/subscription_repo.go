package repo

import (
	"context"
	"time"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/sqlinline"
)

func (r *LedgerPG) GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error) {
	sub, err := scanSubscription(r.sql.QueryRow(ctx, sqlinline.QSelectSubscriptionByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (r *LedgerPG) GetSubscriptionByPaymentID(ctx context.Context, paymentID int64) (*domain.Subscription, error) {
	sub, err := scanSubscription(r.sql.QueryRow(ctx, sqlinline.QSelectSubscriptionByPaymentID, paymentID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// CancelSubscription marks an active or paused subscription cancelled. The
// boolean is false when it was already cancelled.
func (r *LedgerPG) CancelSubscription(ctx context.Context, id int64, at time.Time) (*domain.Subscription, bool, error) {
	sub, err := scanSubscription(r.sql.QueryRow(ctx, sqlinline.QCancelSubscription, id, at))
	if err == nil {
		return sub, true, nil
	}
	if !infra.IsNoRows(err) {
		return nil, false, err
	}
	current, err := r.GetSubscription(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *LedgerPG) GetSubscriptionSetup(ctx context.Context, paymentID int64) (*domain.SubscriptionSetup, error) {
	setup, err := scanSetup(r.sql.QueryRow(ctx, sqlinline.QSelectSubscriptionSetupByPayment, paymentID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrSetupNotFound
		}
		return nil, err
	}
	return setup, nil
}

func (r *LedgerPG) ClaimDueSubscriptionSetups(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]domain.SubscriptionSetup, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QClaimDueSubscriptionSetups, now, now.Add(lease), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSetups(rows)
}

func (r *LedgerPG) ClaimSubscriptionSetup(ctx context.Context, paymentID int64, now time.Time, lease time.Duration) (*domain.SubscriptionSetup, bool, error) {
	setup, err := scanSetup(r.sql.QueryRow(ctx, sqlinline.QClaimSubscriptionSetup, paymentID, now, now.Add(lease)))
	if err == nil {
		return setup, true, nil
	}
	if !infra.IsNoRows(err) {
		return nil, false, err
	}
	current, err := r.GetSubscriptionSetup(ctx, paymentID)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *LedgerPG) ListSubscriptionSetups(ctx context.Context, status domain.SetupStatus, limit int) ([]domain.SubscriptionSetup, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListSubscriptionSetupsByStatus, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSetups(rows)
}

// CompleteSubscriptionSetup stores the subscription and marks the setup done.
// If a subscription already exists for the payment it is returned instead.
func (r *LedgerPG) CompleteSubscriptionSetup(ctx context.Context, setupID int64, sub *domain.Subscription) (*domain.Subscription, error) {
	var out *domain.Subscription
	err := r.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		created, err := scanSubscription(tx.QueryRow(ctx, sqlinline.QInsertSubscription,
			sub.PaymentID,
			sub.CreatorID,
			sub.SupporterID,
			sub.TierID,
			sub.Amount.String(),
			sub.GatewaySubscriptionID,
			string(sub.Status),
			sub.StartDate,
			sub.NextBillingDate,
		))
		if err != nil {
			if !infra.IsNoRows(err) {
				return err
			}
			created, err = scanSubscription(tx.QueryRow(ctx, sqlinline.QSelectSubscriptionByPaymentID, sub.PaymentID))
			if err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, sqlinline.QMarkSubscriptionSetupDone, setupID); err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordSubscriptionSetupFailure bumps the attempt counter of a pending setup
// and either reschedules it or marks it failed.
func (r *LedgerPG) RecordSubscriptionSetupFailure(ctx context.Context, setupID int64, errMsg string, nextAttemptAt time.Time, giveUp bool) (*domain.SubscriptionSetup, error) {
	setup, err := scanSetup(r.sql.QueryRow(ctx, sqlinline.QRecordSubscriptionSetupFailure, setupID, errMsg, nextAttemptAt, giveUp))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrSetupNotFound
		}
		return nil, err
	}
	return setup, nil
}

type setupRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectSetups(rows setupRows) ([]domain.SubscriptionSetup, error) {
	var items []domain.SubscriptionSetup
	for rows.Next() {
		s, err := scanSetup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
