package repo

import (
	"context"
	"time"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/sqlinline"
)

const orderIDConstraint = "payments_gateway_order_id_key"

// CreatePayment inserts a pending payment and fills in its id, status and
// creation time.
func (r *LedgerPG) CreatePayment(ctx context.Context, p *domain.Payment) error {
	var status string
	err := r.sql.QueryRow(ctx, sqlinline.QInsertPayment,
		p.CreatorID,
		p.SupporterID,
		p.TierID,
		p.Amount.String(),
		string(p.Type),
		p.Gateway,
		p.GatewayOrderID,
		p.SupporterName,
		p.SupporterEmail,
		p.SupporterPhone,
		p.IsAnonymous,
	).Scan(&p.ID, &status, &p.CreatedAt)
	if err != nil {
		if infra.IsUniqueViolation(err, orderIDConstraint) {
			return domain.ErrDuplicateOrder
		}
		return err
	}
	p.Status = domain.PaymentStatus(status)
	return nil
}

func (r *LedgerPG) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(r.sql.QueryRow(ctx, sqlinline.QSelectPaymentByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *LedgerPG) GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	p, err := scanPayment(r.sql.QueryRow(ctx, sqlinline.QSelectPaymentByOrderID, orderID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// FinalizePayment runs the conditional status update and, when it won, the
// supporter entry and subscription setup inserts in one transaction.
func (r *LedgerPG) FinalizePayment(ctx context.Context, params domain.FinalizeParams) (*domain.Transition, error) {
	var out *domain.Transition
	err := r.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		p, err := scanPayment(tx.QueryRow(ctx, sqlinline.QFinalizePayment, params.OrderID, string(params.Status), params.At))
		if err != nil {
			if !infra.IsNoRows(err) {
				return err
			}
			current, err := scanPayment(tx.QueryRow(ctx, sqlinline.QSelectPaymentByOrderID, params.OrderID))
			if err != nil {
				if infra.IsNoRows(err) {
					return domain.ErrPaymentNotFound
				}
				return err
			}
			out = &domain.Transition{Payment: current}
			return nil
		}

		out = &domain.Transition{Payment: p, Applied: true}
		if params.Status != domain.PaymentSuccess {
			return nil
		}

		entry := domain.NewSupporterEntry(p, params.At)
		if err := tx.QueryRow(ctx, sqlinline.QInsertSupporterEntry,
			entry.CreatorID,
			p.ID,
			entry.DisplayName,
			entry.Amount.String(),
			string(entry.Type),
			entry.IsAnonymous,
			entry.LastSupportedAt,
		).Scan(&entry.ID); err != nil {
			return err
		}
		out.Entry = entry

		if p.Type != domain.SupportMonthly {
			return nil
		}
		setup, err := scanSetup(tx.QueryRow(ctx, sqlinline.QInsertSubscriptionSetup,
			p.ID,
			params.SubscriptionRef,
			params.SetupNotBefore,
			params.At,
		))
		if err != nil {
			return err
		}
		out.Setup = setup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListStalePendingPayments returns pending payments created before the cutoff, oldest first.
func (r *LedgerPG) ListStalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Payment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListStalePendingPayments, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
