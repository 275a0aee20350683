package repo

import (
	"context"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/sqlinline"
)

// CreatorAnalytics aggregates revenue and counts for one creator.
func (r *LedgerPG) CreatorAnalytics(ctx context.Context, creatorID int64) (*domain.CreatorAnalytics, error) {
	var (
		total   string
		monthly string
		out     = domain.CreatorAnalytics{CreatorID: creatorID}
	)
	if err := r.sql.QueryRow(ctx, sqlinline.QCreatorAnalytics, creatorID).Scan(
		&total,
		&monthly,
		&out.TotalPayments,
		&out.SuccessfulPayments,
		&out.ActiveSubscriptions,
	); err != nil {
		return nil, err
	}
	var err error
	if out.TotalRevenue, err = parseAmount(total); err != nil {
		return nil, err
	}
	if out.MonthlyRevenue, err = parseAmount(monthly); err != nil {
		return nil, err
	}
	return &out, nil
}
