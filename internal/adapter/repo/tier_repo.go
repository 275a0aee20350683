package repo

import (
	"context"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/infra"
	"creatorsupport/internal/sqlinline"
)

// GetTier reads a support tier by id.
func (r *LedgerPG) GetTier(ctx context.Context, tierID int64) (*domain.Tier, error) {
	var (
		t      domain.Tier
		kind   string
		amount string
	)
	err := r.sql.QueryRow(ctx, sqlinline.QSelectTierByID, tierID).Scan(
		&t.ID,
		&t.CreatorID,
		&kind,
		&amount,
		&t.Title,
		&t.Description,
		&t.IsActive,
		&t.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}
	value, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	t.Type = domain.SupportType(kind)
	t.Amount = value
	return &t, nil
}
