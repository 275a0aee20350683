package repo

import (
	"context"

	"creatorsupport/internal/domain"
	"creatorsupport/internal/sqlinline"
)

// ListSupporters returns the newest public supporter entries of a creator.
func (r *LedgerPG) ListSupporters(ctx context.Context, creatorID int64, limit int) ([]domain.SupporterPublicEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListSupporters, creatorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SupporterPublicEntry
	for rows.Next() {
		var (
			e      domain.SupporterPublicEntry
			amount string
			kind   string
		)
		if err := rows.Scan(&e.ID, &e.CreatorID, &e.DisplayName, &amount, &kind, &e.IsAnonymous, &e.LastSupportedAt); err != nil {
			return nil, err
		}
		value, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		e.Amount = value
		e.Type = domain.SupportType(kind)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
