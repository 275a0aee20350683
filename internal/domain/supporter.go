package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupporterPublicEntry is one row on a creator's public supporter wall.
// One entry is written per successful payment.
type SupporterPublicEntry struct {
	ID              int64
	CreatorID       int64
	DisplayName     string
	Amount          decimal.Decimal
	Type            SupportType
	IsAnonymous     bool
	LastSupportedAt time.Time
}

// NewSupporterEntry mirrors a successful payment onto the public wall.
func NewSupporterEntry(p *Payment, at time.Time) *SupporterPublicEntry {
	return &SupporterPublicEntry{
		CreatorID:       p.CreatorID,
		DisplayName:     p.PublicName(),
		Amount:          p.Amount,
		Type:            p.Type,
		IsAnonymous:     p.IsAnonymous,
		LastSupportedAt: at,
	}
}
