package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a creator-defined support option with a fixed amount and cadence.
// Owned by the profile layer; the payment core only reads it.
type Tier struct {
	ID          int64
	CreatorID   int64
	Type        SupportType
	Amount      decimal.Decimal
	Title       string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}
