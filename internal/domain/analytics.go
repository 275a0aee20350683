package domain

import "github.com/shopspring/decimal"

// CreatorAnalytics summarizes a creator's ledger.
type CreatorAnalytics struct {
	CreatorID           int64
	TotalRevenue        decimal.Decimal
	MonthlyRevenue      decimal.Decimal
	TotalPayments       int64
	SuccessfulPayments  int64
	ActiveSubscriptions int64
}
