package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// CancellationTier charges FeePercent when cancelling at least MinDays before travel start.
type CancellationTier struct {
	MinDays    int
	FeePercent decimal.Decimal
}

// CancellationPolicy is ordered from the most generous tier down.
var CancellationPolicy = []CancellationTier{
	{MinDays: 60, FeePercent: decimal.NewFromInt(10)},
	{MinDays: 30, FeePercent: decimal.NewFromInt(25)},
	{MinDays: 15, FeePercent: decimal.NewFromInt(50)},
	{MinDays: 7, FeePercent: decimal.NewFromInt(75)},
}

var fullFee = decimal.NewFromInt(100)

// DaysBefore counts calendar days from cancel to start; negative once travel has begun.
func DaysBefore(start, cancel time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	c := time.Date(cancel.Year(), cancel.Month(), cancel.Day(), 0, 0, 0, 0, time.UTC)
	return int(s.Sub(c).Hours() / 24)
}

// FeePercentFor returns the fee share for a cancellation days before travel.
// Under a week, or after start, the full amount is charged.
func FeePercentFor(days int) decimal.Decimal {
	for _, t := range CancellationPolicy {
		if days >= t.MinDays {
			return t.FeePercent
		}
	}
	return fullFee
}
