package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is one published quote for a currency pair; the newest EffectiveAt wins.
type ExchangeRate struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	FromCurrency string          `json:"from_currency" gorm:"size:3;not null;index:idx_exchange_rates_pair,priority:1"`
	ToCurrency   string          `json:"to_currency" gorm:"size:3;not null;index:idx_exchange_rates_pair,priority:2"`
	Rate         decimal.Decimal `json:"rate" gorm:"type:numeric(18,8);not null"`
	EffectiveAt  time.Time       `json:"effective_at" gorm:"not null;index:idx_exchange_rates_pair,priority:3"`
	CreatedAt    time.Time       `json:"created_at"`
}
