package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the two terminal booking states.
func (s BookingStatus) Valid() bool {
	return s == BookingConfirmed || s == BookingCancelled
}

// ErrExchangeRateLocked is returned by the update hook when a write touches the locked rate.
var ErrExchangeRateLocked = errors.New("booking exchange rate is locked")

// Booking is the commitment created once from an accepted quotation.
type Booking struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	TenantID           string          `json:"tenant_id" gorm:"size:64;not null;index"`
	QuotationID        uint            `json:"quotation_id" gorm:"not null;uniqueIndex:idx_bookings_quotation_id"`
	BookingNumber      string          `json:"booking_number" gorm:"size:20;not null;uniqueIndex:idx_bookings_booking_number"`
	Currency           string          `json:"currency" gorm:"size:3;not null"`
	SettlementCurrency string          `json:"settlement_currency" gorm:"size:3;not null"`
	ExchangeRate       decimal.Decimal `json:"exchange_rate" gorm:"type:numeric(18,8);not null"`
	TotalAmount        decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	TravelStartDate    time.Time       `json:"travel_start_date" gorm:"type:date"`
	TravelEndDate      time.Time       `json:"travel_end_date" gorm:"type:date"`
	Status             BookingStatus   `json:"status" gorm:"type:VARCHAR(20);not null"`
	QuotationSnapshot  datatypes.JSON  `json:"quotation_snapshot" gorm:"type:jsonb"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// BeforeUpdate refuses to rewrite the rate frozen at creation.
func (b *Booking) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("ExchangeRate") {
		return ErrExchangeRateLocked
	}
	return nil
}
