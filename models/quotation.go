package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuotationStatus string

const (
	QuotationDraft    QuotationStatus = "draft"
	QuotationSent     QuotationStatus = "sent"
	QuotationAccepted QuotationStatus = "accepted"
	QuotationRejected QuotationStatus = "rejected"
	QuotationExpired  QuotationStatus = "expired"
)

// Quotation is a priced travel proposal. It is edited elsewhere; the lifecycle
// only ever flips its status to accepted.
type Quotation struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	TenantID      string           `json:"tenant_id" gorm:"size:64;not null;index"`
	CustomerName  string           `json:"customer_name" gorm:"not null"`
	CustomerEmail string           `json:"customer_email"`
	CustomerPhone string           `json:"customer_phone"`
	Destination   string           `json:"destination"`
	StartDate     time.Time        `json:"start_date" gorm:"type:date"`
	EndDate       time.Time        `json:"end_date" gorm:"type:date"`
	Adults        int              `json:"adults"`
	Children      int              `json:"children"`
	MarkupPercent decimal.Decimal  `json:"markup_percent" gorm:"type:numeric(5,2);not null;default:0"`
	TaxPercent    decimal.Decimal  `json:"tax_percent" gorm:"type:numeric(5,2);not null;default:0"`
	Currency      string           `json:"currency" gorm:"size:3;not null"`
	Status        QuotationStatus  `json:"status" gorm:"type:VARCHAR(20);not null;default:draft"`
	Days          []QuotationDay   `json:"days" gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type QuotationDay struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	QuotationID uint               `json:"-" gorm:"index"`
	DayNumber   int                `json:"day_number"`
	Date        *time.Time         `json:"date" gorm:"type:date"`
	Expenses    []QuotationExpense `json:"expenses" gorm:"foreignKey:QuotationDayID;constraint:OnDelete:CASCADE"`
}

// QuotationExpense is one priced line. SupplierID is nil for agency-internal costs.
type QuotationExpense struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	QuotationDayID uint            `json:"-" gorm:"index"`
	Category       string          `json:"category" gorm:"size:50"`
	Description    string          `json:"description"`
	SupplierID     *uint           `json:"supplier_id" gorm:"index"`
	Price          decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
}

// Expenses flattens the day/expense tree in day order.
func (q *Quotation) Expenses() []QuotationExpense {
	var out []QuotationExpense
	for _, d := range q.Days {
		out = append(out, d.Expenses...)
	}
	return out
}

// CanBeAccepted reports whether a booking may still be created from q.
// Only draft and sent quotations move to accepted.
func (q *Quotation) CanBeAccepted() bool {
	return q.Status == QuotationDraft || q.Status == QuotationSent
}
