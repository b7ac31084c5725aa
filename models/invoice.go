package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceKind string

const (
	InvoicePayable    InvoiceKind = "payable"
	InvoiceReceivable InvoiceKind = "receivable"
)

func (k InvoiceKind) Valid() bool {
	return k == InvoicePayable || k == InvoiceReceivable
}

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoicePending InvoiceStatus = "pending"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Settlement holds the fields the payment processor reads and writes.
// Status is never set directly: it is derived from the amounts by DeriveStatus.
type Settlement struct {
	Currency    string          `json:"currency" gorm:"size:3;not null"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	PaidAmount  decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0"`
	Status      InvoiceStatus   `json:"status" gorm:"type:VARCHAR(20);not null"`
	IssueDate   time.Time       `json:"issue_date" gorm:"type:date"`
	DueDate     time.Time       `json:"due_date" gorm:"type:date;index"`
}

// Balance is what is still owed.
func (s Settlement) Balance() decimal.Decimal {
	return s.TotalAmount.Sub(s.PaidAmount)
}

// DeriveStatus computes the status implied by paid vs total. current is kept
// while nothing has been paid.
func DeriveStatus(paid, total decimal.Decimal, current InvoiceStatus) InvoiceStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return InvoicePaid
	case paid.IsPositive():
		return InvoicePartial
	}
	return current
}

// IsOverdue is the due-date check run by the overdue sweep. Draft counts as
// open since receivables are issued as draft.
func (s Settlement) IsOverdue(now time.Time) bool {
	if s.Status != InvoiceDraft && s.Status != InvoicePending && s.Status != InvoicePartial {
		return false
	}
	return !s.DueDate.IsZero() && now.After(s.DueDate) && s.Balance().IsPositive()
}

// PayableInvoice is owed by the agency to one supplier for one booking.
type PayableInvoice struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	TenantID      string               `json:"tenant_id" gorm:"size:64;not null;index"`
	SupplierID    uint                 `json:"supplier_id" gorm:"not null;index"`
	BookingID     uint                 `json:"booking_id" gorm:"not null;index"`
	InvoiceNumber string               `json:"invoice_number" gorm:"size:80;not null;uniqueIndex"`
	Settlement    Settlement           `json:"settlement" gorm:"embedded"`
	Items         []PayableInvoiceItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// PayableInvoiceItem mirrors one quotation expense at its raw price.
type PayableInvoiceItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	InvoiceID   uint            `json:"-" gorm:"index"`
	ExpenseID   uint            `json:"expense_id"`
	Category    string          `json:"category" gorm:"size:50"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
}

// ReceivableInvoice is owed by the customer; exactly one per booking.
type ReceivableInvoice struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	TenantID      string           `json:"tenant_id" gorm:"size:64;not null;index"`
	BookingID     uint             `json:"booking_id" gorm:"not null;uniqueIndex:idx_receivable_invoices_booking_id"`
	InvoiceNumber string           `json:"invoice_number" gorm:"size:80;not null;uniqueIndex"`
	Customer      CustomerSnapshot `json:"customer" gorm:"embedded"`
	Subtotal      decimal.Decimal  `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	MarkupAmount  decimal.Decimal  `json:"markup_amount" gorm:"type:numeric(12,2);not null"`
	TaxAmount     decimal.Decimal  `json:"tax_amount" gorm:"type:numeric(12,2);not null"`
	Settlement    Settlement       `json:"settlement" gorm:"embedded"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// InvoiceRef is the kind-agnostic view of an invoice locked for payment.
type InvoiceRef struct {
	ID         uint
	Kind       InvoiceKind
	TenantID   string
	Settlement Settlement
}

// InvoicePayment is an append-only ledger row. The rows of an invoice sum to its PaidAmount.
type InvoicePayment struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	TenantID    string          `json:"tenant_id" gorm:"size:64;not null;index"`
	InvoiceID   uint            `json:"invoice_id" gorm:"not null;index:idx_invoice_payments_invoice,priority:2"`
	InvoiceType InvoiceKind     `json:"invoice_type" gorm:"type:VARCHAR(20);not null;index:idx_invoice_payments_invoice,priority:1"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency    string          `json:"currency" gorm:"size:3;not null"`
	Method      string          `json:"method" gorm:"size:50"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	PaymentDate time.Time       `json:"payment_date" gorm:"type:date"`
	ProcessedBy string          `json:"processed_by" gorm:"size:128;not null"`
	CreatedAt   time.Time       `json:"created_at"`
}
