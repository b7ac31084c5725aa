// Package repository declares the persistence contracts of the settlement
// core and implements them on gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"travel-backoffice/database"
	"travel-backoffice/models"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateBookingNumber = errors.New("duplicate booking number")
	ErrDuplicateQuotation     = errors.New("quotation already has a booking")
	ErrDuplicateReceivable    = errors.New("booking already has a receivable invoice")
)

// Transactor is the unit of work. Repositories called with the ctx handed to
// fn take part in the same transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type QuotationRepository interface {
	// Get loads the quotation with its days and expenses.
	Get(ctx context.Context, tenantID string, id uint) (*models.Quotation, error)
	// GetForUpdate reads the quotation row with a row lock. Must run inside WithTx.
	GetForUpdate(ctx context.Context, tenantID string, id uint) (*models.Quotation, error)
	UpdateStatus(ctx context.Context, tenantID string, id uint, status models.QuotationStatus) error
}

type BookingFilter struct {
	Status models.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, tenantID string, id uint) (*models.Booking, error)
	// NumberExists checks across all tenants: booking numbers are global.
	NumberExists(ctx context.Context, number string) (bool, error)
	UpdateStatus(ctx context.Context, tenantID string, id uint, status models.BookingStatus) error
	List(ctx context.Context, tenantID string, filter BookingFilter, params database.ListParams) ([]models.Booking, int64, error)
}

type SupplierRepository interface {
	// FindByIDs returns the active suppliers of the tenant among ids.
	FindByIDs(ctx context.Context, tenantID string, ids []uint) ([]models.Supplier, error)
}

type InvoiceRepository interface {
	ReceivableExists(ctx context.Context, tenantID string, bookingID uint) (bool, error)
	CreateReceivable(ctx context.Context, inv *models.ReceivableInvoice) error
	CreatePayable(ctx context.Context, inv *models.PayableInvoice) error
	GetPayable(ctx context.Context, tenantID string, id uint) (*models.PayableInvoice, error)
	GetReceivable(ctx context.Context, tenantID string, id uint) (*models.ReceivableInvoice, error)
	// LockForPayment reads the settlement fields with a row lock. Must run inside WithTx.
	LockForPayment(ctx context.Context, tenantID string, kind models.InvoiceKind, id uint) (*models.InvoiceRef, error)
	SaveSettlement(ctx context.Context, ref *models.InvoiceRef) error
	// ListOverdueCandidates returns open invoices due before now.
	ListOverdueCandidates(ctx context.Context, tenantID string, kind models.InvoiceKind, now time.Time) ([]models.InvoiceRef, error)
}

type PaymentRepository interface {
	Append(ctx context.Context, p *models.InvoicePayment) error
	List(ctx context.Context, tenantID string, kind models.InvoiceKind, invoiceID uint) ([]models.InvoicePayment, error)
}

type ExchangeRateRepository interface {
	Latest(ctx context.Context, from, to string) (*models.ExchangeRate, error)
}
