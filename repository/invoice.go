package repository

import (
	"context"
	"fmt"
	"time"

	"travel-backoffice/database"
	"travel-backoffice/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepo struct {
	client *database.Client
}

func NewInvoiceRepository(client *database.Client) InvoiceRepository {
	return &invoiceRepo{client: client}
}

// settlementRow is the projection shared by payable_invoices and receivable_invoices.
type settlementRow struct {
	ID       uint
	TenantID string
	models.Settlement
}

func tableFor(kind models.InvoiceKind) (string, error) {
	switch kind {
	case models.InvoicePayable:
		return "payable_invoices", nil
	case models.InvoiceReceivable:
		return "receivable_invoices", nil
	}
	return "", fmt.Errorf("unknown invoice kind %q", kind)
}

func (r *invoiceRepo) ReceivableExists(ctx context.Context, tenantID string, bookingID uint) (bool, error) {
	var n int64
	err := r.client.Conn(ctx).Model(&models.ReceivableInvoice{}).
		Scopes(database.TenantScope(tenantID)).
		Where("booking_id = ?", bookingID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check receivable for booking %d: %w", bookingID, err)
	}
	return n > 0, nil
}

func (r *invoiceRepo) CreateReceivable(ctx context.Context, inv *models.ReceivableInvoice) error {
	err := r.client.Conn(ctx).Create(inv).Error
	if database.IsUniqueViolation(err, "idx_receivable_invoices_booking_id") {
		return ErrDuplicateReceivable
	}
	if err != nil {
		return fmt.Errorf("insert receivable invoice: %w", err)
	}
	return nil
}

// CreatePayable inserts the invoice and its items (gorm association save).
func (r *invoiceRepo) CreatePayable(ctx context.Context, inv *models.PayableInvoice) error {
	if err := r.client.Conn(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("insert payable invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetPayable(ctx context.Context, tenantID string, id uint) (*models.PayableInvoice, error) {
	var inv models.PayableInvoice
	err := r.client.Conn(ctx).
		Scopes(database.TenantScope(tenantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load payable invoice %d: %w", id, err)
	}
	return &inv, nil
}

func (r *invoiceRepo) GetReceivable(ctx context.Context, tenantID string, id uint) (*models.ReceivableInvoice, error) {
	var inv models.ReceivableInvoice
	err := r.client.Conn(ctx).Scopes(database.TenantScope(tenantID)).First(&inv, "id = ?", id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load receivable invoice %d: %w", id, err)
	}
	return &inv, nil
}

// LockForPayment takes SELECT ... FOR UPDATE on the invoice row so concurrent
// payments on one invoice serialize on the read-modify-write of paid_amount.
func (r *invoiceRepo) LockForPayment(ctx context.Context, tenantID string, kind models.InvoiceKind, id uint) (*models.InvoiceRef, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var row settlementRow
	err = r.client.Conn(ctx).
		Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(database.TenantScope(tenantID)).
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock %s %d: %w", table, id, err)
	}
	return &models.InvoiceRef{ID: row.ID, Kind: kind, TenantID: row.TenantID, Settlement: row.Settlement}, nil
}

func (r *invoiceRepo) SaveSettlement(ctx context.Context, ref *models.InvoiceRef) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}
	res := r.client.Conn(ctx).
		Table(table).
		Scopes(database.TenantScope(ref.TenantID)).
		Where("id = ?", ref.ID).
		Updates(map[string]any{
			"paid_amount": ref.Settlement.PaidAmount,
			"status":      ref.Settlement.Status,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update %s %d settlement: %w", table, ref.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) ListOverdueCandidates(ctx context.Context, tenantID string, kind models.InvoiceKind, now time.Time) ([]models.InvoiceRef, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var rows []settlementRow
	err = r.client.Conn(ctx).
		Table(table).
		Scopes(database.TenantScope(tenantID)).
		Where("status IN ?", []models.InvoiceStatus{models.InvoiceDraft, models.InvoicePending, models.InvoicePartial}).
		Where("due_date < ?", now).
		Where("paid_amount < total_amount").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue %s: %w", table, err)
	}
	out := make([]models.InvoiceRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.InvoiceRef{ID: row.ID, Kind: kind, TenantID: row.TenantID, Settlement: row.Settlement})
	}
	return out, nil
}
