package repository

import (
	"context"
	"fmt"

	"travel-backoffice/database"
	"travel-backoffice/models"
)

type paymentRepo struct {
	client *database.Client
}

func NewPaymentRepository(client *database.Client) PaymentRepository {
	return &paymentRepo{client: client}
}

// Append inserts a ledger row. Ledger rows are never updated or deleted.
func (r *paymentRepo) Append(ctx context.Context, p *models.InvoicePayment) error {
	if err := r.client.Conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("insert invoice payment: %w", err)
	}
	return nil
}

func (r *paymentRepo) List(ctx context.Context, tenantID string, kind models.InvoiceKind, invoiceID uint) ([]models.InvoicePayment, error) {
	var out []models.InvoicePayment
	err := r.client.Conn(ctx).
		Scopes(database.TenantScope(tenantID)).
		Where("invoice_type = ? AND invoice_id = ?", kind, invoiceID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list payments of %s %d: %w", kind, invoiceID, err)
	}
	return out, nil
}
