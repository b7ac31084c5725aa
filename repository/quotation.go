package repository

import (
	"context"
	"fmt"

	"travel-backoffice/database"
	"travel-backoffice/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotationRepo struct {
	client *database.Client
}

func NewQuotationRepository(client *database.Client) QuotationRepository {
	return &quotationRepo{client: client}
}

func (r *quotationRepo) Get(ctx context.Context, tenantID string, id uint) (*models.Quotation, error) {
	var q models.Quotation
	err := r.client.Conn(ctx).
		Scopes(database.TenantScope(tenantID)).
		Preload("Days", func(db *gorm.DB) *gorm.DB { return db.Order("day_number ASC") }).
		Preload("Days.Expenses", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&q, "id = ?", id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load quotation %d: %w", id, err)
	}
	return &q, nil
}

func (r *quotationRepo) GetForUpdate(ctx context.Context, tenantID string, id uint) (*models.Quotation, error) {
	var q models.Quotation
	err := r.client.Conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(database.TenantScope(tenantID)).
		First(&q, "id = ?", id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock quotation %d: %w", id, err)
	}
	return &q, nil
}

func (r *quotationRepo) UpdateStatus(ctx context.Context, tenantID string, id uint, status models.QuotationStatus) error {
	res := r.client.Conn(ctx).
		Model(&models.Quotation{}).
		Scopes(database.TenantScope(tenantID)).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update quotation %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
