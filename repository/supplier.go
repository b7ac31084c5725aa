package repository

import (
	"context"
	"fmt"

	"travel-backoffice/database"
	"travel-backoffice/models"
)

type supplierRepo struct {
	client *database.Client
}

func NewSupplierRepository(client *database.Client) SupplierRepository {
	return &supplierRepo{client: client}
}

func (r *supplierRepo) FindByIDs(ctx context.Context, tenantID string, ids []uint) ([]models.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.Supplier
	err := r.client.Conn(ctx).
		Scopes(database.TenantScope(tenantID)).
		Where("id IN ? AND active = ?", ids, true).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}
	return out, nil
}
