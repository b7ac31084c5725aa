package database

import (
	"gorm.io/gorm"
)

// TenantScope restricts a query to rows owned by tenantID. Every repository
// query on tenant data goes through it, so a wrong id reads as "not found".
func TenantScope(tenantID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}
