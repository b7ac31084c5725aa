package database

import (
	"fmt"

	"travel-backoffice/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - Money columns as NUMERIC(12,2), rates as NUMERIC(18,8)
// - Unique indexes backing the application checks (booking number, one booking per quotation)
// - CHECK constraints for the paid <= total invariant
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Supplier{},
			&models.Quotation{},
			&models.QuotationDay{},
			&models.QuotationExpense{},
			&models.ExchangeRate{},
			&models.Booking{},
			&models.PayableInvoice{},
			&models.PayableInvoiceItem{},
			&models.ReceivableInvoice{},
			&models.InvoicePayment{},
			&models.IdempotencyKey{},
			&models.RateLimitBucket{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce fixed-point columns (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE quotation_expenses   ALTER COLUMN price        TYPE numeric(12,2)`,
			`ALTER TABLE bookings             ALTER COLUMN total_amount TYPE numeric(12,2)`,
			`ALTER TABLE bookings             ALTER COLUMN exchange_rate TYPE numeric(18,8)`,
			`ALTER TABLE exchange_rates       ALTER COLUMN rate         TYPE numeric(18,8)`,
			`ALTER TABLE payable_invoices     ALTER COLUMN total_amount TYPE numeric(12,2)`,
			`ALTER TABLE payable_invoices     ALTER COLUMN paid_amount  TYPE numeric(12,2)`,
			`ALTER TABLE payable_invoice_items ALTER COLUMN amount      TYPE numeric(12,2)`,
			`ALTER TABLE receivable_invoices  ALTER COLUMN subtotal     TYPE numeric(12,2)`,
			`ALTER TABLE receivable_invoices  ALTER COLUMN tax_amount   TYPE numeric(12,2)`,
			`ALTER TABLE receivable_invoices  ALTER COLUMN total_amount TYPE numeric(12,2)`,
			`ALTER TABLE receivable_invoices  ALTER COLUMN paid_amount  TYPE numeric(12,2)`,
			`ALTER TABLE invoice_payments     ALTER COLUMN amount       TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_booking_number ON bookings (booking_number)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_quotation_id ON bookings (quotation_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_receivable_invoices_booking_id ON receivable_invoices (booking_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_payable_invoices_booking_supplier ON payable_invoices (booking_id, supplier_id)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_scope_key ON idempotency_keys (scope, key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		checks := map[string]string{
			"payable_invoices":    "chk_payable_invoices_paid_le_total",
			"receivable_invoices": "chk_receivable_invoices_paid_le_total",
		}
		for table, name := range checks {
			stmt := fmt.Sprintf(`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = '%[1]s'::regclass
					  AND conname  = '%[2]s'
				) THEN
					ALTER TABLE %[1]s
					ADD CONSTRAINT %[2]s
					CHECK (paid_amount >= 0 AND paid_amount <= total_amount);
				END IF;
			END $$;`, table, name)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		positive := `DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint
				WHERE conrelid = 'invoice_payments'::regclass
				  AND conname  = 'chk_invoice_payments_amount_pos'
			) THEN
				ALTER TABLE invoice_payments
				ADD CONSTRAINT chk_invoice_payments_amount_pos
				CHECK (amount > 0);
			END IF;
		END $$;`
		if err := tx.Exec(positive).Error; err != nil {
			return fmt.Errorf("check constraint migration failed: %w", err)
		}

		return nil
	})
}
