package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/database"
	"travel-backoffice/exchange"
	"travel-backoffice/logger"
	"travel-backoffice/models"
	"travel-backoffice/repository"
	"travel-backoffice/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB connects to TEST_DATABASE_URL and migrates, or skips.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func postgresParams(client *database.Client) Params {
	return Params{
		Logger:             logger.NewNop(),
		Tx:                 client,
		QuotationRepo:      repository.NewQuotationRepository(client),
		BookingRepo:        repository.NewBookingRepository(client),
		SupplierRepo:       repository.NewSupplierRepository(client),
		InvoiceRepo:        repository.NewInvoiceRepository(client),
		PaymentRepo:        repository.NewPaymentRepository(client),
		Locker:             exchange.NewLocker(exchange.NewDBSource(repository.NewExchangeRateRepository(client))),
		SettlementCurrency: "EUR",
	}
}

// Each run uses a fresh tenant, so rows from earlier runs never interfere.
func seedTrip(t *testing.T, db *gorm.DB, tenantID string) *models.Quotation {
	t.Helper()
	hotel := models.Supplier{TenantID: tenantID, CompanyName: "Hotel Azul", Currency: "EUR", Active: true}
	transport := models.Supplier{TenantID: tenantID, CompanyName: "Tejo Transfers", Currency: "EUR", Active: true}
	require.NoError(t, db.Create(&hotel).Error)
	require.NoError(t, db.Create(&transport).Error)

	q := models.Quotation{
		TenantID:      tenantID,
		CustomerName:  "Ada Lovelace",
		StartDate:     testutil.Date(2030, 8, 1),
		EndDate:       testutil.Date(2030, 8, 3),
		MarkupPercent: testutil.Dec("10"),
		TaxPercent:    testutil.Dec("20"),
		Currency:      "EUR",
		Status:        models.QuotationSent,
		Days: []models.QuotationDay{
			{DayNumber: 1, Expenses: []models.QuotationExpense{
				{Category: "hotel", SupplierID: &hotel.Id, Price: testutil.Dec("100")},
			}},
			{DayNumber: 2, Expenses: []models.QuotationExpense{
				{Category: "transport", SupplierID: &transport.Id, Price: testutil.Dec("50")},
			}},
		},
	}
	require.NoError(t, db.Create(&q).Error)
	return &q
}

func TestPostgresSettlementFlow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	tenantID := "it-" + uuid.NewString()
	p := postgresParams(database.NewClient(db))

	bookings := NewBookingService(p)
	invoices := NewInvoiceService(p)
	payments := NewPaymentService(p)

	q := seedTrip(t, db, tenantID)

	// Concurrent creations for one quotation: exactly one booking.
	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = bookings.CreateBookingFromQuotation(ctx, tenantID, q.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, apperr.IsConflict(err), "%+v", err)
	}
	require.Equal(t, 1, ok)

	var booked []models.Booking
	require.NoError(t, db.Where("tenant_id = ?", tenantID).Find(&booked).Error)
	require.Len(t, booked, 1)
	assert.True(t, booked[0].TotalAmount.Equal(testutil.Dec("198")))
	assert.True(t, booked[0].ExchangeRate.Equal(testutil.Dec("1")))

	// The locked rate cannot be rewritten.
	err := db.Model(&booked[0]).Update("exchange_rate", testutil.Dec("2")).Error
	assert.ErrorIs(t, err, models.ErrExchangeRateLocked)

	res, err := invoices.GenerateInvoices(ctx, tenantID, []uint{booked[0].ID, booked[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ReceivablesCount)
	assert.Equal(t, 2, res.PayablesCount)

	again, err := invoices.GenerateInvoices(ctx, tenantID, []uint{booked[0].ID})
	require.NoError(t, err)
	assert.Zero(t, again.ReceivablesCount)
	require.Len(t, again.Skipped, 1)
	assert.Equal(t, SkipAlreadyInvoiced, again.Skipped[0].Reason)

	var rec models.ReceivableInvoice
	require.NoError(t, db.Where("tenant_id = ? AND booking_id = ?", tenantID, booked[0].ID).First(&rec).Error)

	// 10 concurrent payments of 30 against 198: six fit, four are refused.
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = payments.RecordPayment(ctx, tenantID, "user-1", models.InvoiceReceivable, rec.ID, PaymentInput{
				Amount:   testutil.Dec("30"),
				Currency: "EUR",
				Method:   "card",
				Date:     time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	var paid, refused int
	for _, err := range errs {
		if err == nil {
			paid++
		} else {
			refused++
		}
	}
	assert.Equal(t, 6, paid)
	assert.Equal(t, 4, refused)

	require.NoError(t, db.First(&rec, rec.ID).Error)
	assert.True(t, rec.Settlement.PaidAmount.Equal(testutil.Dec("180")))
	assert.Equal(t, models.InvoicePartial, rec.Settlement.Status)

	ledger, err := payments.ListPayments(ctx, tenantID, models.InvoiceReceivable, rec.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 6)
}
