package testutil

import (
	"sync"
	"time"

	"travel-backoffice/models"

	"github.com/shopspring/decimal"
)

const (
	TenantID = "tenant-a"
	UserID   = "user-1"
)

// SequenceRand returns the given values in order, then repeats the last one.
type SequenceRand struct {
	mu     sync.Mutex
	values []int
	calls  int
}

func NewSequenceRand(values ...int) *SequenceRand {
	return &SequenceRand{values: values}
}

func (r *SequenceRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.values) {
		i = len(r.values) - 1
	}
	r.calls++
	return r.values[i] % n
}

func (r *SequenceRand) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// FixedClock returns t on every call.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedTripQuotation stores a sent EUR quotation with markup 10% and tax 20%:
// hotel 100 (supplier hotelID), transport 50 (supplier transportID) and a
// zero-priced provider fee.
func (db *MemDB) SeedTripQuotation(hotelID, transportID uint) *models.Quotation {
	hotel, transport := hotelID, transportID
	q := &models.Quotation{
		TenantID:      TenantID,
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		Destination:   "Lisbon",
		StartDate:     Date(2025, 8, 1),
		EndDate:       Date(2025, 8, 3),
		Adults:        2,
		MarkupPercent: Dec("10"),
		TaxPercent:    Dec("20"),
		Currency:      "EUR",
		Status:        models.QuotationSent,
		Days: []models.QuotationDay{
			{DayNumber: 1, Expenses: []models.QuotationExpense{
				{Category: "hotel", Description: "Hotel night", SupplierID: &hotel, Price: Dec("100")},
				{Category: "hotel-provider-fee", Description: "Provider fee", SupplierID: &hotel, Price: decimal.Zero},
			}},
			{DayNumber: 2, Expenses: []models.QuotationExpense{
				{Category: "transport", Description: "Airport transfer", SupplierID: &transport, Price: Dec("50")},
			}},
		},
	}
	db.SeedQuotation(q)
	return q
}

// SeedSuppliers stores an active hotel and transport supplier for TenantID.
func (db *MemDB) SeedSuppliers() (hotel, transport *models.Supplier) {
	hotel = &models.Supplier{TenantID: TenantID, CompanyName: "Hotel Azul", Type: "hotel", Currency: "EUR", Active: true}
	transport = &models.Supplier{TenantID: TenantID, CompanyName: "Tejo Transfers", Type: "transport", Currency: "EUR", Active: true}
	db.SeedSupplier(hotel)
	db.SeedSupplier(transport)
	return hotel, transport
}
