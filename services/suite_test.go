package services

import (
	"context"
	"time"

	"travel-backoffice/exchange"
	"travel-backoffice/logger"
	"travel-backoffice/models"
	"travel-backoffice/testutil"

	"github.com/stretchr/testify/suite"
)

// ServiceSuite wires every service over a fresh in-memory database per test.
type ServiceSuite struct {
	suite.Suite
	ctx  context.Context
	db   *testutil.MemDB
	now  time.Time
	rand *testutil.SequenceRand

	bookings BookingService
	invoices InvoiceService
	payments PaymentService
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewMemDB()
	s.now = time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC)
	s.rand = testutil.NewSequenceRand(12345, 23456, 34567, 45678, 56789)
	s.build(s.rand)
}

func (s *ServiceSuite) build(r RandSource) {
	repos := s.db.Repositories()
	p := Params{
		Logger:        logger.NewNop(),
		Tx:            s.db,
		QuotationRepo: repos.Quotations,
		BookingRepo:   repos.Bookings,
		SupplierRepo:  repos.Suppliers,
		InvoiceRepo:   repos.Invoices,
		PaymentRepo:   repos.Payments,
		Locker: exchange.NewLocker(exchange.StaticSource{
			"USD/EUR": testutil.Dec("0.92"),
		}),
		SettlementCurrency: "EUR",
		Now:                testutil.FixedClock(s.now),
		Rand:               r,
	}
	s.bookings = NewBookingService(p)
	s.invoices = NewInvoiceService(p)
	s.payments = NewPaymentService(p)
}

// acceptedBooking seeds suppliers and the trip quotation and books it.
func (s *ServiceSuite) acceptedBooking() (*models.Booking, *models.Supplier, *models.Supplier) {
	hotel, transport := s.db.SeedSuppliers()
	q := s.db.SeedTripQuotation(hotel.Id, transport.Id)
	b, err := s.bookings.CreateBookingFromQuotation(s.ctx, testutil.TenantID, q.ID)
	s.Require().NoError(err)
	return b, hotel, transport
}
