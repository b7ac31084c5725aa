// Package services holds the booking and settlement operations. Handlers
// call these; the services own transactions and error classification.
package services

import (
	"math/rand"
	"sync"
	"time"

	"travel-backoffice/exchange"
	"travel-backoffice/logger"
	"travel-backoffice/repository"
)

// Params holds the dependencies shared by all services.
type Params struct {
	Logger *logger.Logger
	Tx     repository.Transactor

	QuotationRepo repository.QuotationRepository
	BookingRepo   repository.BookingRepository
	SupplierRepo  repository.SupplierRepository
	InvoiceRepo   repository.InvoiceRepository
	PaymentRepo   repository.PaymentRepository

	Locker             *exchange.Locker
	SettlementCurrency string

	// Now and Rand are replaced in tests. Nil means UTC wall clock and a time-seeded source.
	Now  func() time.Time
	Rand RandSource
}

// RandSource yields the booking number suffix.
type RandSource interface {
	Intn(n int) int
}

// lockedRand makes math/rand safe for concurrent handlers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// withDefaults fills the optional fields. Constructors call it once so the
// handlers never race on initialisation.
func (p Params) withDefaults() Params {
	if p.Now == nil {
		p.Now = func() time.Time { return time.Now().UTC() }
	}
	if p.Rand == nil {
		p.Rand = &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	if p.Logger == nil {
		p.Logger = logger.L
	}
	return p
}
