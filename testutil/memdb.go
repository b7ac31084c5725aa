// Package testutil provides in-memory repositories for service and handler tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"travel-backoffice/models"
)

type txKey struct{}

// MemDB is a process-local stand-in for the database. Transactions are
// serialized by a single lock, which also stands in for row locks, and roll
// back by restoring a snapshot.
type MemDB struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	nextID      uint
	quotations  map[uint]models.Quotation
	suppliers   map[uint]models.Supplier
	bookings    map[uint]models.Booking
	payables    map[uint]models.PayableInvoice
	receivables map[uint]models.ReceivableInvoice
	payments    []models.InvoicePayment

	now func() time.Time

	// BeforeBookingInsert, when set, runs before a booking is stored; a
	// non-nil error aborts the insert. Used to simulate constraint races.
	BeforeBookingInsert func(b *models.Booking) error
}

func NewMemDB() *MemDB {
	return &MemDB{
		quotations:  map[uint]models.Quotation{},
		suppliers:   map[uint]models.Supplier{},
		bookings:    map[uint]models.Booking{},
		payables:    map[uint]models.PayableInvoice{},
		receivables: map[uint]models.ReceivableInvoice{},
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type snapshot struct {
	nextID      uint
	quotations  map[uint]models.Quotation
	suppliers   map[uint]models.Supplier
	bookings    map[uint]models.Booking
	payables    map[uint]models.PayableInvoice
	receivables map[uint]models.ReceivableInvoice
	payments    []models.InvoicePayment
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (db *MemDB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return snapshot{
		nextID:      db.nextID,
		quotations:  copyMap(db.quotations),
		suppliers:   copyMap(db.suppliers),
		bookings:    copyMap(db.bookings),
		payables:    copyMap(db.payables),
		receivables: copyMap(db.receivables),
		payments:    append([]models.InvoicePayment(nil), db.payments...),
	}
}

func (db *MemDB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextID = s.nextID
	db.quotations = s.quotations
	db.suppliers = s.suppliers
	db.bookings = s.bookings
	db.payables = s.payables
	db.receivables = s.receivables
	db.payments = s.payments
}

// WithTx implements repository.Transactor. Nested calls join the outer transaction.
func (db *MemDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	committed := false
	defer func() {
		if !committed {
			db.restore(snap)
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// id hands out a new identifier. Callers hold db.mu.
func (db *MemDB) id() uint {
	db.nextID++
	return db.nextID
}

// SeedQuotation stores q and assigns ids to it, its days and its expenses.
func (db *MemDB) SeedQuotation(q *models.Quotation) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if q.ID == 0 {
		q.ID = db.id()
	}
	if q.Status == "" {
		q.Status = models.QuotationDraft
	}
	for i := range q.Days {
		d := &q.Days[i]
		if d.ID == 0 {
			d.ID = db.id()
		}
		d.QuotationID = q.ID
		for j := range d.Expenses {
			e := &d.Expenses[j]
			if e.ID == 0 {
				e.ID = db.id()
			}
			e.QuotationDayID = d.ID
		}
	}
	db.quotations[q.ID] = *q
}

func (db *MemDB) SeedSupplier(s *models.Supplier) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.Id == 0 {
		s.Id = db.id()
	}
	db.suppliers[s.Id] = *s
}

// SeedBooking stores b as is; used to occupy booking numbers.
func (db *MemDB) SeedBooking(b *models.Booking) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b.ID == 0 {
		b.ID = db.id()
	}
	db.bookings[b.ID] = *b
}

// SeedReceivable stores inv as is.
func (db *MemDB) SeedReceivable(inv *models.ReceivableInvoice) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if inv.ID == 0 {
		inv.ID = db.id()
	}
	db.receivables[inv.ID] = *inv
}

// SeedPayable stores inv as is.
func (db *MemDB) SeedPayable(inv *models.PayableInvoice) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if inv.ID == 0 {
		inv.ID = db.id()
	}
	db.payables[inv.ID] = *inv
}

func (db *MemDB) Quotation(id uint) (models.Quotation, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	q, ok := db.quotations[id]
	return q, ok
}

func (db *MemDB) Bookings() []models.Booking {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return sortedValues(db.bookings, func(b models.Booking) uint { return b.ID })
}

func (db *MemDB) Payables() []models.PayableInvoice {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return sortedValues(db.payables, func(p models.PayableInvoice) uint { return p.ID })
}

func (db *MemDB) Receivables() []models.ReceivableInvoice {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return sortedValues(db.receivables, func(r models.ReceivableInvoice) uint { return r.ID })
}

func (db *MemDB) Payments() []models.InvoicePayment {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.InvoicePayment(nil), db.payments...)
}
