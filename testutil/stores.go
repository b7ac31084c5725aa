package testutil

import (
	"context"
	"sort"
	"time"

	"travel-backoffice/database"
	"travel-backoffice/models"
	"travel-backoffice/repository"

	"github.com/samber/lo"
)

func sortedValues[V any](m map[uint]V, id func(V) uint) []V {
	out := lo.Values(m)
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

// Repositories groups the in-memory implementations over one MemDB.
type Repositories struct {
	Quotations repository.QuotationRepository
	Bookings   repository.BookingRepository
	Suppliers  repository.SupplierRepository
	Invoices   repository.InvoiceRepository
	Payments   repository.PaymentRepository
}

func (db *MemDB) Repositories() Repositories {
	return Repositories{
		Quotations: &quotationStore{db},
		Bookings:   &bookingStore{db},
		Suppliers:  &supplierStore{db},
		Invoices:   &invoiceStore{db},
		Payments:   &paymentStore{db},
	}
}

type quotationStore struct{ db *MemDB }

func (s *quotationStore) Get(_ context.Context, tenantID string, id uint) (*models.Quotation, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	q, ok := s.db.quotations[id]
	if !ok || q.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (s *quotationStore) GetForUpdate(ctx context.Context, tenantID string, id uint) (*models.Quotation, error) {
	return s.Get(ctx, tenantID, id)
}

func (s *quotationStore) UpdateStatus(_ context.Context, tenantID string, id uint, status models.QuotationStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	q, ok := s.db.quotations[id]
	if !ok || q.TenantID != tenantID {
		return repository.ErrNotFound
	}
	q.Status = status
	s.db.quotations[id] = q
	return nil
}

type bookingStore struct{ db *MemDB }

func (s *bookingStore) Create(_ context.Context, b *models.Booking) error {
	if hook := s.db.BeforeBookingInsert; hook != nil {
		if err := hook(b); err != nil {
			return err
		}
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.bookings {
		if existing.BookingNumber == b.BookingNumber {
			return repository.ErrDuplicateBookingNumber
		}
		if existing.QuotationID == b.QuotationID {
			return repository.ErrDuplicateQuotation
		}
	}
	b.ID = s.db.id()
	b.CreatedAt = s.db.now()
	b.UpdatedAt = b.CreatedAt
	s.db.bookings[b.ID] = *b
	return nil
}

func (s *bookingStore) Get(_ context.Context, tenantID string, id uint) (*models.Booking, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	b, ok := s.db.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *bookingStore) NumberExists(_ context.Context, number string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, found := lo.FindKeyBy(s.db.bookings, func(_ uint, b models.Booking) bool { return b.BookingNumber == number })
	return found, nil
}

func (s *bookingStore) UpdateStatus(_ context.Context, tenantID string, id uint, status models.BookingStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.bookings[id]
	if !ok || b.TenantID != tenantID {
		return repository.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = s.db.now()
	s.db.bookings[id] = b
	return nil
}

// List orders by id only; sort fields are validated by the gorm implementation.
func (s *bookingStore) List(_ context.Context, tenantID string, filter repository.BookingFilter, params database.ListParams) ([]models.Booking, int64, error) {
	s.db.mu.RLock()
	all := sortedValues(s.db.bookings, func(b models.Booking) uint { return b.ID })
	s.db.mu.RUnlock()

	matched := lo.Filter(all, func(b models.Booking, _ int) bool {
		return b.TenantID == tenantID && (filter.Status == "" || b.Status == filter.Status)
	})
	if params.Desc {
		matched = lo.Reverse(matched)
	}
	total := int64(len(matched))
	page := lo.Slice(matched, params.Offset(), params.Offset()+params.PageSize)
	return page, total, nil
}

type supplierStore struct{ db *MemDB }

func (s *supplierStore) FindByIDs(_ context.Context, tenantID string, ids []uint) ([]models.Supplier, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []models.Supplier
	for _, id := range ids {
		if sp, ok := s.db.suppliers[id]; ok && sp.TenantID == tenantID && sp.Active {
			out = append(out, sp)
		}
	}
	return out, nil
}

type invoiceStore struct{ db *MemDB }

func (s *invoiceStore) ReceivableExists(_ context.Context, tenantID string, bookingID uint) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, r := range s.db.receivables {
		if r.TenantID == tenantID && r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *invoiceStore) CreateReceivable(_ context.Context, inv *models.ReceivableInvoice) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.receivables {
		if r.BookingID == inv.BookingID {
			return repository.ErrDuplicateReceivable
		}
	}
	inv.ID = s.db.id()
	inv.CreatedAt = s.db.now()
	inv.UpdatedAt = inv.CreatedAt
	s.db.receivables[inv.ID] = *inv
	return nil
}

func (s *invoiceStore) CreatePayable(_ context.Context, inv *models.PayableInvoice) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	inv.ID = s.db.id()
	for i := range inv.Items {
		inv.Items[i].ID = s.db.id()
		inv.Items[i].InvoiceID = inv.ID
	}
	inv.CreatedAt = s.db.now()
	inv.UpdatedAt = inv.CreatedAt
	stored := *inv
	stored.Items = append([]models.PayableInvoiceItem(nil), inv.Items...)
	s.db.payables[inv.ID] = stored
	return nil
}

func (s *invoiceStore) GetPayable(_ context.Context, tenantID string, id uint) (*models.PayableInvoice, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	inv, ok := s.db.payables[id]
	if !ok || inv.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (s *invoiceStore) GetReceivable(_ context.Context, tenantID string, id uint) (*models.ReceivableInvoice, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	inv, ok := s.db.receivables[id]
	if !ok || inv.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (s *invoiceStore) ref(tenantID string, kind models.InvoiceKind, id uint) (*models.InvoiceRef, bool) {
	switch kind {
	case models.InvoicePayable:
		if inv, ok := s.db.payables[id]; ok && inv.TenantID == tenantID {
			return &models.InvoiceRef{ID: id, Kind: kind, TenantID: tenantID, Settlement: inv.Settlement}, true
		}
	case models.InvoiceReceivable:
		if inv, ok := s.db.receivables[id]; ok && inv.TenantID == tenantID {
			return &models.InvoiceRef{ID: id, Kind: kind, TenantID: tenantID, Settlement: inv.Settlement}, true
		}
	}
	return nil, false
}

// LockForPayment relies on MemDB transactions being serialized.
func (s *invoiceStore) LockForPayment(_ context.Context, tenantID string, kind models.InvoiceKind, id uint) (*models.InvoiceRef, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	ref, ok := s.ref(tenantID, kind, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ref, nil
}

func (s *invoiceStore) SaveSettlement(_ context.Context, ref *models.InvoiceRef) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.now()
	switch ref.Kind {
	case models.InvoicePayable:
		inv, ok := s.db.payables[ref.ID]
		if !ok || inv.TenantID != ref.TenantID {
			return repository.ErrNotFound
		}
		inv.Settlement.PaidAmount = ref.Settlement.PaidAmount
		inv.Settlement.Status = ref.Settlement.Status
		inv.UpdatedAt = now
		s.db.payables[ref.ID] = inv
	case models.InvoiceReceivable:
		inv, ok := s.db.receivables[ref.ID]
		if !ok || inv.TenantID != ref.TenantID {
			return repository.ErrNotFound
		}
		inv.Settlement.PaidAmount = ref.Settlement.PaidAmount
		inv.Settlement.Status = ref.Settlement.Status
		inv.UpdatedAt = now
		s.db.receivables[ref.ID] = inv
	default:
		return repository.ErrNotFound
	}
	return nil
}

func (s *invoiceStore) ListOverdueCandidates(_ context.Context, tenantID string, kind models.InvoiceKind, now time.Time) ([]models.InvoiceRef, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var ids []uint
	switch kind {
	case models.InvoicePayable:
		ids = lo.Keys(s.db.payables)
	case models.InvoiceReceivable:
		ids = lo.Keys(s.db.receivables)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.InvoiceRef
	for _, id := range ids {
		if ref, ok := s.ref(tenantID, kind, id); ok && ref.Settlement.IsOverdue(now) {
			out = append(out, *ref)
		}
	}
	return out, nil
}

type paymentStore struct{ db *MemDB }

func (s *paymentStore) Append(_ context.Context, p *models.InvoicePayment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p.ID = s.db.id()
	p.CreatedAt = s.db.now()
	s.db.payments = append(s.db.payments, *p)
	return nil
}

func (s *paymentStore) List(_ context.Context, tenantID string, kind models.InvoiceKind, invoiceID uint) ([]models.InvoicePayment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return lo.Filter(s.db.payments, func(p models.InvoicePayment, _ int) bool {
		return p.TenantID == tenantID && p.InvoiceType == kind && p.InvoiceID == invoiceID
	}), nil
}
