package services

import (
	"context"
	"fmt"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/models"
	"travel-backoffice/money"
	"travel-backoffice/repository"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PaymentTermDays is the due-date offset of every generated invoice.
const PaymentTermDays = 30

// Skip reasons reported by GenerateInvoices.
const (
	SkipBookingNotFound      = "booking_not_found"
	SkipQuotationNotFound    = "quotation_not_found"
	SkipQuotationNotAccepted = "quotation_not_accepted"
	SkipAlreadyInvoiced      = "already_invoiced"
)

type SkippedBooking struct {
	BookingID uint
	Reason    string
}

type GenerationResult struct {
	PayablesCount    int
	ReceivablesCount int
	Skipped          []SkippedBooking
}

type OverdueResult struct {
	Payables    int
	Receivables int
}

type InvoiceService interface {
	// GenerateInvoices issues one receivable and one payable per supplier for each
	// accepted booking. Each booking commits on its own; unusable ones are skipped.
	GenerateInvoices(ctx context.Context, tenantID string, bookingIDs []uint) (*GenerationResult, error)
	// MarkOverdue flags open invoices whose due date has passed.
	MarkOverdue(ctx context.Context, tenantID string) (*OverdueResult, error)
	GetPayable(ctx context.Context, tenantID string, id uint) (*models.PayableInvoice, error)
	GetReceivable(ctx context.Context, tenantID string, id uint) (*models.ReceivableInvoice, error)
}

type invoiceService struct {
	Params
}

func NewInvoiceService(p Params) InvoiceService {
	return &invoiceService{Params: p.withDefaults()}
}

func (s *invoiceService) GenerateInvoices(ctx context.Context, tenantID string, bookingIDs []uint) (*GenerationResult, error) {
	if len(bookingIDs) == 0 {
		return nil, apperr.NewError("empty booking id list").
			WithHint("bookingIds must be a non-empty array").
			Mark(apperr.ErrValidation)
	}

	res := &GenerationResult{Skipped: []SkippedBooking{}}
	for _, id := range lo.Uniq(bookingIDs) {
		reason, payables, err := s.generateForBooking(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			s.Logger.Infow("invoice generation skipped booking", "tenant_id", tenantID, "booking_id", id, "reason", reason)
			res.Skipped = append(res.Skipped, SkippedBooking{BookingID: id, Reason: reason})
			continue
		}
		res.ReceivablesCount++
		res.PayablesCount += payables
	}
	return res, nil
}

// generateForBooking returns a skip reason, or the number of payables created.
func (s *invoiceService) generateForBooking(ctx context.Context, tenantID string, bookingID uint) (string, int, error) {
	b, err := s.BookingRepo.Get(ctx, tenantID, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SkipBookingNotFound, 0, nil
		}
		return "", 0, apperr.Internal(err, "load booking")
	}
	q, err := s.QuotationRepo.Get(ctx, tenantID, b.QuotationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SkipQuotationNotFound, 0, nil
		}
		return "", 0, apperr.Internal(err, "load quotation")
	}
	if q.Status != models.QuotationAccepted {
		return SkipQuotationNotAccepted, 0, nil
	}

	exists, err := s.InvoiceRepo.ReceivableExists(ctx, tenantID, b.ID)
	if err != nil {
		return "", 0, apperr.Internal(err, "check receivable")
	}
	if exists {
		return SkipAlreadyInvoiced, 0, nil
	}

	// Expenses that can be billed to a known supplier.
	billable := lo.Filter(q.Expenses(), func(e models.QuotationExpense, _ int) bool {
		return e.SupplierID != nil && e.Price.IsPositive()
	})
	supplierIDs := lo.Uniq(lo.Map(billable, func(e models.QuotationExpense, _ int) uint { return *e.SupplierID }))
	suppliers, err := s.SupplierRepo.FindByIDs(ctx, tenantID, supplierIDs)
	if err != nil {
		return "", 0, apperr.Internal(err, "load suppliers")
	}
	known := lo.SliceToMap(suppliers, func(sp models.Supplier) (uint, bool) { return sp.Id, true })
	bySupplier := lo.GroupBy(billable, func(e models.QuotationExpense) uint { return *e.SupplierID })

	now := s.Now()
	issue := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, PaymentTermDays)
	stamp := now.UnixMilli()
	currency := money.NormalizeCurrency(b.Currency)
	pricing := PriceQuotation(q)

	payables := 0
	err = s.Tx.WithTx(ctx, func(ctx context.Context) error {
		receivable := &models.ReceivableInvoice{
			TenantID:      tenantID,
			BookingID:     b.ID,
			InvoiceNumber: fmt.Sprintf("INV-R-%d-%d", stamp, b.ID),
			Customer:      models.SnapshotCustomer(q),
			Subtotal:      pricing.Subtotal,
			MarkupAmount:  pricing.MarkupAmount,
			TaxAmount:     pricing.TaxAmount,
			Settlement: models.Settlement{
				Currency:    currency,
				TotalAmount: pricing.Total,
				PaidAmount:  decimal.Zero,
				Status:      models.InvoiceDraft,
				IssueDate:   issue,
				DueDate:     due,
			},
		}
		if err := s.InvoiceRepo.CreateReceivable(ctx, receivable); err != nil {
			return err
		}

		for _, supplierID := range supplierIDs {
			if !known[supplierID] {
				s.Logger.Warnw("expense supplier not resolvable, not invoiced",
					"tenant_id", tenantID, "booking_id", b.ID, "supplier_id", supplierID)
				continue
			}
			lines := bySupplier[supplierID]
			items := lo.Map(lines, func(e models.QuotationExpense, _ int) models.PayableInvoiceItem {
				return models.PayableInvoiceItem{
					ExpenseID:   e.ID,
					Category:    e.Category,
					Description: e.Description,
					Amount:      money.Round2(e.Price),
				}
			})
			total := lo.Reduce(items, func(acc decimal.Decimal, it models.PayableInvoiceItem, _ int) decimal.Decimal {
				return acc.Add(it.Amount)
			}, decimal.Zero)

			payable := &models.PayableInvoice{
				TenantID:      tenantID,
				SupplierID:    supplierID,
				BookingID:     b.ID,
				InvoiceNumber: fmt.Sprintf("INV-P-%d-%d-%d", stamp, b.ID, supplierID),
				Settlement: models.Settlement{
					Currency:    currency,
					TotalAmount: total,
					PaidAmount:  decimal.Zero,
					Status:      models.InvoicePending,
					IssueDate:   issue,
					DueDate:     due,
				},
				Items: items,
			}
			if err := s.InvoiceRepo.CreatePayable(ctx, payable); err != nil {
				return err
			}
			payables++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReceivable) {
			return SkipAlreadyInvoiced, 0, nil
		}
		return "", 0, apperr.Internal(err, "generate invoices")
	}

	s.Logger.Infow("invoices generated",
		"tenant_id", tenantID,
		"booking_id", b.ID,
		"receivable_total", pricing.Total.StringFixed(money.MinorUnits),
		"payables", payables,
	)
	return "", payables, nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, tenantID string) (*OverdueResult, error) {
	now := s.Now()
	res := &OverdueResult{}
	for _, kind := range []models.InvoiceKind{models.InvoicePayable, models.InvoiceReceivable} {
		candidates, err := s.InvoiceRepo.ListOverdueCandidates(ctx, tenantID, kind, now)
		if err != nil {
			return nil, apperr.Internal(err, "list overdue candidates")
		}
		for _, c := range candidates {
			marked := false
			err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
				ref, err := s.InvoiceRepo.LockForPayment(ctx, tenantID, kind, c.ID)
				if err != nil {
					return err
				}
				// A payment may have landed since the candidate list was read.
				if !ref.Settlement.IsOverdue(now) {
					return nil
				}
				ref.Settlement.Status = models.InvoiceOverdue
				marked = true
				return s.InvoiceRepo.SaveSettlement(ctx, ref)
			})
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					continue
				}
				return nil, apperr.Internal(err, "mark invoice overdue")
			}
			if !marked {
				continue
			}
			if kind == models.InvoicePayable {
				res.Payables++
			} else {
				res.Receivables++
			}
		}
	}
	s.Logger.Infow("overdue sweep finished", "tenant_id", tenantID, "payables", res.Payables, "receivables", res.Receivables)
	return res, nil
}

func (s *invoiceService) GetPayable(ctx context.Context, tenantID string, id uint) (*models.PayableInvoice, error) {
	inv, err := s.InvoiceRepo.GetPayable(ctx, tenantID, id)
	if err != nil {
		return nil, invoiceErr(err, models.InvoicePayable, id)
	}
	return inv, nil
}

func (s *invoiceService) GetReceivable(ctx context.Context, tenantID string, id uint) (*models.ReceivableInvoice, error) {
	inv, err := s.InvoiceRepo.GetReceivable(ctx, tenantID, id)
	if err != nil {
		return nil, invoiceErr(err, models.InvoiceReceivable, id)
	}
	return inv, nil
}

func invoiceErr(err error, kind models.InvoiceKind, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.WithError(err).
			WithHintf("%s invoice %d not found", kind, id).
			Mark(apperr.ErrNotFound)
	}
	return apperr.Internal(err, "load invoice")
}
