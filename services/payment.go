package services

import (
	"context"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/models"
	"travel-backoffice/money"
	"travel-backoffice/repository"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// PaymentInput is one payment against an invoice, in major units.
type PaymentInput struct {
	Amount    decimal.Decimal
	Currency  string
	Method    string
	Reference string
	Notes     string
	Date      time.Time
}

// PaymentResult is the invoice state after the payment plus the ledger row written.
type PaymentResult struct {
	Invoice models.InvoiceRef
	Payment models.InvoicePayment
}

type PaymentService interface {
	// RecordPayment applies a payment under a row lock so concurrent payments
	// can never push paid_amount over total_amount.
	RecordPayment(ctx context.Context, tenantID, actor string, kind models.InvoiceKind, invoiceID uint, in PaymentInput) (*PaymentResult, error)
	ListPayments(ctx context.Context, tenantID string, kind models.InvoiceKind, invoiceID uint) ([]models.InvoicePayment, error)
}

type paymentService struct {
	Params
}

func NewPaymentService(p Params) PaymentService {
	return &paymentService{Params: p.withDefaults()}
}

func validationErr(msg, hint string) error {
	return apperr.NewError(msg).WithHint(hint).Mark(apperr.ErrValidation)
}

func (s *paymentService) RecordPayment(ctx context.Context, tenantID, actor string, kind models.InvoiceKind, invoiceID uint, in PaymentInput) (*PaymentResult, error) {
	if !kind.Valid() {
		return nil, validationErr("invalid invoice kind", "invoice type must be payable or receivable")
	}
	if !in.Amount.IsPositive() {
		return nil, validationErr("non-positive payment amount", "payment amount must be greater than zero")
	}
	if !in.Amount.Equal(money.Round2(in.Amount)) {
		return nil, validationErr("payment amount has sub-cent precision", "payment amount must have at most 2 decimals")
	}
	currency := money.NormalizeCurrency(in.Currency)

	var res PaymentResult
	err := s.Tx.WithTx(ctx, func(ctx context.Context) error {
		ref, err := s.InvoiceRepo.LockForPayment(ctx, tenantID, kind, invoiceID)
		if err != nil {
			return invoiceErr(err, kind, invoiceID)
		}
		if currency != ref.Settlement.Currency {
			return apperr.NewErrorf("payment in %s for %s invoice", currency, ref.Settlement.Currency).
				WithHintf("payment currency must be %s", ref.Settlement.Currency).
				Mark(apperr.ErrCurrencyMismatch, apperr.ErrValidation)
		}

		newPaid := ref.Settlement.PaidAmount.Add(in.Amount)
		if newPaid.GreaterThan(ref.Settlement.TotalAmount) {
			outstanding := money.FromDecimal(ref.Settlement.Balance(), currency)
			return apperr.NewErrorf("overpayment: paid %s + %s > total %s",
				ref.Settlement.PaidAmount, in.Amount, ref.Settlement.TotalAmount).
				WithHintf("payment exceeds outstanding amount of %s", outstanding).
				Mark(apperr.ErrOverpayment, apperr.ErrValidation)
		}

		ref.Settlement.PaidAmount = newPaid
		ref.Settlement.Status = models.DeriveStatus(newPaid, ref.Settlement.TotalAmount, ref.Settlement.Status)
		if err := s.InvoiceRepo.SaveSettlement(ctx, ref); err != nil {
			return apperr.Internal(err, "save invoice settlement")
		}

		payment := models.InvoicePayment{
			TenantID:    tenantID,
			InvoiceID:   invoiceID,
			InvoiceType: kind,
			Amount:      in.Amount,
			Currency:    currency,
			Method:      in.Method,
			Reference:   in.Reference,
			Notes:       in.Notes,
			PaymentDate: in.Date,
			ProcessedBy: actor,
		}
		if err := s.PaymentRepo.Append(ctx, &payment); err != nil {
			return apperr.Internal(err, "append payment")
		}
		res = PaymentResult{Invoice: *ref, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("payment recorded",
		"tenant_id", tenantID,
		"invoice_type", kind,
		"invoice_id", invoiceID,
		"amount", in.Amount.StringFixed(money.MinorUnits),
		"status", res.Invoice.Settlement.Status,
		"processed_by", actor,
	)
	return &res, nil
}

func (s *paymentService) ListPayments(ctx context.Context, tenantID string, kind models.InvoiceKind, invoiceID uint) ([]models.InvoicePayment, error) {
	if !kind.Valid() {
		return nil, validationErr("invalid invoice kind", "invoice type must be payable or receivable")
	}
	var err error
	switch kind {
	case models.InvoicePayable:
		_, err = s.InvoiceRepo.GetPayable(ctx, tenantID, invoiceID)
	default:
		_, err = s.InvoiceRepo.GetReceivable(ctx, tenantID, invoiceID)
	}
	if err != nil {
		return nil, invoiceErr(err, kind, invoiceID)
	}

	out, err := s.PaymentRepo.List(ctx, tenantID, kind, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invoiceErr(err, kind, invoiceID)
		}
		return nil, apperr.Internal(err, "list payments")
	}
	return out, nil
}
