package controllers

import (
	"time"

	"travel-backoffice/models"
	"travel-backoffice/money"
	"travel-backoffice/services"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	QuotationID uint `json:"quotation_id" validate:"required,gt=0"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled"`
}

type GenerateInvoicesRequest struct {
	BookingIDs []uint `json:"bookingIds" validate:"required,min=1,dive,gt=0"`
}

// RecordPaymentRequest carries the amount in major units; it is checked for
// sign and precision by the payment service.
type RecordPaymentRequest struct {
	PaymentAmount    decimal.Decimal `json:"payment_amount"`
	PaymentCurrency  string          `json:"payment_currency" validate:"required,len=3,alpha" normalize:"upper"`
	PaymentDate      string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	PaymentMethod    string          `json:"payment_method" validate:"required,max=50"`
	PaymentReference string          `json:"payment_reference" validate:"max=255"`
	Notes            string          `json:"notes" validate:"max=1000"`
}

type BookingResponse struct {
	ID                 uint        `json:"id"`
	BookingNumber      string      `json:"booking_number"`
	QuotationID        uint        `json:"quotation_id"`
	Status             string      `json:"status"`
	Currency           string      `json:"currency"`
	SettlementCurrency string      `json:"settlement_currency"`
	ExchangeRate       string      `json:"exchange_rate"`
	TotalAmount        money.Money `json:"total_amount"`
	TravelStartDate    string      `json:"travel_start_date"`
	TravelEndDate      string      `json:"travel_end_date"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func NewBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		BookingNumber:      b.BookingNumber,
		QuotationID:        b.QuotationID,
		Status:             string(b.Status),
		Currency:           b.Currency,
		SettlementCurrency: b.SettlementCurrency,
		ExchangeRate:       b.ExchangeRate.String(),
		TotalAmount:        money.FromDecimal(b.TotalAmount, b.Currency),
		TravelStartDate:    formatDate(b.TravelStartDate),
		TravelEndDate:      formatDate(b.TravelEndDate),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type ListResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type CancellationQuoteResponse struct {
	BookingID        uint        `json:"booking_id"`
	CancellationDate string      `json:"cancellation_date"`
	DaysBeforeTravel int         `json:"days_before_travel"`
	FeePercent       string      `json:"fee_percent"`
	Total            money.Money `json:"total"`
	Fee              money.Money `json:"fee"`
	Refund           money.Money `json:"refund"`
}

func NewCancellationQuoteResponse(q *services.CancellationQuote) CancellationQuoteResponse {
	return CancellationQuoteResponse{
		BookingID:        q.BookingID,
		CancellationDate: formatDate(q.CancellationDate),
		DaysBeforeTravel: q.DaysBeforeTravel,
		FeePercent:       q.FeePercent.String(),
		Total:            q.Total,
		Fee:              q.Fee,
		Refund:           q.Refund,
	}
}

type SkippedBookingResponse struct {
	BookingID uint   `json:"booking_id"`
	Reason    string `json:"reason"`
}

type GenerateInvoicesResponse struct {
	PayablesCount    int                      `json:"payables_count"`
	ReceivablesCount int                      `json:"receivables_count"`
	Skipped          []SkippedBookingResponse `json:"skipped"`
}

func NewGenerateInvoicesResponse(r *services.GenerationResult) GenerateInvoicesResponse {
	return GenerateInvoicesResponse{
		PayablesCount:    r.PayablesCount,
		ReceivablesCount: r.ReceivablesCount,
		Skipped: lo.Map(r.Skipped, func(s services.SkippedBooking, _ int) SkippedBookingResponse {
			return SkippedBookingResponse{BookingID: s.BookingID, Reason: s.Reason}
		}),
	}
}

type OverdueResponse struct {
	Payables    int `json:"payables_marked"`
	Receivables int `json:"receivables_marked"`
}

// SettlementResponse is the amount/status block shared by both invoice kinds.
type SettlementResponse struct {
	Status      string      `json:"status"`
	TotalAmount money.Money `json:"total_amount"`
	PaidAmount  money.Money `json:"paid_amount"`
	Balance     money.Money `json:"balance"`
	IssueDate   string      `json:"issue_date,omitempty"`
	DueDate     string      `json:"due_date,omitempty"`
}

func NewSettlementResponse(s models.Settlement) SettlementResponse {
	return SettlementResponse{
		Status:      string(s.Status),
		TotalAmount: money.FromDecimal(s.TotalAmount, s.Currency),
		PaidAmount:  money.FromDecimal(s.PaidAmount, s.Currency),
		Balance:     money.FromDecimal(s.Balance(), s.Currency),
		IssueDate:   formatDate(s.IssueDate),
		DueDate:     formatDate(s.DueDate),
	}
}

type PayableItemResponse struct {
	ExpenseID   uint        `json:"expense_id"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
}

type PayableInvoiceResponse struct {
	ID            uint                  `json:"id"`
	Kind          string                `json:"kind"`
	InvoiceNumber string                `json:"invoice_number"`
	BookingID     uint                  `json:"booking_id"`
	SupplierID    uint                  `json:"supplier_id"`
	Currency      string                `json:"currency"`
	Settlement    SettlementResponse    `json:"settlement"`
	Items         []PayableItemResponse `json:"items"`
}

func NewPayableInvoiceResponse(inv *models.PayableInvoice) PayableInvoiceResponse {
	cur := inv.Settlement.Currency
	return PayableInvoiceResponse{
		ID:            inv.ID,
		Kind:          string(models.InvoicePayable),
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     inv.BookingID,
		SupplierID:    inv.SupplierID,
		Currency:      cur,
		Settlement:    NewSettlementResponse(inv.Settlement),
		Items: lo.Map(inv.Items, func(it models.PayableInvoiceItem, _ int) PayableItemResponse {
			return PayableItemResponse{
				ExpenseID:   it.ExpenseID,
				Category:    it.Category,
				Description: it.Description,
				Amount:      money.FromDecimal(it.Amount, cur),
			}
		}),
	}
}

type ReceivableInvoiceResponse struct {
	ID            uint                    `json:"id"`
	Kind          string                  `json:"kind"`
	InvoiceNumber string                  `json:"invoice_number"`
	BookingID     uint                    `json:"booking_id"`
	Currency      string                  `json:"currency"`
	Customer      models.CustomerSnapshot `json:"customer"`
	Subtotal      money.Money             `json:"subtotal"`
	MarkupAmount  money.Money             `json:"markup_amount"`
	TaxAmount     money.Money             `json:"tax_amount"`
	Settlement    SettlementResponse      `json:"settlement"`
}

func NewReceivableInvoiceResponse(inv *models.ReceivableInvoice) ReceivableInvoiceResponse {
	cur := inv.Settlement.Currency
	return ReceivableInvoiceResponse{
		ID:            inv.ID,
		Kind:          string(models.InvoiceReceivable),
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     inv.BookingID,
		Currency:      cur,
		Customer:      inv.Customer,
		Subtotal:      money.FromDecimal(inv.Subtotal, cur),
		MarkupAmount:  money.FromDecimal(inv.MarkupAmount, cur),
		TaxAmount:     money.FromDecimal(inv.TaxAmount, cur),
		Settlement:    NewSettlementResponse(inv.Settlement),
	}
}

type PaymentResponse struct {
	ID          uint        `json:"id"`
	InvoiceID   uint        `json:"invoice_id"`
	InvoiceType string      `json:"invoice_type"`
	Amount      money.Money `json:"amount"`
	Method      string      `json:"method"`
	Reference   string      `json:"reference"`
	Notes       string      `json:"notes"`
	PaymentDate string      `json:"payment_date"`
	ProcessedBy string      `json:"processed_by"`
	CreatedAt   time.Time   `json:"created_at"`
}

func NewPaymentResponse(p models.InvoicePayment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		InvoiceType: string(p.InvoiceType),
		Amount:      money.FromDecimal(p.Amount, p.Currency),
		Method:      p.Method,
		Reference:   p.Reference,
		Notes:       p.Notes,
		PaymentDate: formatDate(p.PaymentDate),
		ProcessedBy: p.ProcessedBy,
		CreatedAt:   p.CreatedAt,
	}
}

// InvoiceStateResponse is the invoice after a payment: amounts as {amount_minor, currency}.
type InvoiceStateResponse struct {
	ID       uint   `json:"id"`
	Kind     string `json:"kind"`
	Currency string `json:"currency"`
	SettlementResponse
}

type RecordPaymentResponse struct {
	Invoice InvoiceStateResponse `json:"invoice"`
	Payment PaymentResponse      `json:"payment"`
}

func NewRecordPaymentResponse(r *services.PaymentResult) RecordPaymentResponse {
	return RecordPaymentResponse{
		Invoice: InvoiceStateResponse{
			ID:                 r.Invoice.ID,
			Kind:               string(r.Invoice.Kind),
			Currency:           r.Invoice.Settlement.Currency,
			SettlementResponse: NewSettlementResponse(r.Invoice.Settlement),
		},
		Payment: NewPaymentResponse(r.Payment),
	}
}
