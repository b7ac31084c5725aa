package services

import (
	"travel-backoffice/models"
	"travel-backoffice/money"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing is the customer-facing price breakdown of a quotation, every step
// rounded half-up to two decimals.
type Pricing struct {
	Subtotal     decimal.Decimal
	MarkupAmount decimal.Decimal
	AfterMarkup  decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
}

// PriceQuotation sums the positive expense lines and applies markup then tax.
func PriceQuotation(q *models.Quotation) Pricing {
	positive := lo.Filter(q.Expenses(), func(e models.QuotationExpense, _ int) bool {
		return e.Price.IsPositive()
	})
	subtotal := money.Round2(lo.Reduce(positive, func(acc decimal.Decimal, e models.QuotationExpense, _ int) decimal.Decimal {
		return acc.Add(e.Price)
	}, decimal.Zero))

	markup := money.Round2(subtotal.Mul(q.MarkupPercent).Div(hundred))
	afterMarkup := money.Round2(subtotal.Add(markup))
	tax := money.Round2(afterMarkup.Mul(q.TaxPercent).Div(hundred))

	return Pricing{
		Subtotal:     subtotal,
		MarkupAmount: markup,
		AfterMarkup:  afterMarkup,
		TaxAmount:    tax,
		Total:        money.Round2(afterMarkup.Add(tax)),
	}
}
