// Package money represents currency amounts as integer minor units.
//
// All persisted amounts are 2-decimal fixed point. Percentage math is done in
// decimal major units and rounded half-up back to the minor unit.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimals every supported currency is stored with.
const MinorUnits = 2

var (
	half    = decimal.New(5, -1)
	hundred = decimal.NewFromInt(100)
)

// Money is an amount in minor units (cents) plus an ISO 4217 code.
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// New builds Money from minor units.
func New(minor int64, currency string) Money {
	return Money{AmountMinor: minor, Currency: NormalizeCurrency(currency)}
}

// Zero returns a zero amount in currency.
func Zero(currency string) Money { return New(0, currency) }

// NormalizeCurrency upper-cases and trims an ISO code.
func NormalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

// RoundHalfUp rounds d to places decimals, ties going towards +infinity.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// Round2 rounds a major-unit value to the persisted precision.
func Round2(d decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(d, MinorUnits)
}

// FromDecimal converts a major-unit decimal, rounding half-up to the minor unit.
func FromDecimal(d decimal.Decimal, currency string) Money {
	minor := RoundHalfUp(d.Shift(MinorUnits), 0)
	return New(minor.IntPart(), currency)
}

// Parse reads a major-unit string such as "12.345".
func Parse(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return FromDecimal(d, currency), nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.AmountMinor, -MinorUnits)
}

// Add adds two amounts. Panics on a currency mismatch.
func (m Money) Add(o Money) Money {
	m.mustMatch(o)
	return Money{AmountMinor: m.AmountMinor + o.AmountMinor, Currency: m.Currency}
}

// Sub subtracts o. Panics on a currency mismatch.
func (m Money) Sub(o Money) Money {
	m.mustMatch(o)
	return Money{AmountMinor: m.AmountMinor - o.AmountMinor, Currency: m.Currency}
}

// Percent returns m * pct / 100, rounded half-up to the minor unit.
func (m Money) Percent(pct decimal.Decimal) Money {
	return FromDecimal(m.Decimal().Mul(pct).Div(hundred), m.Currency)
}

// Cmp compares two amounts of the same currency.
func (m Money) Cmp(o Money) int {
	m.mustMatch(o)
	switch {
	case m.AmountMinor < o.AmountMinor:
		return -1
	case m.AmountMinor > o.AmountMinor:
		return 1
	}
	return 0
}

func (m Money) SameCurrency(o Money) bool { return m.Currency == o.Currency }
func (m Money) IsZero() bool              { return m.AmountMinor == 0 }
func (m Money) IsPositive() bool          { return m.AmountMinor > 0 }
func (m Money) IsNegative() bool          { return m.AmountMinor < 0 }

// String renders "EUR 198.00".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Decimal().StringFixed(MinorUnits))
}

// Sum adds amounts in currency. Empty input yields zero.
func Sum(currency string, amounts ...Money) Money {
	total := Zero(currency)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (m Money) mustMatch(o Money) {
	if m.Currency != o.Currency {
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", m.Currency, o.Currency))
	}
}

// UnmarshalJSON accepts the canonical object form only.
func (m *Money) UnmarshalJSON(b []byte) error {
	var raw struct {
		AmountMinor *int64 `json:"amount_minor"`
		Currency    string `json:"currency"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.AmountMinor == nil {
		return fmt.Errorf("money: amount_minor is required")
	}
	*m = New(*raw.AmountMinor, raw.Currency)
	return nil
}
