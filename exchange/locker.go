// Package exchange freezes the currency conversion rate used by a booking.
package exchange

import (
	"context"

	"travel-backoffice/apperr"
	"travel-backoffice/money"
	"travel-backoffice/repository"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var ErrRateNotFound = errors.New("exchange rate not found")

// Source returns the most recent rate for a currency pair, or ErrRateNotFound.
type Source interface {
	LatestRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Locker reads a rate once at booking time. The result is stored on the
// booking and never looked up again.
type Locker struct {
	source Source
}

func NewLocker(source Source) *Locker {
	return &Locker{source: source}
}

// Lock returns the rate converting from into to. Equal currencies short-circuit to 1.
func (l *Locker) Lock(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = money.NormalizeCurrency(from), money.NormalizeCurrency(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := l.source.LatestRate(ctx, from, to)
	if err != nil {
		if errors.Is(err, ErrRateNotFound) {
			return decimal.Zero, apperr.WithError(err).
				WithHintf("no exchange rate available for %s/%s", from, to).
				Mark(apperr.ErrNotFound)
		}
		return decimal.Zero, apperr.WithError(err).
			WithMessage("exchange rate lookup").
			Mark(apperr.ErrInternal)
	}
	if !rate.IsPositive() {
		return decimal.Zero, apperr.NewErrorf("non-positive rate %s for %s/%s", rate, from, to).
			Mark(apperr.ErrInternal)
	}
	return rate, nil
}

// DBSource reads rates from the exchange_rates table.
type DBSource struct {
	repo repository.ExchangeRateRepository
}

func NewDBSource(repo repository.ExchangeRateRepository) *DBSource {
	return &DBSource{repo: repo}
}

func (s *DBSource) LatestRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	r, err := s.repo.Latest(ctx, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, ErrRateNotFound
		}
		return decimal.Zero, err
	}
	return r.Rate, nil
}

// StaticSource serves a fixed table of rates keyed "FROM/TO".
type StaticSource map[string]decimal.Decimal

func (s StaticSource) LatestRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if r, ok := s[from+"/"+to]; ok {
		return r, nil
	}
	return decimal.Zero, ErrRateNotFound
}
