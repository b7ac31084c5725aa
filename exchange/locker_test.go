package exchange

import (
	"context"
	"testing"

	"travel-backoffice/apperr"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	StaticSource
	calls int
}

func (c *countingSource) LatestRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	c.calls++
	return c.StaticSource.LatestRate(ctx, from, to)
}

func TestLockSameCurrencySkipsLookup(t *testing.T) {
	src := &countingSource{StaticSource: StaticSource{}}
	rate, err := NewLocker(src).Lock(context.Background(), "eur", "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
	assert.Zero(t, src.calls)
}

func TestLockReturnsSourceRate(t *testing.T) {
	src := &countingSource{StaticSource: StaticSource{"USD/EUR": decimal.RequireFromString("0.91234567")}}
	rate, err := NewLocker(src).Lock(context.Background(), "usd", "eur")
	require.NoError(t, err)
	assert.Equal(t, "0.91234567", rate.String())
	assert.Equal(t, 1, src.calls)
}

func TestLockMissingRateIsFatal(t *testing.T) {
	_, err := NewLocker(StaticSource{}).Lock(context.Background(), "GBP", "EUR")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, errors.Is(err, ErrRateNotFound))
}

func TestLockRejectsNonPositiveRate(t *testing.T) {
	_, err := NewLocker(StaticSource{"GBP/EUR": decimal.Zero}).Lock(context.Background(), "GBP", "EUR")
	require.Error(t, err)
	assert.True(t, apperr.IsInternal(err))
}
