package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(now *time.Time) *MemoryLimiter {
	l := NewMemoryLimiter()
	l.now = func() time.Time { return *now }
	return l
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 1; i <= 3; i++ {
		res, err := l.Track(ctx, "user_1_update", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i)
		assert.Equal(t, 3-i, res.Remaining)
		assert.Equal(t, now.Add(time.Hour), res.Reset)
	}

	res, err := l.Track(ctx, "user_1_update", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Hour, res.RetryAfter(now))
}

func TestMemoryLimiter_LockedUntilReset(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 3; i++ {
		_, err := l.Track(ctx, "k", 2, time.Hour)
		require.NoError(t, err)
	}

	now = now.Add(59 * time.Minute)
	res, err := l.Track(ctx, "k", 2, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter(now))

	now = now.Add(time.Minute)
	res, err = l.Track(ctx, "k", 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, now.Add(time.Hour), res.Reset)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	_, err := l.Track(ctx, "user_1_payment", 1, time.Hour)
	require.NoError(t, err)
	res, err := l.Track(ctx, "user_1_payment", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = l.Track(ctx, "user_1", 100, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 99, res.Remaining)
}

func TestMemoryLimiter_ConcurrentCallsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()

	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Track(ctx, "k", 20, time.Hour)
			if err == nil && res.Allowed {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(20), allowed)
}

func TestResult_RetryAfterNeverNegative(t *testing.T) {
	now := time.Now()
	r := Result{Reset: now.Add(-time.Minute)}
	assert.Equal(t, time.Duration(0), r.RetryAfter(now))
}

func TestMemoryLimiter_LastAllowedReportsZeroRemaining(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	res, err := l.Track(ctx, "single", 1, time.Hour)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Zero(t, res.Remaining)

	res, err = l.Track(ctx, "single", 1, time.Hour)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
}
