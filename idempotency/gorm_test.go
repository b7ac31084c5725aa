package idempotency

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"travel-backoffice/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewGormStore(db, 24*time.Hour)
}

func TestGormStore_ReserveStoreReplay(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	scope := Scope{TenantID: "it-" + uuid.NewString(), Actor: "u1"}

	rec, created, err := s.Reserve(ctx, scope, "k1", "hash-a")
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, rec.Completed())

	require.NoError(t, s.Store(ctx, scope, "k1", Response{Status: 201, Body: []byte(`{"id":1}`), ContentType: "application/json", Location: "/api/bookings/1"}))
	// A later store never overwrites the first response.
	require.NoError(t, s.Store(ctx, scope, "k1", Response{Status: 500, Body: []byte(`{}`)}))

	rec, created, err = s.Reserve(ctx, scope, "k1", "hash-a")
	require.NoError(t, err)
	assert.False(t, created)
	require.True(t, rec.Completed())
	assert.Equal(t, 201, rec.Response.Status)
	assert.Equal(t, `{"id":1}`, string(rec.Response.Body))
	assert.Equal(t, "/api/bookings/1", rec.Response.Location)

	assert.ErrorIs(t, s.Store(ctx, scope, "never-reserved", Response{Status: 200}), ErrNotReserved)
}

func TestGormStore_ReleaseAndConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	scope := Scope{TenantID: "it-" + uuid.NewString(), Actor: "u1"}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.Reserve(ctx, scope, "race", "h")
			if assert.NoError(t, err) && created {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)

	require.NoError(t, s.Release(ctx, scope, "race"))
	_, created, err := s.Reserve(ctx, scope, "race", "h")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestGormStore_AbandonedReservationIsReclaimed(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t)
	scope := Scope{TenantID: "it-" + uuid.NewString(), Actor: "u1"}
	now := time.Now().UTC().Truncate(time.Second)
	s.now = func() time.Time { return now }

	_, created, err := s.Reserve(ctx, scope, "crashed", "h")
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = s.Reserve(ctx, scope, "crashed", "h")
	require.NoError(t, err)
	assert.False(t, created)

	now = now.Add(PendingLease)
	_, created, err = s.Reserve(ctx, scope, "crashed", "h")
	require.NoError(t, err)
	assert.True(t, created)
}
