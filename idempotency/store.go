// Package idempotency deduplicates side-effecting requests by client key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// MaxKeyLength bounds the Idempotency-Key header.
const MaxKeyLength = 128

// PendingLease is how long an uncompleted reservation blocks its key. A
// reservation left behind by a crashed process is reclaimed after it.
const PendingLease = 5 * time.Minute

var ErrNotReserved = errors.New("idempotency key not reserved")

// Scope isolates keys per tenant and actor. The zero Scope is global.
type Scope struct {
	TenantID string
	Actor    string
}

// String encodes the scope as "<len(tenant)>:<tenant>:<actor>". The length
// prefix keeps ("a:b", "c") and ("a", "b:c") apart.
func (s Scope) String() string {
	return strconv.Itoa(len(s.TenantID)) + ":" + s.TenantID + ":" + s.Actor
}

// Response is the stored outcome replayed verbatim on retries.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
	Location    string
}

// Record is the state of one key. Response is nil while the first request is still running.
type Record struct {
	Key         string
	RequestHash string
	Response    *Response
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Completed reports whether a response has been stored.
func (r *Record) Completed() bool {
	return r != nil && r.Response != nil
}

// Abandoned reports whether r is a reservation whose lease ran out at now.
func (r *Record) Abandoned(now time.Time) bool {
	return r != nil && r.Response == nil && !now.Before(r.CreatedAt.Add(PendingLease))
}

// Store is the idempotency contract. Implementations must make Reserve atomic:
// of two concurrent calls for one key exactly one gets created == true.
type Store interface {
	// Check returns the record for key, or nil if absent or expired.
	Check(ctx context.Context, scope Scope, key string) (*Record, error)
	// Reserve claims key for a request fingerprint. When the key is already
	// known the existing record is returned with created == false. An
	// uncompleted record older than PendingLease is reclaimed.
	Reserve(ctx context.Context, scope Scope, key, requestHash string) (rec *Record, created bool, err error)
	// Store completes a reserved key. A completed key is never overwritten.
	Store(ctx context.Context, scope Scope, key string, resp Response) error
	// Release forgets a reserved, uncompleted key so the request can be retried.
	Release(ctx context.Context, scope Scope, key string) error
}

// Fingerprint hashes the parts that identify a request: method|path|body|scope.
func Fingerprint(method, path string, body []byte, scope Scope) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(scope.String()))
	return hex.EncodeToString(h.Sum(nil))
}
