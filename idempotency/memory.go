package idempotency

import (
	"context"
	"sync"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps keys in process memory. Correct for a single instance only;
// multi-instance deployments use GormStore.
type MemoryStore struct {
	mu    sync.Mutex
	cache *goCache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: goCache.New(ttl, 10*time.Minute),
		ttl:   ttl,
		now:   time.Now,
	}
}

func cacheKey(scope Scope, key string) string {
	return scope.String() + "|" + key
}

func (s *MemoryStore) Check(_ context.Context, scope Scope, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(cacheKey(scope, key)), nil
}

func (s *MemoryStore) get(k string) *Record {
	v, ok := s.cache.Get(k)
	if !ok {
		return nil
	}
	rec := *v.(*Record)
	if s.now().After(rec.ExpiresAt) {
		return nil
	}
	return &rec
}

func (s *MemoryStore) Reserve(_ context.Context, scope Scope, key, requestHash string) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := cacheKey(scope, key)
	now := s.now()
	if existing := s.get(k); existing != nil && !existing.Abandoned(now) {
		return existing, false, nil
	}
	rec := &Record{Key: key, RequestHash: requestHash, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	s.cache.Set(k, rec, s.ttl)
	out := *rec
	return &out, true, nil
}

func (s *MemoryStore) Store(_ context.Context, scope Scope, key string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := cacheKey(scope, key)
	rec := s.get(k)
	if rec == nil {
		return ErrNotReserved
	}
	if rec.Completed() {
		return nil
	}
	body := make([]byte, len(resp.Body))
	copy(body, resp.Body)
	resp.Body = body
	rec.Response = &resp
	s.cache.Set(k, rec, rec.ExpiresAt.Sub(s.now()))
	return nil
}

func (s *MemoryStore) Release(_ context.Context, scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := cacheKey(scope, key)
	if rec := s.get(k); rec != nil && !rec.Completed() {
		s.cache.Delete(k)
	}
	return nil
}
