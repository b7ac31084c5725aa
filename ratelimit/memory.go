package ratelimit

import (
	"context"
	"sync"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

// MemoryLimiter keeps buckets in process memory; expired buckets are evicted
// by the cache janitor.
type MemoryLimiter struct {
	mu    sync.Mutex
	cache *goCache.Cache
	now   func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		cache: goCache.New(goCache.NoExpiration, 5*time.Minute),
		now:   time.Now,
	}
}

func (l *MemoryLimiter) Track(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := &bucket{}
	if v, ok := l.cache.Get(key); ok {
		b = v.(*bucket)
	}
	now := l.now()
	res := b.advance(now, limit, window)
	l.cache.Set(key, b, window)
	return res, nil
}
