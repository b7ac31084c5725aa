package ratelimit

import (
	"context"
	"fmt"
	"time"

	"travel-backoffice/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLimiter stores buckets in rate_limit_buckets so all instances share one
// counter per key. Each Track serializes on the bucket row.
type GormLimiter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormLimiter(db *gorm.DB) *GormLimiter {
	return &GormLimiter{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (l *GormLimiter) Track(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	var res Result
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.now()
		seed := models.RateLimitBucket{Key: key, WindowStart: now, Count: 0, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("seed bucket: %w", err)
		}

		var row models.RateLimitBucket
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", key).
			Take(&row).Error; err != nil {
			return fmt.Errorf("lock bucket: %w", err)
		}

		b := bucket{WindowStart: row.WindowStart, Count: row.Count}
		if row.LockedUntil != nil {
			b.LockedUntil = *row.LockedUntil
		}
		res = b.advance(now, limit, window)

		var locked *time.Time
		if !b.LockedUntil.IsZero() {
			locked = &b.LockedUntil
		}
		return tx.Model(&models.RateLimitBucket{}).
			Where("key = ?", key).
			Updates(map[string]any{
				"window_start": b.WindowStart,
				"count":        b.Count,
				"locked_until": locked,
				"updated_at":   now,
			}).Error
	})
	if err != nil {
		return Result{}, fmt.Errorf("track %s: %w", key, err)
	}
	return res, nil
}

// Purge removes buckets idle for longer than maxAge.
func (l *GormLimiter) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("updated_at < ?", l.now().Add(-maxAge)).
		Delete(&models.RateLimitBucket{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge buckets: %w", res.Error)
	}
	return res.RowsAffected, nil
}
