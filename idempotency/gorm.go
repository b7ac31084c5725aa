package idempotency

import (
	"context"
	"fmt"
	"time"

	"travel-backoffice/database"
	"travel-backoffice/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists keys in idempotency_keys so every instance sees them.
// Reserve relies on the (scope, key) unique index for atomicity.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *GormStore) find(ctx context.Context, scope Scope, key string) (*models.IdempotencyKey, error) {
	var row models.IdempotencyKey
	err := s.db.WithContext(ctx).
		Where("scope = ? AND key = ?", scope.String(), key).
		Take(&row).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	return &row, nil
}

func toRecord(row *models.IdempotencyKey) *Record {
	rec := &Record{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		CreatedAt:   row.CreatedAt,
		ExpiresAt:   row.ExpiresAt,
	}
	if row.ResponseStatus != 0 {
		rec.Response = &Response{
			Status:      row.ResponseStatus,
			Body:        row.ResponseBody,
			ContentType: row.ContentType,
			Location:    row.Location,
		}
	}
	return rec
}

func (s *GormStore) Check(ctx context.Context, scope Scope, key string) (*Record, error) {
	row, err := s.find(ctx, scope, key)
	if err != nil || row == nil {
		return nil, err
	}
	if s.now().After(row.ExpiresAt) {
		return nil, nil
	}
	return toRecord(row), nil
}

func (s *GormStore) Reserve(ctx context.Context, scope Scope, key, requestHash string) (*Record, bool, error) {
	now := s.now()

	// Clear an expired row or an abandoned reservation so the insert below can win.
	err := s.db.WithContext(ctx).
		Where("scope = ? AND key = ?", scope.String(), key).
		Where(s.db.Where("expires_at < ?", now).
			Or("response_status = 0 AND created_at <= ?", now.Add(-PendingLease))).
		Delete(&models.IdempotencyKey{}).Error
	if err != nil {
		return nil, false, fmt.Errorf("idempotency purge: %w", err)
	}

	row := models.IdempotencyKey{
		Scope:       scope.String(),
		Key:         key,
		RequestHash: requestHash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return nil, false, fmt.Errorf("idempotency reserve: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return toRecord(&row), true, nil
	}

	existing, err := s.find(ctx, scope, key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// Released between our insert and read; the caller may retry.
		return nil, false, fmt.Errorf("idempotency reserve: key %q vanished", key)
	}
	return toRecord(existing), false, nil
}

func (s *GormStore) Store(ctx context.Context, scope Scope, key string, resp Response) error {
	now := s.now()
	res := s.db.WithContext(ctx).
		Model(&models.IdempotencyKey{}).
		Where("scope = ? AND key = ? AND response_status = 0", scope.String(), key).
		Updates(map[string]any{
			"response_status": resp.Status,
			"response_body":   resp.Body,
			"content_type":    resp.ContentType,
			"location":        resp.Location,
			"completed_at":    &now,
		})
	if res.Error != nil {
		return fmt.Errorf("idempotency store: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		row, err := s.find(ctx, scope, key)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotReserved
		}
	}
	return nil
}

func (s *GormStore) Release(ctx context.Context, scope Scope, key string) error {
	err := s.db.WithContext(ctx).
		Where("scope = ? AND key = ? AND response_status = 0", scope.String(), key).
		Delete(&models.IdempotencyKey{}).Error
	if err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// Purge deletes expired keys. Returns the number removed.
func (s *GormStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.IdempotencyKey{})
	if res.Error != nil {
		return 0, fmt.Errorf("idempotency purge: %w", res.Error)
	}
	return res.RowsAffected, nil
}
