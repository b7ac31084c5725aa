package models

import "time"

// RateLimitBucket is the shared-store form of one fixed window counter.
type RateLimitBucket struct {
	Key         string     `gorm:"primaryKey;size:200"`
	WindowStart time.Time  `gorm:"not null"`
	Count       int        `gorm:"not null"`
	LockedUntil *time.Time
	UpdatedAt   time.Time
}
