package models

import "time"

// IdempotencyKey stores the first completed response for a key within a scope.
// Scope is "<len(tenant)>:<tenant>:<actor>" so keys never collide across tenants.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Scope          string     `json:"scope" gorm:"size:200;not null;uniqueIndex:idx_idempotency_keys_scope_key,priority:1"`
	Key            string     `json:"key" gorm:"size:128;not null;uniqueIndex:idx_idempotency_keys_scope_key,priority:2"` // header value
	RequestHash    string     `json:"request_hash" gorm:"size:64"`                                                     // sha256 of method|path|body|scope
	ResponseStatus int        `json:"response_status"`                                                                 // 0 => not completed yet
	ResponseBody   []byte     `json:"-" gorm:"type:bytea"`
	ContentType    string     `json:"content_type" gorm:"size:100"`
	Location       string     `json:"location" gorm:"size:255"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	ExpiresAt      time.Time  `json:"expires_at" gorm:"index"`
}
