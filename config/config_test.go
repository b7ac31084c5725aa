package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SETTLEMENT_CURRENCY", "usd")
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "1")
	t.Setenv("BODY_LIMIT_MB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.SettlementCurrency)
	assert.Equal(t, MinIdempotencyTTL, cfg.IdempotencyTTL)
	assert.Equal(t, 2*1024*1024, cfg.BodyLimitBytes)
	assert.Equal(t, 20, cfg.Limits.Payment.Max)
	assert.Equal(t, time.Hour, cfg.Limits.Payment.Window)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SHARED_STATE_BACKEND", "redis")

	_, err := Load()
	assert.Error(t, err)
}
