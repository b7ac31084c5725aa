package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Shared state backends for the idempotency store and the rate limiter.
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
)

// Config is the full runtime configuration, read from the environment (and .env if present).
type Config struct {
	Port               string `validate:"required"`
	LogLevel           string `validate:"oneof=debug info warn error"`
	BodyLimitBytes     int    `validate:"gt=0"`
	AllowedOrigins     string
	JWTSecret          string
	SettlementCurrency string `validate:"required,len=3,alpha"`
	SharedStateBackend string `validate:"oneof=memory database"`
	IdempotencyTTL     time.Duration

	DB          DBConfig
	GlobalLimit GlobalLimitConfig
	Limits      ActionLimits
}

type DBConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"gt=0"`
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string consumed by gorm.io/driver/postgres.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// GlobalLimitConfig drives the coarse per-IP fiber limiter.
type GlobalLimitConfig struct {
	Max    int `validate:"gt=0"`
	Window time.Duration
}

// Limit is a per-actor fixed window budget.
type Limit struct {
	Max    int `validate:"gt=0"`
	Window time.Duration
}

type ActionLimits struct {
	Read    Limit
	Create  Limit
	Update  Limit
	Payment Limit
}

// MinIdempotencyTTL is the shortest key lifetime accepted; clients retry for hours, not minutes.
const MinIdempotencyTTL = 3 * time.Hour

var validate = validator.New()

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if strings.TrimSpace(secret) == "" {
		secret = os.Getenv("JWT_SECRET")
	}

	cfg := &Config{
		Port:               envString("PORT", "8080"),
		LogLevel:           strings.ToLower(envString("LOG_LEVEL", "info")),
		BodyLimitBytes:     bodyLimit,
		AllowedOrigins:     envString("ALLOWED_ORIGINS", "*"),
		JWTSecret:          strings.TrimSpace(secret),
		SettlementCurrency: strings.ToUpper(envString("SETTLEMENT_CURRENCY", "EUR")),
		SharedStateBackend: strings.ToLower(envString("SHARED_STATE_BACKEND", BackendMemory)),
		IdempotencyTTL:     time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", 24)) * time.Hour,
		DB: DBConfig{
			Host:     envString("DB_HOST", "db"),
			Port:     envInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		},
		GlobalLimit: GlobalLimitConfig{
			Max:    envInt("RATE_LIMIT_MAX", 60),
			Window: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		},
		Limits: ActionLimits{
			Read:    Limit{Max: envInt("RATE_LIMIT_READ_PER_HOUR", 100), Window: time.Hour},
			Create:  Limit{Max: envInt("RATE_LIMIT_CREATE_PER_HOUR", 50), Window: time.Hour},
			Update:  Limit{Max: envInt("RATE_LIMIT_UPDATE_PER_HOUR", 50), Window: time.Hour},
			Payment: Limit{Max: envInt("RATE_LIMIT_PAYMENT_PER_HOUR", 20), Window: time.Hour},
		},
	}

	if cfg.IdempotencyTTL < MinIdempotencyTTL {
		cfg.IdempotencyTTL = MinIdempotencyTTL
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
