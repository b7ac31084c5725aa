package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/config"
	"travel-backoffice/controllers"
	"travel-backoffice/database"
	"travel-backoffice/exchange"
	"travel-backoffice/idempotency"
	"travel-backoffice/logger"
	"travel-backoffice/middlewares"
	"travel-backoffice/ratelimit"
	"travel-backoffice/repository"
	"travel-backoffice/routes"
	"travel-backoffice/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// janitorInterval is how often expired idempotency keys and idle buckets are removed.
const janitorInterval = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	logger.L = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database
	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalw("database connect failed", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalw("database migration failed", "error", err)
	}
	client := database.NewClient(db)

	// ---- Shared state for idempotency and per-user rate limits
	store, userLimiter := sharedState(ctx, cfg, db, log)

	// ---- Services
	params := services.Params{
		Logger:             log,
		Tx:                 client,
		QuotationRepo:      repository.NewQuotationRepository(client),
		BookingRepo:        repository.NewBookingRepository(client),
		SupplierRepo:       repository.NewSupplierRepository(client),
		InvoiceRepo:        repository.NewInvoiceRepository(client),
		PaymentRepo:        repository.NewPaymentRepository(client),
		Locker:             exchange.NewLocker(exchange.NewDBSource(repository.NewExchangeRateRepository(client))),
		SettlementCurrency: cfg.SettlementCurrency,
	}

	resolver, err := middlewares.NewJWTResolver(cfg.JWTSecret)
	if err != nil {
		log.Fatalw("auth setup failed", "error", err)
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(middlewares.RequestIDs())
	app.Use(middlewares.AccessLog(log))

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-Id",
		ExposeHeaders:    "Location, Retry-After, X-Request-Id, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Idempotent-Replayed",
	}))

	// ---- Coarse per-IP limiter in front of the per-user budgets
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.GlobalLimit.Max,
		Expiration: cfg.GlobalLimit.Window,
		LimitReached: func(c *fiber.Ctx) error {
			return apperr.NewError("global rate limit exceeded").
				WithHint("Too many requests. Slow down and retry shortly.").
				Mark(apperr.ErrRateLimited)
		},
	}))

	// ---- Routes
	routes.Register(app, routes.Deps{
		Resolver:    resolver,
		Limiter:     userLimiter,
		Idempotency: store,
		Limits:      cfg.Limits,
		Bookings:    controllers.NewBookingController(services.NewBookingService(params)),
		Invoices:    controllers.NewInvoiceController(services.NewInvoiceService(params)),
		Payments:    controllers.NewPaymentController(services.NewPaymentService(params)),
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warnw("shutdown", "error", err)
		}
	}()

	// ---- Start
	log.Infow("API server starting", "port", cfg.Port, "shared_state", cfg.SharedStateBackend)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

// sharedState picks the idempotency store and limiter backend. The database
// backend is needed as soon as more than one replica serves traffic.
func sharedState(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger) (idempotency.Store, ratelimit.Limiter) {
	if cfg.SharedStateBackend != config.BackendDatabase {
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL), ratelimit.NewMemoryLimiter()
	}

	store := idempotency.NewGormStore(db, cfg.IdempotencyTTL)
	buckets := ratelimit.NewGormLimiter(db)

	// TTL cleanup: expired keys and buckets idle for a full day.
	go func() {
		t := time.NewTicker(janitorInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n, err := store.Purge(ctx); err != nil {
					log.Warnw("idempotency purge failed", "error", err)
				} else if n > 0 {
					log.Debugw("idempotency keys purged", "count", n)
				}
				if n, err := buckets.Purge(ctx, 24*time.Hour); err != nil {
					log.Warnw("rate limit purge failed", "error", err)
				} else if n > 0 {
					log.Debugw("rate limit buckets purged", "count", n)
				}
			}
		}
	}()
	return store, buckets
}
