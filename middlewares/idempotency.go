package middlewares

import (
	"strings"

	"travel-backoffice/apperr"
	"travel-backoffice/idempotency"
	"travel-backoffice/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

type IdempotencyConfig struct {
	// Required rejects mutating requests without a key.
	Required bool
}

// Idempotency processes Idempotency-Key for mutating HTTP methods.
// Phase 1 reserves the key (or replays/refuses); phase 2 stores the rendered
// response. Responses below 500, validation errors included, are stored; a 5xx
// releases the key so the client can retry. Must run after Authenticate.
func Idempotency(store idempotency.Store, cfg IdempotencyConfig) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(IdempotencyHeader))
		if key == "" {
			if cfg.Required {
				return apperr.NewError("missing idempotency key").
					WithHint("Idempotency-Key header is required").
					Mark(apperr.ErrValidation)
			}
			return c.Next()
		}
		if len(key) > idempotency.MaxKeyLength {
			return apperr.NewError("idempotency key too long").
				WithHint("Idempotency-Key too long").
				Mark(apperr.ErrValidation)
		}

		id := CurrentIdentity(c)
		if id.TenantID == "" || id.UserID == "" {
			return unauthorized("auth context missing")
		}
		scope := idempotency.Scope{TenantID: id.TenantID, Actor: id.UserID}
		ctx := c.UserContext()

		// Deterministic request hash: method|path|body|tenant:user
		reqHash := idempotency.Fingerprint(method, c.OriginalURL(), c.Body(), scope)

		// ---- Phase 1: reserve, or answer from the existing record
		rec, created, err := store.Reserve(ctx, scope, key, reqHash)
		if err != nil {
			return apperr.Internal(err, "idempotency reserve")
		}
		if !created {
			if rec.RequestHash != reqHash {
				return apperr.NewError("idempotency key reused").
					WithHint("Idempotency-Key reuse with different request").
					Mark(apperr.ErrIdempotencyMismatch, apperr.ErrConflict)
			}
			if !rec.Completed() {
				return apperr.NewError("idempotent request in flight").
					WithHint("a request with this Idempotency-Key is still being processed").
					Mark(apperr.ErrRequestInProgress, apperr.ErrConflict)
			}
			return replay(c, rec.Response)
		}

		// A panic leaves nothing to store; free the key and let recover handle it.
		defer func() {
			if r := recover(); r != nil {
				_ = store.Release(ctx, scope, key)
				panic(r)
			}
		}()

		// We own the key: run the handler once and render any error here so the
		// stored body is exactly what the client receives.
		if herr := c.Next(); herr != nil {
			if rerr := c.App().Config().ErrorHandler(c, herr); rerr != nil {
				_ = store.Release(ctx, scope, key)
				return rerr
			}
		}

		// ---- Phase 2: store the response
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			if rerr := store.Release(ctx, scope, key); rerr != nil {
				logger.L.Warnw("idempotency release failed", "request_id", RequestID(c), "error", rerr)
			}
			return nil
		}
		body := c.Response().Body()
		blob := make([]byte, len(body))
		copy(blob, body)
		resp := idempotency.Response{
			Status:      status,
			Body:        blob,
			ContentType: string(c.Response().Header.ContentType()),
			Location:    string(c.Response().Header.Peek(fiber.HeaderLocation)),
		}
		if serr := store.Store(ctx, scope, key, resp); serr != nil {
			// best-effort: don't break the successful response
			logger.L.Warnw("idempotency store failed", "request_id", RequestID(c), "error", serr)
		}
		return nil
	}
}

func replay(c *fiber.Ctx, resp *idempotency.Response) error {
	if resp.ContentType != "" {
		c.Set(fiber.HeaderContentType, resp.ContentType)
	}
	if resp.Location != "" {
		c.Set(fiber.HeaderLocation, resp.Location)
	}
	c.Set(ReplayedHeader, "true")
	return c.Status(resp.Status).Send(resp.Body)
}
