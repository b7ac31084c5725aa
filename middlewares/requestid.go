package middlewares

import (
	"time"

	"travel-backoffice/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-Id"
	LocalRequestID  = "requestID"
)

// RequestIDs echoes the caller's X-Request-Id or mints a UUID, and stores it in Locals.
func RequestIDs() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: LocalRequestID,
	})
}

// RequestID returns the id assigned by RequestIDs, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalRequestID).(string)
	return id
}

// AccessLog writes one structured line per request.
func AccessLog(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one the client gets.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}
		id := CurrentIdentity(c)
		log.Infow("request",
			"request_id", RequestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency_ms", time.Since(start).Milliseconds(),
			"tenant_id", id.TenantID,
			"user_id", id.UserID,
		)
		return nil
	}
}
