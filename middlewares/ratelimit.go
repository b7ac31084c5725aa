package middlewares

import (
	"math"
	"strconv"
	"time"

	"travel-backoffice/apperr"
	"travel-backoffice/config"
	"travel-backoffice/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// Actions name independent per-user budgets. The suffix becomes part of the limiter key.
const (
	ActionRead    = ""
	ActionCreate  = "_create"
	ActionUpdate  = "_update"
	ActionDelete  = "_delete"
	ActionPayment = "_payment"
)

// RateLimitKey is "user_<id><action>".
func RateLimitKey(userID, action string) string {
	return "user_" + userID + action
}

// RateLimit counts the request against the caller's budget for action. Must run after Authenticate.
func RateLimit(limiter ratelimit.Limiter, action string, limit config.Limit) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := CurrentIdentity(c)
		if id.UserID == "" {
			return unauthorized("auth context missing")
		}

		res, err := limiter.Track(c.UserContext(), RateLimitKey(id.UserID, action), limit.Max, limit.Window)
		if err != nil {
			return apperr.Internal(err, "rate limiter")
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))

		if !res.Allowed {
			wait := res.RetryAfter(time.Now())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			minutes := int(math.Ceil(wait.Minutes()))
			return apperr.NewErrorf("rate limit exceeded for %s", RateLimitKey(id.UserID, action)).
				WithHintf("Rate limit exceeded. Try again in %d minutes.", minutes).
				Mark(apperr.ErrRateLimited)
		}
		return c.Next()
	}
}
