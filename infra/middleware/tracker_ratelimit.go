package middleware

import (
	"time"

	"tracker_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

// RateLimit allows max requests per window for each caller. Callers are keyed
// by authenticated user when JWTAuth ran earlier in the chain, else by IP.
func RateLimit(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		Max:          max,
		Expiration:   window,
		KeyGenerator: rateLimitKey,
		LimitReached: func(c *fiber.Ctx) error {
			return apperr.ErrRateLimited
		},
	})
}

func rateLimitKey(c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(uuid.UUID); ok {
		return "user:" + userID.String()
	}
	return "ip:" + c.IP()
}
