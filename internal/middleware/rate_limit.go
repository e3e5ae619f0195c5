package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/sao-registrar-api/internal/utils"
)

// RateLimit caps requests per caller on one route family. Callers are keyed
// by token email when claims are attached and by client IP otherwise, so
// anonymous log ingest is still bounded.
func RateLimit(name string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if claims := ClaimsFromCtx(c); claims != nil && claims.Email != "" {
				return name + ":user:" + claims.Email
			}
			return name + ":ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, retryAfter(window))
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		},
	})
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
