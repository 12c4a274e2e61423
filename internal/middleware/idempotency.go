package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const idempotencyKeyPrefix = "examcore:idempotency:"

// Idempotency replays cached responses for mutating requests that carry an
// X-Correlation-ID header. Clients retrying an image upload or image-URL
// update with the same correlation id within the TTL get the first
// successful response back instead of writing a second file.
func Idempotency(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get("X-Correlation-ID")
		if correlationID == "" {
			return c.Next()
		}

		key := idempotencyKeyPrefix + correlationID
		ctx := context.Background()

		cached, err := redisClient.Get(ctx, key).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Only successful responses are worth replaying.
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			if body := c.Response().Body(); len(body) > 0 {
				buf := make([]byte, len(body))
				copy(buf, body)
				go func() {
					bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					redisClient.Set(bgCtx, key, buf, ttl)
				}()
			}
		}

		return nil
	}
}
