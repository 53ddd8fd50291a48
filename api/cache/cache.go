package cache

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
)

// New returns a response-cache middleware with the given expiration. The
// cache key includes the raw query string, so the same path with different
// pagination parameters caches separately. Reordered query parameters get
// distinct keys; that waste is accepted to avoid parsing and sorting the
// query on every request.
func New(expiration time.Duration) fiber.Handler {
	if expiration <= 0 {
		expiration = time.Second
	}

	return cache.New(cache.Config{
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			queryString := string(c.Request().URI().QueryString())
			if queryString != "" {
				return c.Method() + ":" + c.Path() + "?" + queryString
			}
			return c.Method() + ":" + c.Path()
		},
	})
}
