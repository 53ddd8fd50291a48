package cache_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/api/cache"
)

func TestCacheHit(t *testing.T) {
	app := fiber.New()
	app.Get("/test", cache.New(time.Minute), func(c *fiber.Ctx) error {
		return c.SendString(time.Now().String())
	})

	req1, err := http.NewRequest("GET", "/test", nil)
	require.NoError(t, err)
	resp1, err := app.Test(req1, -1)
	require.NoError(t, err)
	require.Equal(t, "miss", resp1.Header.Get("X-Cache"))
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()

	req2, err := http.NewRequest("GET", "/test", nil)
	require.NoError(t, err)
	resp2, err := app.Test(req2, -1)
	require.NoError(t, err)
	require.Equal(t, "hit", resp2.Header.Get("X-Cache"))
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	require.Equal(t, body1, body2)
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/test", cache.New(time.Minute), func(c *fiber.Ctx) error {
		return c.SendString(c.Query("page"))
	})

	req1, _ := http.NewRequest("GET", "/test?page=1", nil)
	resp1, err := app.Test(req1, -1)
	require.NoError(t, err)
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()
	require.Equal(t, "1", string(body1))

	// a different query string must not serve the cached body
	req2, _ := http.NewRequest("GET", "/test?page=2", nil)
	resp2, err := app.Test(req2, -1)
	require.NoError(t, err)
	require.Equal(t, "miss", resp2.Header.Get("X-Cache"))
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	require.Equal(t, "2", string(body2))
}
