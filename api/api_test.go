package api_test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/api"
	"github.com/declog/declog/config"
	dbconfig "github.com/declog/declog/orm/config"
	"github.com/declog/declog/orm/testutil"
)

func newTestApi(t *testing.T) *api.Api {
	db, _, err := testutil.NewMockDB()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.SetDBConfig(&dbconfig.Config{BatchSize: 100})
	cfg.SetChainConfig(&config.ChainConfig{
		ChainId:     "test-chain",
		JsonRpcUrls: []string{"http://localhost:8545"},
	})
	cfg.SetExtractorConfig(&config.ExtractorConfig{IncludeReverted: true})
	cfg.SetCacheConfig(&config.CacheConfig{ContractNameCacheSize: 16})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.New(cfg, logger, db)
}

func TestHealth(t *testing.T) {
	a := newTestApi(t)

	resp, err := a.App().Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestUnknownRoute(t *testing.T) {
	a := newTestApi(t)

	resp, err := a.App().Test(httptest.NewRequest("GET", "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
