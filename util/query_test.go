package util

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/config"
)

func initTestLimiter(t *testing.T) {
	t.Helper()
	cfg := &config.Config{}
	cfg.SetMaxConcurrentRequests(4)
	InitLimiter(cfg)
}

func TestPost(t *testing.T) {
	initTestLimiter(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "eth_blockNumber", req["method"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	defer srv.Close()

	payload := map[string]any{"jsonrpc": "2.0", "id": 1, "method": "eth_blockNumber"}
	body, err := Post(fiber.AcquireClient(), time.Millisecond, time.Second, srv.URL, "", payload, nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"result":"0x10"`)
}

func TestPostRetriesTransientFailure(t *testing.T) {
	initTestLimiter(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := Post(fiber.AcquireClient(), time.Millisecond, time.Second, srv.URL, "", map[string]int{"a": 1}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostExhaustsRetries(t *testing.T) {
	initTestLimiter(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := Post(fiber.AcquireClient(), time.Millisecond, 500*time.Millisecond, srv.URL, "", map[string]int{"a": 1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
