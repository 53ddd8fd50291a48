package consolelog_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/api/handler/common"
	"github.com/declog/declog/api/handler/consolelog"
	"github.com/declog/declog/config"
	dbconfig "github.com/declog/declog/orm/config"
	"github.com/declog/declog/orm/testutil"
)

const testTxHash = "0xab5801a7d398351b8be11c439e05c5b3259aec9b5801a7d398351b8be11c4390"

func setupTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	db, mock, err := testutil.NewMockDB()
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

	app := fiber.New()
	v1 := app.Group("/v1")
	consolelog.NewHandler(common.NewHandler(db, cfg, logger)).Register(v1)

	return app, mock
}

func consoleLogColumns() []string {
	return []string{"height", "hash", "position", "sequence", "signature", "values", "message", "reverted"}
}

func TestGetConsoleLogs(t *testing.T) {
	app, mock := setupTestApp(t)

	// last-sequence probe
	mock.ExpectQuery(`SELECT \* FROM "console_log"`).
		WillReturnRows(sqlmock.NewRows(consoleLogColumns()).
			AddRow(int64(100), testTxHash, int64(2), int64(2), "log(string,uint256)", "{minted,3}", "minted 3", false))

	// page query
	mock.ExpectQuery(`SELECT \* FROM "console_log"`).
		WillReturnRows(sqlmock.NewRows(consoleLogColumns()).
			AddRow(int64(100), testTxHash, int64(2), int64(2), "log(string,uint256)", "{minted,3}", "minted 3", false).
			AddRow(int64(99), testTxHash, int64(5), int64(1), "log(bool)", "{true}", "true", true))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/console-logs", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body consolelog.ConsoleLogsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Logs, 2)
	assert.Equal(t, "minted 3", body.Logs[0].Message)
	assert.Equal(t, []string{"minted", "3"}, body.Logs[0].Values)
	assert.True(t, body.Logs[1].Reverted)
	assert.Equal(t, "2", body.Pagination.Total)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConsoleLogsBadPagination(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/console-logs?pagination.limit=0", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetConsoleLogsByTx(t *testing.T) {
	app, mock := setupTestApp(t)

	mock.ExpectQuery(`SELECT \* FROM "console_log" WHERE hash = \$1`).
		WithArgs(testTxHash).
		WillReturnRows(sqlmock.NewRows(consoleLogColumns()).
			AddRow(int64(100), testTxHash, int64(2), int64(2), "log(string)", "{hello}", "hello", false))

	mock.ExpectQuery(`SELECT \* FROM "extraction_warning" WHERE hash = \$1`).
		WithArgs(testTxHash).
		WillReturnRows(sqlmock.NewRows([]string{"height", "hash", "position", "reason"}).
			AddRow(int64(100), testTxHash, int64(7), "selector 0xdeadbeef at position 7: type not found"))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/console-logs/by_tx/"+testTxHash, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body consolelog.TxConsoleLogsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testTxHash, body.TxHash)
	require.Len(t, body.Logs, 1)
	assert.Equal(t, "hello", body.Logs[0].Message)
	require.Len(t, body.Warnings, 1)
	assert.Equal(t, int64(7), body.Warnings[0].Position)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConsoleLogsByTxUppercaseHash(t *testing.T) {
	app, mock := setupTestApp(t)

	// the stored hash is lowercase regardless of how the client spells it
	mock.ExpectQuery(`SELECT \* FROM "console_log" WHERE hash = \$1`).
		WithArgs(testTxHash).
		WillReturnRows(sqlmock.NewRows(consoleLogColumns()))
	mock.ExpectQuery(`SELECT \* FROM "extraction_warning" WHERE hash = \$1`).
		WithArgs(testTxHash).
		WillReturnRows(sqlmock.NewRows([]string{"height", "hash", "position", "reason"}))

	upper := "0xAB5801A7D398351B8BE11C439E05C5B3259AEC9B5801A7D398351B8BE11C4390"
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/console-logs/by_tx/"+upper, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConsoleLogsByTxInvalidHash(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/console-logs/by_tx/0x1234", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExtractInvalidHash(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/extract/not-a-hash", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
