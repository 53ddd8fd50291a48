package extractor_test

import (
	"context"
	"log/slog"
	"math/big"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declog/declog/config"
	"github.com/declog/declog/extractor"
	"github.com/declog/declog/orm"
	dbconfig "github.com/declog/declog/orm/config"
	"github.com/declog/declog/orm/testutil"
	"github.com/declog/declog/types"
)

const testTxHash = "0xab5801a7d398351b8be11c439e05c5b3259aec9b5801a7d398351b8be11c4390"

func setupTestDB(t *testing.T) (*orm.Database, sqlmock.Sqlmock) {
	db, mock, err := testutil.NewMockDB()
	require.NoError(t, err)

	return db, mock
}

func setupTestConfig() *config.Config {
	cfg := &config.Config{}

	cfg.SetDBConfig(&dbconfig.Config{
		BatchSize: 100,
	})
	cfg.SetChainConfig(&config.ChainConfig{
		ChainId:     "test-chain",
		JsonRpcUrls: []string{"http://localhost:8545"},
	})
	cfg.SetExtractorConfig(&config.ExtractorConfig{
		BatchSize:       10,
		QueueSize:       10,
		IncludeReverted: true,
	})

	return cfg
}

func newTestExtractor(t *testing.T) (*extractor.Extractor, sqlmock.Sqlmock) {
	db, mock := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return extractor.New(setupTestConfig(), logger, db), mock
}

// logStringInput encodes a call to log(string) with the given text.
func logStringInput(text string) []byte {
	input := crypto.Keccak256([]byte("log(string)"))[:4]
	word := func(v int64) []byte {
		padded := make([]byte, 32)
		b := big.NewInt(v).Bytes()
		copy(padded[32-len(b):], b)
		return padded
	}
	input = append(input, word(32)...)
	input = append(input, word(int64(len(text)))...)
	payload := make([]byte, (len(text)+31)/32*32)
	copy(payload, text)
	return append(input, payload...)
}

func getTestWorkItem() *extractor.WorkItem {
	trace := types.TransactionTrace{TxHash: testTxHash}
	trace.Result = types.CallFrame{
		Type: "CALL",
		From: "0x1234567890123456789012345678901234567890",
		To:   "0x0987654321098765432109876543210987654321",
		Calls: []types.CallFrame{
			{
				Type:  "STATICCALL",
				To:    "0x000000000000000000636f6e736f6c652e6c6f67",
				Input: logStringInput("hello"),
			},
			{
				Type:  "STATICCALL",
				To:    "0x000000000000000000636f6e736f6c652e6c6f67",
				Input: []byte{0xde, 0xad, 0xbe, 0xef},
			},
		},
	}

	return &extractor.WorkItem{
		Height: 100,
		Traces: []types.TransactionTrace{trace},
	}
}

func TestCollect(t *testing.T) {
	ext, mock := newTestExtractor(t)

	// Mock the transaction start
	mock.ExpectBegin()

	// Mock getting sequence info
	mock.ExpectQuery(`SELECT \* FROM "seq_info" WHERE name = \$1 ORDER BY "seq_info"\."name" LIMIT \$2`).
		WithArgs("console_log", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "sequence"}).
			AddRow("console_log", int64(7)))

	// Mock inserting the decoded log and the unknown-selector warning
	mock.ExpectExec(`INSERT INTO "console_log"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "extraction_warning"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Mock updating sequence info and the resume height
	mock.ExpectExec(`INSERT INTO "seq_info" \("name","sequence"\) VALUES \(\$1,\$2\) ON CONFLICT \("name"\) DO UPDATE SET "sequence"="excluded"\."sequence"`).
		WithArgs("console_log", int64(8)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "seq_info" \("name","sequence"\) VALUES \(\$1,\$2\) ON CONFLICT \("name"\) DO UPDATE SET "sequence"="excluded"\."sequence"`).
		WithArgs("extractor_next_height", int64(101)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Mock transaction commit
	mock.ExpectCommit()

	err := ext.Collect(context.Background(), getTestWorkItem())
	require.NoError(t, err)

	// Check that all expectations were met
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectEmptyBlock(t *testing.T) {
	ext, mock := newTestExtractor(t)

	mock.ExpectBegin()

	mock.ExpectQuery(`SELECT \* FROM "seq_info" WHERE name = \$1 ORDER BY "seq_info"\."name" LIMIT \$2`).
		WithArgs("console_log", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "sequence"}).
			AddRow("console_log", int64(0)))

	// No console calls, so only the bookkeeping rows are written
	mock.ExpectExec(`INSERT INTO "seq_info"`).
		WithArgs("console_log", int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "seq_info"`).
		WithArgs("extractor_next_height", int64(201)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	trace := types.TransactionTrace{TxHash: testTxHash}
	trace.Result = types.CallFrame{Type: "CALL", To: "0x0987654321098765432109876543210987654321"}

	err := ext.Collect(context.Background(), &extractor.WorkItem{
		Height: 200,
		Traces: []types.TransactionTrace{trace},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectFreshSequence(t *testing.T) {
	ext, mock := newTestExtractor(t)

	mock.ExpectBegin()

	// No sequence row yet: collection starts from zero
	mock.ExpectQuery(`SELECT \* FROM "seq_info" WHERE name = \$1 ORDER BY "seq_info"\."name" LIMIT \$2`).
		WithArgs("console_log", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "sequence"}))

	mock.ExpectExec(`INSERT INTO "console_log"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "extraction_warning"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec(`INSERT INTO "seq_info"`).
		WithArgs("console_log", int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "seq_info"`).
		WithArgs("extractor_next_height", int64(101)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectCommit()

	err := ext.Collect(context.Background(), getTestWorkItem())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectInvalidHash(t *testing.T) {
	ext, mock := newTestExtractor(t)

	mock.ExpectBegin()

	mock.ExpectQuery(`SELECT \* FROM "seq_info"`).
		WithArgs("console_log", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name", "sequence"}).
			AddRow("console_log", int64(0)))

	mock.ExpectRollback()

	trace := types.TransactionTrace{TxHash: "0x1234"}
	trace.Result = types.CallFrame{Type: "CALL"}

	err := ext.Collect(context.Background(), &extractor.WorkItem{
		Height: 100,
		Traces: []types.TransactionTrace{trace},
	})
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkQueueOrder(t *testing.T) {
	wq := extractor.NewWorkQueue(3)
	ctx := context.Background()

	for h := int64(1); h <= 3; h++ {
		require.NoError(t, wq.Push(ctx, &extractor.WorkItem{Height: h}))
	}
	assert.Equal(t, 3, wq.Size())
	assert.False(t, wq.IsNotFull())

	for h := int64(1); h <= 3; h++ {
		item, err := wq.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, h, item.Height)
	}
	assert.Equal(t, 0, wq.Size())
	assert.True(t, wq.IsNotFull())
}
