package util

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTxHash(t *testing.T) {
	mixed := "0xAB5801a7D398351b8bE11C439e05C5B3259aeC9B5801a7D398351b8bE11C4390"

	normalized, err := NormalizeTxHash(mixed)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(mixed), normalized)

	// prefix is added when missing
	normalized, err = NormalizeTxHash(strings.TrimPrefix(strings.ToLower(mixed), "0x"))
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(mixed), normalized)

	_, err = NormalizeTxHash("0x1234")
	assert.Error(t, err)

	_, err = NormalizeTxHash("0x" + strings.Repeat("zz", 32))
	assert.Error(t, err)
}

func TestCalculateBackoffDelay(t *testing.T) {
	assert.Equal(t, baseBackoffDelay, BackoffDelay(0))

	for attempt := 1; attempt <= 10; attempt++ {
		delay := BackoffDelay(attempt)
		assert.GreaterOrEqual(t, delay, baseBackoffDelay)
		// jitter can push the cap by at most jitterFactor
		assert.LessOrEqual(t, delay, maxBackoffDelay+time.Duration(float64(maxBackoffDelay)*jitterFactor))
	}
}
