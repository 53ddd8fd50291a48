package util

import (
	"encoding/hex"
	"strings"

	"github.com/declog/declog/types"
)

// NormalizeTxHash lowercases a transaction hash and ensures the 0x prefix,
// so hashes compare and store consistently regardless of caller casing.
func NormalizeTxHash(hash string) (string, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(hash), "0x")
	if len(trimmed) != 64 {
		return "", types.NewInvalidValueError("tx_hash", hash, "expected 32-byte hex hash")
	}
	if _, err := hex.DecodeString(trimmed); err != nil {
		return "", types.NewInvalidValueError("tx_hash", hash, "invalid hex")
	}
	return "0x" + trimmed, nil
}
