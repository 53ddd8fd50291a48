package common

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/util"
)

func GetParams(c *fiber.Ctx, key string) (string, error) {
	value := c.Params(key)
	if value == "" {
		return "", fmt.Errorf("missing parameter: %s", key)
	}
	return value, nil
}

// GetTxHashParam returns the tx_hash path parameter normalized to the
// canonical lowercase 0x-prefixed form.
func GetTxHashParam(c *fiber.Ctx) (string, error) {
	hash, err := GetParams(c, "tx_hash")
	if err != nil {
		return "", err
	}
	return util.NormalizeTxHash(hash)
}
