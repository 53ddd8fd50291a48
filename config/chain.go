package config

import (
	"fmt"
	"net/url"

	"github.com/declog/declog/types"
)

type ChainConfig struct {
	ChainId        string
	JsonRpcUrls    []string
	ExplorerUrl    string
	ExplorerApiKey string
	Environment    string
}

func (cc ChainConfig) Validate() error {
	if len(cc.ChainId) == 0 {
		return types.NewValidationError("CHAIN_ID", "required field is missing")
	}

	if len(cc.JsonRpcUrls) == 0 {
		return types.NewValidationError("JSON_RPC_URLS", "required field is missing")
	}
	for _, raw := range cc.JsonRpcUrls {
		u, err := url.Parse(raw)
		if err != nil {
			return types.NewInvalidValueError("JSON_RPC_URLS", raw, fmt.Sprintf("invalid URL: %v", err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return types.NewInvalidValueError("JSON_RPC_URLS", raw, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
		}
	}

	// Explorer access is optional; only validate when configured.
	if len(cc.ExplorerUrl) > 0 {
		u, err := url.Parse(cc.ExplorerUrl)
		if err != nil {
			return types.NewInvalidValueError("EXPLORER_URL", cc.ExplorerUrl, fmt.Sprintf("invalid URL: %v", err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return types.NewInvalidValueError("EXPLORER_URL", cc.ExplorerUrl, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
		}
	}

	return nil
}
