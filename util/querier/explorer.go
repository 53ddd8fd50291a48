package querier

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/cache"
	"github.com/declog/declog/config"
	"github.com/declog/declog/types"
	"github.com/declog/declog/util"
)

const explorerApiPath = "/api"

// ExplorerQuerier resolves contract metadata from an Etherscan-compatible
// explorer API. Results are cached aggressively since verified contract names
// change rarely.
type ExplorerQuerier struct {
	baseUrl string
	apiKey  string
	client  *fiber.Client

	coolingDuration time.Duration
	timeout         time.Duration

	nameCache *cache.Cache[string, string]
}

// explorerEnvelope is the Etherscan-style response wrapper.
type explorerEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type contractSource struct {
	ContractName string `json:"ContractName"`
}

func NewExplorerQuerier(cfg *config.Config) *ExplorerQuerier {
	chainCfg := cfg.GetChainConfig()
	return &ExplorerQuerier{
		baseUrl:         strings.TrimRight(chainCfg.ExplorerUrl, "/"),
		apiKey:          chainCfg.ExplorerApiKey,
		client:          fiber.AcquireClient(),
		coolingDuration: cfg.GetCoolingDuration(),
		timeout:         cfg.GetQueryTimeout(),
		nameCache:       cache.New[string, string](cfg.GetCacheConfig().ContractNameCacheSize),
	}
}

// Enabled reports whether an explorer endpoint is configured. Metadata is an
// optional enrichment; callers must degrade gracefully when it is absent.
func (e *ExplorerQuerier) Enabled() bool {
	return e.baseUrl != ""
}

// GetContractName returns the verified contract name for the address, or an
// empty string when the contract is unverified or unknown to the explorer.
func (e *ExplorerQuerier) GetContractName(contractAddr string) (string, error) {
	if !e.Enabled() {
		return "", nil
	}

	key := strings.ToLower(contractAddr)
	if name, ok := e.nameCache.Get(key); ok {
		return name, nil
	}

	name, err := e.fetchContractName(key)
	if err != nil {
		return "", err
	}

	// unverified contracts are cached too, so we do not hammer the explorer
	// for addresses that will never resolve
	e.nameCache.Set(key, name)
	return name, nil
}

func (e *ExplorerQuerier) fetchContractName(contractAddr string) (string, error) {
	params := map[string]string{
		"module":  "contract",
		"action":  "getsourcecode",
		"address": contractAddr,
	}
	if e.apiKey != "" {
		params["apikey"] = e.apiKey
	}

	body, err := util.Get(e.client, e.coolingDuration, e.timeout, e.baseUrl, explorerApiPath, params, nil)
	if err != nil {
		return "", types.NewNetworkError(e.baseUrl, err)
	}

	return parseContractName(body)
}

func parseContractName(body []byte) (string, error) {
	var envelope explorerEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", err
	}
	// status "0" with a NOTOK message covers both unknown addresses and
	// unverified sources; neither is an error worth surfacing
	if envelope.Status != "1" {
		return "", nil
	}

	var sources []contractSource
	if err := json.Unmarshal(envelope.Result, &sources); err != nil {
		return "", err
	}
	if len(sources) == 0 {
		return "", nil
	}
	return sources[0].ContractName, nil
}
