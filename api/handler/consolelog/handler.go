package consolelog

import (
	"time"

	"github.com/gofiber/fiber/v2"

	apicache "github.com/declog/declog/api/cache"
	"github.com/declog/declog/api/handler/common"
	"github.com/declog/declog/cache"
	"github.com/declog/declog/console"
	"github.com/declog/declog/util/querier"
)

// stored rows change only at the extraction tip, a short response cache is
// enough to absorb bursts
const listCacheExpiration = 10 * time.Second

type ConsoleLogHandler struct {
	*common.Handler

	pipeline *console.Pipeline
	querier  *querier.Querier
	explorer *querier.ExplorerQuerier

	// extraction is deterministic per tx hash, so live results are cached
	extractCache *cache.TTLCache[string, ExtractResponse]
}

func NewHandler(base *common.Handler) *ConsoleLogHandler {
	cfg := base.GetConfig()
	return &ConsoleLogHandler{
		Handler:      base,
		pipeline:     console.NewPipeline(cfg.GetExtractorConfig().GetIncludeReverted()),
		querier:      querier.NewQuerier(cfg.GetChainConfig()),
		explorer:     querier.NewExplorerQuerier(cfg),
		extractCache: cache.NewTTL[string, ExtractResponse](cfg.GetCacheSize(), cfg.GetCacheTTL()),
	}
}

func (h *ConsoleLogHandler) Register(router fiber.Router) {
	logs := router.Group("/console-logs")
	logs.Get("/", apicache.New(listCacheExpiration), h.GetConsoleLogs)
	logs.Get("/by_tx/:tx_hash", h.GetConsoleLogsByTx)

	router.Get("/extract/:tx_hash", h.Extract)
}
