package consolelog

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/api/handler/common"
	"github.com/declog/declog/types"
)

// Extract handles GET /v1/extract/{tx_hash}: trace the transaction live and
// return the console logs without touching the stored history.
func (h *ConsoleLogHandler) Extract(c *fiber.Ctx) error {
	hash, err := common.GetTxHashParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if cached, ok := h.extractCache.Get(hash); ok {
		return c.JSON(cached)
	}

	trace, err := h.querier.TraceTransaction(c.Context(), hash)
	if err != nil {
		if types.IsErrorType(err, types.ErrTypeMalformedTrace) {
			h.TrackError("malformed_trace")
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		h.TrackError("trace_unavailable")
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	outcomes, err := h.pipeline.Extract(trace)
	if err != nil {
		h.TrackError("malformed_trace")
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	// contract name is best-effort enrichment; a failed lookup never fails
	// the extraction
	var contract string
	if h.explorer.Enabled() && trace.To != "" {
		contract, err = h.explorer.GetContractName(trace.To)
		if err != nil {
			h.GetLogger().Warn("failed to resolve contract name",
				slog.String("address", trace.To),
				slog.Any("error", err))
			contract = ""
		}
	}

	res := toExtractResponse(hash, contract, outcomes)
	h.extractCache.Set(hash, res)

	return c.JSON(res)
}
