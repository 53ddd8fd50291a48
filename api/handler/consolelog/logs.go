package consolelog

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/declog/declog/api/handler/common"
	"github.com/declog/declog/types"
)

// GetConsoleLogs handles GET /v1/console-logs
func (h *ConsoleLogHandler) GetConsoleLogs(c *fiber.Ctx) error {
	pagination, err := common.ParsePagination(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// the global sequence doubles as the row count, which spares a
	// full-table count on every page
	var lastLog types.CollectedConsoleLog
	if err := h.GetDatabase().WithContext(c.Context()).
		Model(&types.CollectedConsoleLog{}).
		Order("sequence DESC").
		Limit(1).
		Find(&lastLog).Error; err != nil {
		h.TrackError("db_query")
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	total := lastLog.Sequence

	var logs []types.CollectedConsoleLog
	if err := pagination.Apply(
		h.GetDatabase().WithContext(c.Context()).Model(&types.CollectedConsoleLog{}),
		"sequence",
	).Find(&logs).Error; err != nil {
		h.TrackError("db_query")
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(ConsoleLogsResponse{
		Logs:       ToConsoleLogsResponse(logs),
		Pagination: pagination.ToResponse(total),
	})
}

// GetConsoleLogsByTx handles GET /v1/console-logs/by_tx/{tx_hash}
func (h *ConsoleLogHandler) GetConsoleLogsByTx(c *fiber.Ctx) error {
	hash, err := common.GetTxHashParam(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var logs []types.CollectedConsoleLog
	if err := h.GetDatabase().WithContext(c.Context()).
		Where("hash = ?", hash).
		Order("position ASC").
		Find(&logs).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.TrackError("db_query")
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	var warnings []types.CollectedExtractionWarning
	if err := h.GetDatabase().WithContext(c.Context()).
		Where("hash = ?", hash).
		Order("position ASC").
		Find(&warnings).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.TrackError("db_query")
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(TxConsoleLogsResponse{
		TxHash:   hash,
		Logs:     ToConsoleLogsResponse(logs),
		Warnings: ToWarningsResponse(warnings),
	})
}
