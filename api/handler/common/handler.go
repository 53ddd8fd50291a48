package common

import (
	"log/slog"

	"github.com/declog/declog/config"
	"github.com/declog/declog/metrics"
	"github.com/declog/declog/orm"
)

// Handler bundles the dependencies shared by every route group.
type Handler struct {
	db     *orm.Database
	cfg    *config.Config
	logger *slog.Logger
}

func NewHandler(db *orm.Database, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *Handler) GetDatabase() *orm.Database { return h.db }
func (h *Handler) GetConfig() *config.Config  { return h.cfg }
func (h *Handler) GetLogger() *slog.Logger    { return h.logger }

func (h *Handler) GetChainConfig() *config.ChainConfig {
	return h.cfg.GetChainConfig()
}

// TrackError counts a handler-level failure in the error metrics.
func (h *Handler) TrackError(errorType string) {
	metrics.TrackError("api", errorType)
}
