package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/api/handler/common"
	"github.com/declog/declog/api/handler/consolelog"
	"github.com/declog/declog/config"
	"github.com/declog/declog/orm"
)

func Register(router fiber.Router, db *orm.Database, cfg *config.Config, logger *slog.Logger) {
	h := common.NewHandler(db, cfg, logger)

	consolelog.NewHandler(h).Register(router)
}
