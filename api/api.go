package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/declog/declog/api/handler"
	"github.com/declog/declog/config"
	"github.com/declog/declog/orm"
)

const shutdownTimeout = 10 * time.Second

type Api struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *orm.Database
	app    *fiber.App
}

func New(cfg *config.Config, logger *slog.Logger, db *orm.Database) *Api {
	app := fiber.New(fiber.Config{
		AppName:               "declog API",
		DisableStartupMessage: true,
	})

	app.Use(metricsMiddleware())
	app.Get("/health", health)

	v1 := app.Group("/v1")
	handler.Register(v1, db, cfg, logger)

	return &Api{
		cfg:    cfg,
		logger: logger,
		db:     db,
		app:    app,
	}
}

// Start serves until the context is cancelled, then drains in-flight
// requests before returning.
func (a *Api) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := a.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			a.logger.Error("failed to shut down API server", slog.Any("error", err))
		}
	}()

	port := a.cfg.GetListenPort()
	a.logger.Info("starting API server", slog.String("port", port))

	if err := a.app.Listen(":" + port); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// App exposes the underlying fiber app for in-process testing.
func (a *Api) App() *fiber.App {
	return a.app
}

// health handles GET /health
func health(c *fiber.Ctx) error {
	return c.SendString("OK")
}
