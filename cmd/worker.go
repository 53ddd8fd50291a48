package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/declog/declog/config"
	"github.com/declog/declog/extractor"
	"github.com/declog/declog/log"
	"github.com/declog/declog/metrics"
	"github.com/declog/declog/orm"
	"github.com/declog/declog/sentry_integration"
	"github.com/declog/declog/util"
)

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "worker",
		Short:        "Run the continuous extraction worker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			logger := log.NewLogger(cfg)

			metrics.Init(cfg.GetChainId())
			if err := sentry_integration.Init(cfg.GetSentryConfig(), "declog-worker"); err != nil {
				return err
			}
			defer sentry_integration.Flush()
			util.InitLimiter(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := orm.OpenDB(cfg.GetDBConfig(), logger)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			metricsServer := metrics.NewServer(cfg, logger)
			go func() {
				if err := metricsServer.Start(); err != nil {
					logger.Error("metrics server error", slog.Any("error", err))
				}
			}()
			defer shutdownMetrics(metricsServer, logger)
			metrics.StartDBStatsUpdater(db, logger)

			if err := extractor.New(cfg, logger, db).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	return cmd
}

func shutdownMetrics(server *metrics.MetricsServer, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", slog.Any("error", err))
	}
}
