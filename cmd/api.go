package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/declog/declog/api"
	"github.com/declog/declog/config"
	"github.com/declog/declog/log"
	"github.com/declog/declog/metrics"
	"github.com/declog/declog/orm"
	"github.com/declog/declog/sentry_integration"
	"github.com/declog/declog/util"
)

func apiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "api",
		Short:        "Serve the console log HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			logger := log.NewLogger(cfg)

			metrics.Init(cfg.GetChainId())
			if err := sentry_integration.Init(cfg.GetSentryConfig(), "declog-api"); err != nil {
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

			return api.New(cfg, logger, db).Start(ctx)
		},
	}

	return cmd
}
