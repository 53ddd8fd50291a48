package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/declog/declog/config"
	"github.com/declog/declog/console"
	"github.com/declog/declog/log"
	"github.com/declog/declog/util"
	"github.com/declog/declog/util/querier"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <tx-hash>",
		Short: "Extract console logs from a single transaction",
		Long: `Fetch the call trace of one transaction, decode every console.sol call
in it and print one line per decoded log to stdout. Warnings about unknown
selectors or malformed payloads go to the diagnostic logger on stderr.

The command exits 0 when the trace was obtained, even if it contains no
console logs at all; only a missing or unusable trace is a failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			logger := log.NewLogger(cfg)
			util.InitLimiter(cfg)

			hash, err := util.NormalizeTxHash(args[0])
			if err != nil {
				return err
			}

			q := querier.NewQuerier(cfg.GetChainConfig())
			trace, err := q.TraceTransaction(cmd.Context(), hash)
			if err != nil {
				return err
			}

			pipeline := console.NewPipeline(cfg.GetExtractorConfig().GetIncludeReverted())
			outcomes, err := pipeline.Extract(trace)
			if err != nil {
				return err
			}

			// label the traced contract when an explorer is configured
			explorer := querier.NewExplorerQuerier(cfg)
			if explorer.Enabled() && trace.To != "" {
				name, err := explorer.GetContractName(trace.To)
				if err != nil {
					logger.Warn("failed to resolve contract name",
						slog.String("address", trace.To),
						slog.Any("error", err))
				} else if name != "" {
					logger.Info("resolved contract",
						slog.String("address", trace.To),
						slog.String("name", name))
				}
			}

			for _, entry := range console.Entries(outcomes) {
				fmt.Fprintln(cmd.OutOrStdout(), entry.Message)
			}
			for _, warning := range console.Warnings(outcomes) {
				logger.Warn(warning.Reason(), slog.String("tx_hash", hash))
			}

			return nil
		},
	}

	return cmd
}
