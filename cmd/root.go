package cmd

import (
	"github.com/spf13/cobra"

	"github.com/declog/declog/config"
)

func SetVersion(version, commitHash string) {
	config.SetBuildInfo(version, commitHash)
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "declog",
		Short:   "console.sol log extraction for EVM chains",
		Version: config.Version,
	}

	cmd.AddCommand(extractCmd())
	cmd.AddCommand(workerCmd())
	cmd.AddCommand(apiCmd())

	return cmd
}
