package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/testerpub/internal/config"
)

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "testerpub",
		Short: "Publish tester progress events to per-session broker channels",
		Long: `testerpub builds JSON envelopes for tester events and publishes them on
Redis pub/sub channels named <base>-<session>, so that every subscriber of a
test session sees its progress as it happens.`,
		SilenceUsage: true,
	}

	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewPublishCmd(cfg))
	root.AddCommand(NewLogCmd(cfg))
	root.AddCommand(NewWatchCmd(cfg))
	root.AddCommand(NewVersionCmd())
	return root
}

// Execute runs the root command.
func Execute(cfg *config.AppConfig) {
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
