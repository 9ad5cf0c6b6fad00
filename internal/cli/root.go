// Package cli wires configuration, telemetry, logging and the catalog file
// into the vehicle-catalog commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	file       string
	debug      bool
}

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "vehicle-catalog",
		Short:        "Manage a pipe-delimited vehicle catalog",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default ./vehicle-catalog.yaml when present)")
	cmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "catalog file, overrides the configured one")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		shellCmd(opts),
		serveCmd(opts),
		listCmd(opts),
		addCmd(opts),
		deleteCmd(opts),
		checkCmd(opts),
	)
	return cmd
}
