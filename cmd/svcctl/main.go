// Package main implements svcctl, a CLI for the svclocd control API.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	server string
	json   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "svcctl",
		Short: "Inspect and control services hosted by svclocd",
		Long: `svcctl talks to the svclocd HTTP control API.

Examples:
  # List services in dispatch order
  svcctl list

  # Pause and resume a service
  svcctl pause heartbeat
  svcctl resume heartbeat

  # Use a different server and print JSON
  svcctl status uptime --server http://10.0.0.5:9191 --json`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", "http://127.0.0.1:9191", "svclocd server URL")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Output results as JSON")

	root.AddCommand(
		newListCmd(opts),
		newStatusCmd(opts),
		newHealthCmd(opts),
		newLifecycleCmd(opts, "start", "Start a registered service"),
		newLifecycleCmd(opts, "stop", "Stop a service"),
		newLifecycleCmd(opts, "pause", "Pause a running service"),
		newLifecycleCmd(opts, "resume", "Resume a paused service"),
	)
	return root
}
