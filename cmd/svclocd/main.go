// Svclocd hosts a service registry and drives it from a fixed-rate loop.
//
// It discovers the built-in services, starts the ones configured to
// auto-start, ticks them at loop.tick_interval and exposes an HTTP control
// API for inspecting and driving their lifecycle.
//
// Usage:
//
//	# Start with ~/.config/svclocator/config.yaml
//	svclocd
//
//	# Explicit config file, env override
//	SVCLOC_SERVER_PORT=9292 svclocd --config /etc/svclocator/config.toml
//
//	svclocd version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "svclocd",
		Short: "Service locator and lifecycle daemon",
		Long: `svclocd hosts a service registry, starts the auto-start services
and updates every running service once per tick until it receives SIGINT or
SIGTERM. Services are controlled at runtime through the HTTP API or svcctl.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/svclocator/config.yaml)")
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd)
		},
	}
}

// printVersion prints version information
func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "svclocd by Fyrsmith Labs\n")
	fmt.Fprintf(out, "Version:    %s\n", version)
	fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(out, "Build Date: %s\n", buildDate)
}

// ignoreCanceled drops the error a clean shutdown produces.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
