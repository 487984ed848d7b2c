// PowerStrip Core - control daemon for a multi-outlet smart power strip.
//
// The daemon keeps the relays, the in-memory characteristic values, the
// state seen by remote controllers and the persisted state in step. It
// runs on a Linux board driving the relays through the GPIO character
// device and talks to controllers over MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/gray-logic-powerstrip/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C and SIGTERM so the daemon can flush state.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The root command runs the daemon.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "powerstrip",
		Short:         "Power strip control daemon",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(),
		"configuration file (env POWERSTRIP_CONFIG)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	})
	root.AddCommand(inspectCmd(&configPath))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "powerstrip %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	})

	return root
}

// getConfigPath returns the configuration file path.
// Uses POWERSTRIP_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("POWERSTRIP_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
