// Package cli provides the pagetiming command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/perfbreak/go-pagetiming/pkg/config"
	"github.com/perfbreak/go-pagetiming/pkg/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pagetiming",
	Short: "pagetiming renders page-load phase breakdowns",
	Long: `pagetiming captures navigation-style timing milestones and renders a
breakdown of the network, server and browser phases of a page load.

Timing can come from a live probe of a URL or from any injected source;
output is an aligned text table, an HTML overlay block, or raw JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// loadConfig resolves config for a command invocation and installs the
// default logger at the configured level.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	logging.Init(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
