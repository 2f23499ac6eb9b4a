package main

import (
	"fmt"
	"os"

	"github.com/rpggio/spacetracker/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "spacetracker",
	Short: "Track time spent in live audio Spaces and grant rewards for it",
	Long: `spacetracker has two halves.

The backend (serve) records submitted Space sessions and runs the reward
ledger behind the extension REST API and an MCP endpoint.

The agent (track) watches the page for an open Space, turns observations into
sessions, keeps the local history and submits every finished session.

Configuration comes from the YAML file in SPACETRACKER_CONFIG_PATH and
SPACETRACKER_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, mcpCmd, trackCmd, statusCmd, claimCmd, keysCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}
