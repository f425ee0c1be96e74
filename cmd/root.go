// Package cmd implements the tahoebot command line interface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tahoebot/tahoebot/internal/config"
	"github.com/tahoebot/tahoebot/internal/log"
)

var (
	verbose bool
	jsonLog bool
)

var rootCmd = &cobra.Command{
	Use:   "tahoebot",
	Short: "tahoebot - a macOS Tahoe question answering bot",
	Long: `tahoebot answers questions about macOS Tahoe (macOS 26), grounded in
ingested documents (pgvector similarity search) and optional Google Search
results.

Commands:
  serve   start the HTTP API server
  ingest  ingest documents from the data directory
  ask     answer a single question from the terminal`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "log in JSON format")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads and validates configuration, and builds the logger the
// subcommands share.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, JSON: jsonLog})
	return cfg, logger, nil
}
