package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ecomapi/internal/config"
	"ecomapi/internal/slogutil"
	"ecomapi/internal/version"
)

var (
	configFile    string
	logLevelFlag  string
	logFormatFlag string

	appConfig    *config.Config
	appLogger    *slog.Logger
	appLogCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "ecomapi",
	Short: "ecomapi - e-commerce analytics API",
	Long: `ecomapi serves a read-only JSON API over an e-commerce dataset of customers
and orders stored in SQLite. It also imports the dataset from CSV exports and
runs named analytics reports from the command line.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogCloser != nil {
			_ = appLogCloser.Close()
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate("ecomapi version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (default: ./ecomapi.{json,toml,yaml} if present)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (overrides logging.level)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: human or json (overrides logging.format)")
}

// setup loads the configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, closer, err := slogutil.FromConfig(cfg.Logging, os.Stderr, logLevelFlag)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	appConfig = cfg
	appLogger = logger
	appLogCloser = closer
	return nil
}
