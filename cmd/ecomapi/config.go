package main

import (
	"github.com/spf13/cobra"

	"ecomapi/internal/output"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect ecomapi configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and ECOMAPI_*
environment variables have been applied.

Examples:
  ecomapi config show
  ecomapi config show --format toml > ecomapi.toml`,
	RunE: runConfigShow,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (json, toml, yaml)")

	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(configFormat, output.FormatJSON, output.FormatTOML, output.FormatYAML)
	if err != nil {
		return err
	}
	return output.Render(cmd.OutOrStdout(), format, appConfig)
}
