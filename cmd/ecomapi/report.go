package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecomapi/internal/output"
	"ecomapi/internal/query"
	"ecomapi/internal/reports"
	"ecomapi/internal/storage"
)

var (
	reportFormat string
	reportList   bool
	reportDB     string
)

var reportCmd = &cobra.Command{
	Use:   "report [name...]",
	Short: "Run analytics reports",
	Long: `Run named analytics reports against the database. With no names every
report in the catalog runs. The catalog can be extended with reports.file.

Examples:
  ecomapi report --list
  ecomapi report top-countries traffic-sources
  ecomapi report --format json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format (human, json, yaml)")
	reportCmd.Flags().BoolVar(&reportList, "list", false, "List available reports")
	reportCmd.Flags().StringVar(&reportDB, "db", "", "SQLite database file (overrides database.path)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = reportDB
	}

	format, err := output.ParseFormat(reportFormat, output.FormatHuman, output.FormatJSON, output.FormatYAML)
	if err != nil {
		return err
	}
	catalog, err := reports.Load(cfg.Reports.File)
	if err != nil {
		return err
	}

	if reportList {
		return listReports(cmd, catalog, format)
	}

	db, err := storage.OpenReadOnly(cfg.Database.Path, appLogger, cfg.Database.BusyTimeoutMs)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Check(cmd.Context()); err != nil {
		return err
	}

	service, err := query.NewService(db, appLogger, query.Options{Reports: catalog})
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = catalog.Names()
	}

	results := make([]*reports.Result, 0, len(names))
	for _, name := range names {
		res, err := service.RunReport(cmd.Context(), name)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	if format != output.FormatHuman {
		return output.Render(cmd.OutOrStdout(), format, results)
	}
	w := cmd.OutOrStdout()
	for _, res := range results {
		printResult(cmd, res)
	}
	fmt.Fprintln(w)
	return nil
}

func printResult(cmd *cobra.Command, res *reports.Result) {
	w := cmd.OutOrStdout()
	output.Section(w, res.Title)
	if len(res.Rows) == 0 {
		output.Muted(w, "No results found.")
		return
	}
	fmt.Fprintln(w, output.Table(res.Columns, res.Rows))
	output.Muted(w, "Total results: %d", len(res.Rows))
}

func listReports(cmd *cobra.Command, catalog *reports.Catalog, format output.Format) error {
	list := catalog.List()
	if format != output.FormatHuman {
		return output.Render(cmd.OutOrStdout(), format, list)
	}

	rows := make([][]any, len(list))
	for i, r := range list {
		rows[i] = []any{r.Name, r.Title, r.Description}
	}
	fmt.Fprintln(cmd.OutOrStdout(), output.Table([]string{"name", "title", "description"}, rows))
	return nil
}
