package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ecomapi/internal/loader"
	"ecomapi/internal/output"
	"ecomapi/internal/storage"
)

var (
	loadUsers     string
	loadOrders    string
	loadDB        string
	loadBatchSize int
	loadFormat    string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import users and orders CSV files",
	Long: `Import the users and orders CSV exports into the SQLite database,
creating the schema when needed. Rows whose id already exists are skipped.
Each file is imported in one transaction; any error rolls that file back and
aborts the run.

Examples:
  ecomapi load
  ecomapi load --users data/users.csv --orders data/orders.csv --db shop.db`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadUsers, "users", "", "Users CSV file (overrides loader.usersCsv)")
	loadCmd.Flags().StringVar(&loadOrders, "orders", "", "Orders CSV file (overrides loader.ordersCsv)")
	loadCmd.Flags().StringVar(&loadDB, "db", "", "SQLite database file (overrides database.path)")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0, "Rows per INSERT (overrides loader.batchSize)")
	loadCmd.Flags().StringVar(&loadFormat, "format", "human", "Summary format (human, json, yaml)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	flags := cmd.Flags()
	if flags.Changed("users") {
		cfg.Loader.UsersCSV = loadUsers
	}
	if flags.Changed("orders") {
		cfg.Loader.OrdersCSV = loadOrders
	}
	if flags.Changed("db") {
		cfg.Database.Path = loadDB
	}
	if flags.Changed("batch-size") {
		cfg.Loader.BatchSize = loadBatchSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := output.ParseFormat(loadFormat, output.FormatHuman, output.FormatJSON, output.FormatYAML)
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Database.Path, appLogger, storage.Options{BusyTimeoutMs: cfg.Database.BusyTimeoutMs})
	if err != nil {
		return err
	}
	defer db.Close()

	l := loader.New(db, appLogger, loader.Options{BatchSize: cfg.Loader.BatchSize})
	summary, err := l.Load(cmd.Context(), cfg.Loader.UsersCSV, cfg.Loader.OrdersCSV)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if format != output.FormatHuman {
		return output.Render(cmd.OutOrStdout(), format, summary)
	}
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, s *loader.Summary) {
	w := cmd.OutOrStdout()

	output.Section(w, "Import summary")
	rows := [][]any{}
	for _, ts := range []loader.TableSummary{s.Users, s.Orders} {
		rows = append(rows, []any{ts.Table, ts.Source, ts.Read, ts.Inserted, ts.Skipped, ts.Batches})
	}
	fmt.Fprintln(w, output.Table([]string{"table", "source", "read", "inserted", "skipped", "batches"}, rows))

	output.Success(w, "Database now holds %d users and %d orders (%s)",
		s.TotalUsers, s.TotalOrders, s.Duration.Round(time.Millisecond))
	if s.OrphanOrders > 0 {
		output.Warning(w, "%d orders reference customers that are not in the users table", s.OrphanOrders)
	}
}
