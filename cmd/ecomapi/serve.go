package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ecomapi/internal/api"
	"ecomapi/internal/query"
	"ecomapi/internal/reports"
	"ecomapi/internal/storage"
)

var (
	serveHost      string
	servePort      int
	serveDB        string
	serveStaticDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start the read-only HTTP API. The database is opened read-only and is
never created; a missing file is reported by /api/health.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database file (overrides database.path)")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "Serve front-end files from this directory under /app/")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	logger := appLogger

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("db") {
		cfg.Database.Path = serveDB
	}
	if flags.Changed("static-dir") {
		cfg.Server.StaticDir = serveStaticDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := storage.OpenReadOnly(cfg.Database.Path, logger, cfg.Database.BusyTimeoutMs)
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := reports.Load(cfg.Reports.File)
	if err != nil {
		return err
	}
	service, err := query.NewService(db, logger, query.Options{Reports: catalog})
	if err != nil {
		return err
	}

	server, err := api.NewServer(cfg, service, logger)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "ecomapi listening on http://%s\n", server.Addr())
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err.Error())
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", "error", err.Error())
			return err
		}

		logger.Info("Server stopped gracefully")
	}

	return nil
}
