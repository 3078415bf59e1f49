package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/yegors/weekend-fares/internal/api"
	"github.com/yegors/weekend-fares/internal/config"
	"github.com/yegors/weekend-fares/internal/flights"
	"github.com/yegors/weekend-fares/internal/metrics"
	"github.com/yegors/weekend-fares/internal/storage/sqlite"
	"github.com/yegors/weekend-fares/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type serverFlags struct {
	configPath string
	addr       string
	csvPath    string
	journal    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serverFlags{}

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serves the scanned flights table over HTTP.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "Path to a TOML config file")
	f.StringVar(&flags.addr, "addr", "", "Listen address (overrides server.addr)")
	f.StringVar(&flags.csvPath, "csv", "", "Flights CSV path (overrides FLIGHTS_CSV and server.csv_path)")
	f.StringVar(&flags.journal, "journal", "", "SQLite scan journal path (overrides storage.sqlite_path)")

	return cmd
}

func serve(ctx context.Context, flags *serverFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.csvPath != "" {
		cfg.Server.CSVPath = flags.csvPath
	}
	if flags.journal != "" {
		cfg.Storage.SQLitePath = flags.journal
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: "stdout",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	csvPath, err := filepath.Abs(cfg.Server.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to resolve CSV path %s: %w", cfg.Server.CSVPath, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	apiMetrics := metrics.NewAPIMetrics(cfg.Metrics.Namespace, registry)

	opts := api.RouterOptions{
		Flights:        flights.NewService(csvPath, apiMetrics, log),
		Metrics:        apiMetrics,
		Gatherer:       registry,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}

	if path := cfg.Storage.SQLitePath; path != "" {
		db, err := sqlite.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open scan journal: %w", err)
		}
		defer db.Close()

		journal, err := sqlite.NewScanStorage(db, log)
		if err != nil {
			return fmt.Errorf("failed to initialize scan journal: %w", err)
		}
		opts.Scans = journal
	}

	router := api.NewRouter(opts, log)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server",
			logger.String("addr", cfg.Server.Addr),
			logger.String("csv_path", csvPath),
			logger.Bool("journal", opts.Scans != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	log.Info("HTTP server stopped")
	return nil
}
