package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/journal"
	"mercator-hq/peersync/pkg/journal/retention"
	"mercator-hq/peersync/pkg/journal/storage"
	"mercator-hq/peersync/pkg/reconciler"
	"mercator-hq/peersync/pkg/server"
	"mercator-hq/peersync/pkg/telemetry/health"
	"mercator-hq/peersync/pkg/telemetry/metrics"
	"mercator-hq/peersync/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	interval      time.Duration
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reconciliation loop",
	Long: `Run the reconciliation loop until SIGINT or SIGTERM.

The loop runs one cycle immediately and then every reconcile.interval.
SIGHUP, or a change to the config file when watch.enabled is set, reloads
the configuration: the interval, backoff, log level and hostname validation
mode take effect at once, other changes are logged as requiring a restart.

Examples:
  # Run with the default config file
  peersync run

  # Run with built-in defaults and the telemetry server on :9100
  peersync run --config "" --listen 0.0.0.0:9100

  # Validate config and wiring without starting the loop
  peersync run --dry-run`,
	RunE: runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override telemetry.server.listen_address")
	runCmd.Flags().DurationVar(&runFlags.interval, "interval", 0, "override reconcile.interval")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the loop")
}

func runLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Telemetry.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.interval > 0 {
		cfg.Reconcile.Interval = runFlags.interval
	}
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError(err)
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slogger := logger.Slog()

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	// Metrics
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	// Tracing
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slogger.Warn("failed to flush traces", "error", err)
		}
	}()

	// Health
	checker := health.New(0)
	tracker := health.NewCycleTracker(staleWindow(cfg))
	tracker.Register(checker)

	observers := []reconciler.Observer{collector, tracker}

	// Journal
	if cfg.Journal.Enabled {
		store, err := openJournal(cfg)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer store.Close()

		recorder := journal.NewRecorder(store, &journal.RecorderConfig{
			AsyncBuffer:    cfg.Journal.AsyncBuffer,
			WriteTimeout:   cfg.Journal.WriteTimeout,
			StoreDocuments: cfg.Journal.StoreDocuments,
		}, slogger)
		defer recorder.Close()
		observers = append(observers, recorder)

		pruner := retention.NewPruner(store, retentionFrom(&cfg.Journal.Retention))
		if cfg.Journal.Retention.PruneSchedule != "" {
			if err := pruner.Start(ctx); err != nil {
				slogger.Warn("failed to start journal retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); next != nil {
					slogger.Debug("journal retention scheduler started", "next_pruning", next)
				}
			}
		}
		slogger.Info("journal enabled", "backend", cfg.Journal.Backend)
	}

	runtimeRunner, proxyRunner := newRunners(cfg, collector.RecordCommand)
	comps, err := buildComponents(cfg, runtimeRunner, proxyRunner, slogger, componentOptions{
		Tracer:    tracer,
		Observers: observers,
	})
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	errChan := make(chan error, 2)

	// Telemetry server
	srv := server.New(&cfg.Telemetry.Server, server.Options{
		Checker:     checker,
		Version:     health.NewVersionInfo(Version, GitCommit, BuildDate),
		Metrics:     metricsHandler(cfg, collector),
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Logger:      slogger,
	})
	if srv.Enabled() {
		if err := srv.Listen(); err != nil {
			return cli.NewCommandError("run", err)
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				errChan <- err
			}
		}()
	}

	// Config reload
	rl := &reloader{
		path:       cfgFile,
		logger:     logger,
		reconciler: comps.reconciler,
		generator:  comps.generator,
		tracker:    tracker,
		collector:  collector,
		overrides:  applyRunOverrides,
	}
	go rl.watch(ctx, cfg)

	slogger.Info("peersync started",
		"version", Version,
		"config", cfgFile,
		"proxy_config", cfg.Proxy.ConfigPath,
		"interval", cfg.Reconcile.Interval,
		"telemetry_address", cfg.Telemetry.Server.ListenAddress,
	)

	go func() {
		errChan <- comps.reconciler.Run(ctx)
	}()

	select {
	case err := <-errChan:
		stop()
		if err != nil && !errors.Is(err, context.Canceled) {
			return cli.NewCommandError("run", err)
		}
	case <-ctx.Done():
		slogger.Info("shutdown signal received")
	}

	if srv.Enabled() {
		if err := srv.Shutdown(context.Background()); err != nil {
			slogger.Error("telemetry server shutdown failed", "error", err)
		}
	}
	slogger.Info("peersync stopped")
	return nil
}

// applyRunOverrides re-applies the run flags to a reloaded configuration so
// a reload does not silently drop them.
func applyRunOverrides(cfg *config.Config) {
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if runFlags.listenAddress != "" {
		cfg.Telemetry.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.interval > 0 {
		cfg.Reconcile.Interval = runFlags.interval
	}
}

// staleWindow is how long readiness tolerates not seeing a finished cycle.
func staleWindow(cfg *config.Config) time.Duration {
	return 3*cfg.Reconcile.Interval + cfg.Runtime.CommandTimeout + 2*cfg.Proxy.CommandTimeout
}

func metricsHandler(cfg *config.Config, collector *metrics.Collector) http.Handler {
	if !cfg.Telemetry.Metrics.Enabled {
		return nil
	}
	return collector.Handler()
}

func openJournal(cfg *config.Config) (journal.Storage, error) {
	return storage.Open(cfg.Journal.Backend, &storage.SQLiteConfig{
		Driver:      cfg.Journal.SQLite.Driver,
		Path:        cfg.Journal.SQLite.Path,
		WALMode:     true,
		BusyTimeout: cfg.Journal.SQLite.BusyTimeout,
	})
}

func retentionFrom(cfg *config.RetentionConfig) *retention.Config {
	return &retention.Config{
		RetentionDays: cfg.Days,
		MaxRecords:    cfg.MaxRecords,
		PruneSchedule: cfg.PruneSchedule,
	}
}
