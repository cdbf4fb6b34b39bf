package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/reconciler"
	"mercator-hq/peersync/pkg/telemetry/health"
	"mercator-hq/peersync/pkg/telemetry/logging"
	"mercator-hq/peersync/pkg/telemetry/metrics"
)

func newTestReloader(t *testing.T, path string) (*reloader, *prometheus.Registry, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New() error: %v", err)
	}

	registry := prometheus.NewRegistry()
	cfg := config.Default()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })

	return &reloader{
		path:   path,
		logger: logger,
		reconciler: reconciler.New(nil, nil, nil, reconciler.Options{
			Interval: cfg.Reconcile.Interval,
			Logger:   logger.Slog(),
		}),
		generator: generator.New(nil, generator.Options{Validation: generator.ValidationSkip}, logger.Slog()),
		tracker:   health.NewCycleTracker(staleWindow(cfg)),
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, registry),
	}, registry, &logs
}

func TestReloader_Reload(t *testing.T) {
	path := useConfig(t, `reconcile:
  interval: 45s
generator:
  hostname_validation: reject
telemetry:
  logging:
    level: debug
runtime:
  network: app_net
`)
	r, registry, logs := newTestReloader(t, path)

	if err := r.reload(); err != nil {
		t.Fatalf("reload() error: %v", err)
	}

	if got := r.reconciler.Interval(); got != 45*time.Second {
		t.Errorf("interval = %v, want 45s", got)
	}
	if got := r.generator.Validation(); got != generator.ValidationReject {
		t.Errorf("validation = %q, want reject", got)
	}
	if got := r.logger.Level().String(); got != "DEBUG" {
		t.Errorf("log level = %s, want DEBUG", got)
	}
	if !strings.Contains(logs.String(), "require a restart") || !strings.Contains(logs.String(), "runtime") {
		t.Errorf("restart-required section not logged:\n%s", logs.String())
	}

	// Same file again: nothing to apply.
	if err := r.reload(); err != nil {
		t.Fatalf("second reload() error: %v", err)
	}

	// Broken file: rejected, running config kept.
	running := config.GetConfig()
	if err := os.WriteFile(path, []byte("reconcile:\n  interval: 1ms\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.reload(); err == nil {
		t.Error("reload() accepted an invalid file")
	}
	if config.GetConfig() != running {
		t.Error("rejected reload replaced the configuration")
	}
	if got := r.reconciler.Interval(); got != 45*time.Second {
		t.Errorf("interval after rejected reload = %v, want 45s", got)
	}

	expected := `
# HELP peersync_config_reloads_total Total number of configuration reload attempts by status
# TYPE peersync_config_reloads_total counter
peersync_config_reloads_total{status="applied"} 1
peersync_config_reloads_total{status="rejected"} 1
peersync_config_reloads_total{status="unchanged"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "peersync_config_reloads_total"); err != nil {
		t.Error(err)
	}
}

func TestReloader_Overrides(t *testing.T) {
	path := useConfig(t, "reconcile:\n  interval: 45s\n")
	r, _, _ := newTestReloader(t, path)
	r.overrides = func(cfg *config.Config) { cfg.Reconcile.Interval = 2 * time.Minute }

	if err := r.reload(); err != nil {
		t.Fatalf("reload() error: %v", err)
	}
	if got := r.reconciler.Interval(); got != 2*time.Minute {
		t.Errorf("interval = %v, want the 2m override", got)
	}
}

func TestReloader_NoPath(t *testing.T) {
	r, _, _ := newTestReloader(t, "")
	if err := r.reload(); err == nil {
		t.Error("reload() without a config file should fail")
	}
}

func TestStaleWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Reconcile.Interval = 20 * time.Second
	cfg.Runtime.CommandTimeout = 10 * time.Second
	cfg.Proxy.CommandTimeout = 5 * time.Second

	if got, want := staleWindow(cfg), 80*time.Second; got != want {
		t.Errorf("staleWindow() = %v, want %v", got, want)
	}
}
