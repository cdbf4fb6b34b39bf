package metrics

import (
	"context"
	"time"

	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/reconciler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Reload statuses for RecordConfigReload.
const (
	ReloadApplied  = "applied"
	ReloadRejected = "rejected"
	ReloadNoChange = "unchanged"
)

// Collector owns the Prometheus registry and every metric the sidecar
// exports. It implements reconciler.Observer.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	cycleMetrics   *CycleMetrics
	commandMetrics *CommandMetrics
	reloadMetrics  *ReloadMetrics
}

// NewCollector creates a new metrics collector. If registry is nil a fresh
// registry is created with the Go runtime and process collectors.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	rec := reconciler.New(identity, gen, ctl, reconciler.Options{
//		Observers: []reconciler.Observer{collector},
//	})
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.Default().Telemetry.Metrics
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Collector{
		config:         cfg,
		registry:       registry,
		cycleMetrics:   NewCycleMetrics(cfg, registry),
		commandMetrics: NewCommandMetrics(cfg, registry),
		reloadMetrics:  NewReloadMetrics(cfg, registry),
	}
}

// ObserveCycle records a finished reconciliation cycle.
func (c *Collector) ObserveCycle(_ context.Context, res *reconciler.Result) {
	if !c.config.Enabled || res == nil {
		return
	}
	c.cycleMetrics.Record(res)
}

// RecordCommand records an external command invocation. Its signature
// matches command.Observer.
func (c *Collector) RecordCommand(name, status string, d time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.commandMetrics.Record(name, status, d)
}

// RecordConfigReload records a configuration reload attempt.
func (c *Collector) RecordConfigReload(status string) {
	if !c.config.Enabled {
		return
	}
	c.reloadMetrics.Record(status)
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
