package metrics

import (
	"path/filepath"
	"time"

	"mercator-hq/peersync/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CommandMetrics tracks external command invocations (docker, nginx).
//
// Metrics:
//   - peersync_command_duration_seconds: invocation duration by command and status
type CommandMetrics struct {
	duration *prometheus.HistogramVec
}

// NewCommandMetrics creates and registers command metrics with the provided registry.
func NewCommandMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *CommandMetrics {
	cm := &CommandMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of external command invocations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"command", "status"},
		),
	}

	registry.MustRegister(cm.duration)

	return cm
}

// Record records one invocation. The command label is the base name of the
// executable so configured absolute paths do not change the series.
func (cm *CommandMetrics) Record(name, status string, d time.Duration) {
	cm.duration.WithLabelValues(filepath.Base(name), status).Observe(d.Seconds())
}

// ReloadMetrics tracks configuration hot reloads.
//
// Metrics:
//   - peersync_config_reloads_total: reload attempts by status
type ReloadMetrics struct {
	reloadsTotal *prometheus.CounterVec
}

// NewReloadMetrics creates and registers reload metrics with the provided registry.
func NewReloadMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *ReloadMetrics {
	rm := &ReloadMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "config",
				Name:      "reloads_total",
				Help:      "Total number of configuration reload attempts by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(rm.reloadsTotal)

	return rm
}

// Record records one reload attempt.
func (rm *ReloadMetrics) Record(status string) {
	rm.reloadsTotal.WithLabelValues(status).Inc()
}
