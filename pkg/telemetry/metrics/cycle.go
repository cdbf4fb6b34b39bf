package metrics

import (
	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/reconciler"

	"github.com/prometheus/client_golang/prometheus"
)

// CycleMetrics tracks reconciliation cycles.
//
// Metrics:
//   - peersync_reconcile_cycles_total: cycles by outcome
//   - peersync_reconcile_cycle_duration_seconds: cycle duration histogram
//   - peersync_reconcile_errors_total: failed or rolled-back cycles by error kind
//   - peersync_reconcile_peers: peers in the last rendered document
//   - peersync_reconcile_skipped_peers: peers dropped by hostname validation
//   - peersync_reconcile_last_outcome_timestamp_seconds: when each outcome last happened
type CycleMetrics struct {
	cyclesTotal      *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	errorsTotal      *prometheus.CounterVec
	peers            prometheus.Gauge
	skippedPeers     prometheus.Gauge
	lastOutcomeStamp *prometheus.GaugeVec
}

// NewCycleMetrics creates and registers cycle metrics with the provided registry.
func NewCycleMetrics(cfg *config.MetricsConfig, registry prometheus.Registerer) *CycleMetrics {
	const subsystem = "reconcile"

	cm := &CycleMetrics{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "cycles_total",
				Help:      "Total number of reconciliation cycles by outcome",
			},
			[]string{"outcome"},
		),

		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of reconciliation cycles in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "errors_total",
				Help:      "Total number of cycle errors by kind",
			},
			[]string{"kind"},
		),

		peers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "peers",
				Help:      "Number of peers in the most recently rendered document",
			},
		),

		skippedPeers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "skipped_peers",
				Help:      "Number of peers skipped for invalid hostnames in the most recent cycle",
			},
		),

		lastOutcomeStamp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "last_outcome_timestamp_seconds",
				Help:      "Unix time at which each outcome last occurred",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		cm.cyclesTotal,
		cm.cycleDuration,
		cm.errorsTotal,
		cm.peers,
		cm.skippedPeers,
		cm.lastOutcomeStamp,
	)

	// Export every outcome from the start so rate() works before the first
	// occurrence.
	for _, o := range reconciler.Outcomes {
		cm.cyclesTotal.WithLabelValues(string(o))
	}

	return cm
}

// Record records one finished cycle.
func (cm *CycleMetrics) Record(res *reconciler.Result) {
	outcome := string(res.Outcome)

	cm.cyclesTotal.WithLabelValues(outcome).Inc()
	cm.cycleDuration.Observe(res.Duration.Seconds())
	cm.lastOutcomeStamp.WithLabelValues(outcome).Set(float64(res.StartedAt.Add(res.Duration).Unix()))

	if res.Err != nil {
		kind := res.Kind
		if kind == reconciler.KindNone {
			kind = reconciler.KindUnknown
		}
		cm.errorsTotal.WithLabelValues(string(kind)).Inc()
	}

	// Peer gauges only move when discovery got far enough to know the peers.
	if res.Outcome != reconciler.OutcomeFailed || res.Peers != nil {
		cm.peers.Set(float64(len(res.Peers)))
		cm.skippedPeers.Set(float64(len(res.Skipped)))
	}
}
