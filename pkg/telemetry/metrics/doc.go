// Package metrics provides Prometheus metrics for the reconciliation loop.
//
// # Metrics
//
//   - peersync_reconcile_cycles_total{outcome}
//   - peersync_reconcile_cycle_duration_seconds
//   - peersync_reconcile_errors_total{kind}
//   - peersync_reconcile_peers
//   - peersync_reconcile_skipped_peers
//   - peersync_reconcile_last_outcome_timestamp_seconds{outcome}
//   - peersync_command_duration_seconds{command,status}
//   - peersync_config_reloads_total{status}
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Cycle metrics come from the reconciler observer hook.
//	rec.AddObserver(collector)
//
//	// Command metrics come from the exec runner.
//	runner := &command.ExecRunner{Observe: collector.RecordCommand}
//
//	http.Handle("/metrics", collector.Handler())
package metrics
