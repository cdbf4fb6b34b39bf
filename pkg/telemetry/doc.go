// Package telemetry groups the observability of the peersync sidecar.
//
// # Components
//
//   - logging: structured slog logging with a runtime-adjustable level
//   - metrics: Prometheus metrics for cycles, external commands and reloads
//   - tracing: OpenTelemetry spans for each reconciliation cycle and phase
//   - health: liveness, readiness and version endpoints
//
// metrics and health consume cycle results as reconciler observers:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracker := health.NewCycleTracker(staleAfter)
//	rec.AddObserver(collector)
//	rec.AddObserver(tracker)
package telemetry
