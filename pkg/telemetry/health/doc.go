// Package health provides liveness, readiness and version endpoints.
//
// # Endpoints
//
//   - /health: liveness, the process is running
//   - /ready: readiness, the last reconciliation cycle succeeded and the
//     loop is still completing cycles; "misconfigured" instead of
//     "degraded" when the sidecar sits on the default network
//   - /version: build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	tracker := health.NewCycleTracker(3 * cfg.Reconcile.Interval)
//	tracker.Register(checker)
//	rec.AddObserver(tracker)
//
//	mux := http.NewServeMux()
//	health.Register(mux, checker, health.NewVersionInfo(version, commit, date))
package health
