// Package server runs the optional telemetry HTTP server.
//
// The server is off unless telemetry.server.listen_address is set. When
// enabled it exposes:
//
//	GET /health    liveness
//	GET /ready     readiness, 503 while the last cycle failed or rolled back
//	GET /version   build information
//	GET /metrics   Prometheus metrics (path from telemetry.metrics.path)
//
// Every request passes through panic recovery and request logging. Health
// endpoint traffic is logged at debug level so kubelet or docker health checks do
// not flood the log.
//
// # Usage
//
//	srv := server.New(&cfg.Telemetry.Server, server.Options{
//	    Checker:     checker,
//	    Version:     health.NewVersionInfo(version, commit, date),
//	    Metrics:     collector.Handler(),
//	    MetricsPath: cfg.Telemetry.Metrics.Path,
//	    Logger:      logger,
//	})
//	if srv.Enabled() {
//	    go func() { errCh <- srv.Start(ctx) }()
//	}
package server
