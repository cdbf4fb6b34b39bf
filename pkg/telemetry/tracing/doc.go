// Package tracing exports reconciliation spans over OTLP.
//
// Every cycle produces one "reconcile.cycle" span with a child span per
// phase (discover, generate, write, validate, reload, rollback). The cycle
// span carries the peersync.* attributes defined in this package, so a
// rolled back cycle can be found by its cycle ID or error kind.
//
// # Sampling
//
// Three strategies are supported through telemetry.tracing.sampler:
//   - always: every cycle is exported
//   - never: nothing is exported
//   - ratio: a fraction of cycles, chosen by trace ID
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	rec := reconciler.New(reconciler.Options{Tracer: tracer, ...})
//
// When tracing is disabled New returns a tracer whose spans are noops.
package tracing
