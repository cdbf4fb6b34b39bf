package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/peersync/pkg/container"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/proxyctl"
	"mercator-hq/peersync/pkg/telemetry/logging"
	"mercator-hq/peersync/pkg/telemetry/tracing"
)

// SpanStarter starts tracing spans. Both trace.Tracer and
// *tracing.Tracer satisfy it.
type SpanStarter interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Options configures a Reconciler.
type Options struct {
	// Interval is the sleep between the end of one cycle and the start of
	// the next.
	Interval time.Duration

	// Backoff stretches the sleep while the network stays unconfigured.
	Backoff Backoff

	Tracer    SpanStarter
	Logger    *slog.Logger
	Observers []Observer
}

// DefaultInterval is the default sleep between cycles.
const DefaultInterval = 20 * time.Second

// Reconciler drives the discover, generate, compare, apply, validate and
// reload-or-rollback cycle. Cycles never overlap.
type Reconciler struct {
	identity IdentitySource
	planner  Planner
	proxy    ProxyController
	tracer   SpanStarter
	logger   *slog.Logger

	// cycleMu serializes cycles; Cycle may be called from Run and from
	// one-shot callers.
	cycleMu sync.Mutex

	// pendingReload is set until a reload succeeds in this process. A file
	// left by an earlier process may never have been loaded by nginx.
	pendingReload bool

	mu        sync.RWMutex
	interval  time.Duration
	backoff   Backoff
	observers []Observer

	now func() time.Time
}

// New returns a Reconciler wired to its three collaborators.
func New(identity IdentitySource, planner Planner, proxy ProxyController, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("peersync")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reconciler{
		identity:  identity,
		planner:   planner,
		proxy:     proxy,
		tracer:    opts.Tracer,
		logger:    opts.Logger.With("component", "reconciler"),
		interval:  opts.Interval,
		backoff:   opts.Backoff,
		observers: append([]Observer(nil), opts.Observers...),
		now:       time.Now,

		pendingReload: true,
	}
}

// AddObserver registers an observer for subsequent cycles.
func (r *Reconciler) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Cycle runs one reconciliation cycle. It never returns an error: failures
// are reported through Result.Outcome and Result.Err.
func (r *Reconciler) Cycle(ctx context.Context) *Result {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	res := &Result{
		ID:        uuid.New().String(),
		State:     StateIdle,
		StartedAt: r.now(),
	}

	ctx = logging.WithCycleID(ctx, res.ID)
	logger := r.logger.With("cycle_id", res.ID)

	ctx, span := r.tracer.Start(ctx, "reconcile.cycle",
		trace.WithAttributes(tracing.AttrCycleID.String(res.ID)),
	)

	logger.Debug("starting reconciliation cycle")

	func() {
		defer func() {
			if p := recover(); p != nil {
				res.Outcome = OutcomeFailed
				res.Err = fmt.Errorf("panic during %s: %v", res.State, p)
			}
		}()
		r.cycle(ctx, res, logger)
	}()

	res.Duration = r.now().Sub(res.StartedAt)
	if res.Err != nil {
		res.Kind = Classify(res.Err)
	}

	r.finishSpan(span, res)
	r.logResult(logger, res)
	r.notify(ctx, res)

	return res
}

func (r *Reconciler) cycle(ctx context.Context, res *Result, logger *slog.Logger) {
	fail := func(err error) {
		res.Outcome = OutcomeFailed
		res.Err = err
	}

	// Discover
	res.State = StateDiscovering
	id, err := phase(r, ctx, "discover", func(ctx context.Context) (container.NetworkIdentity, error) {
		return r.identity.Resolve(ctx)
	})
	if err != nil {
		r.invalidateOnUnconfigured(err)
		fail(err)
		return
	}
	res.Network = id.Network
	res.SelfName = id.SelfName

	// Generate
	res.State = StateGenerating
	plan, err := phase(r, ctx, "generate", func(ctx context.Context) (*generator.Plan, error) {
		return r.planner.Plan(ctx, id.Network, id.SelfName)
	})
	if err != nil {
		r.invalidateOnUnconfigured(err)
		fail(err)
		return
	}
	res.Peers = plan.Peers
	res.Skipped = plan.Skipped
	res.Document = plan.Document
	res.CandidateDigest = generator.Digest(plan.Document)

	// Compare
	res.State = StateComparing
	previous, err := phase(r, ctx, "compare", func(ctx context.Context) (proxyctl.Snapshot, error) {
		return r.proxy.Snapshot(ctx)
	})
	if err != nil {
		fail(err)
		return
	}
	res.PreviousDigest = generator.Digest(previous.Document)

	if previous.Document == plan.Document {
		if r.pendingReload {
			logger.Info("config unchanged but not yet reloaded by this process, reloading")
			r.reload(ctx, res)
			return
		}
		res.State = StateNoOp
		res.Outcome = OutcomeNoOp
		return
	}

	// Apply
	res.State = StateApplying
	if _, err := phase(r, ctx, "apply", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.proxy.WriteConfig(ctx, plan.Document)
	}); err != nil {
		fail(err)
		return
	}

	// Validate
	res.State = StateValidating
	valid, err := phase(r, ctx, "validate", func(ctx context.Context) (bool, error) {
		return r.proxy.Validate(ctx)
	})
	if err != nil {
		// The validator could not run; the written file is unverified.
		r.rollback(ctx, res, previous, logger)
		res.Outcome = OutcomeFailed
		res.Err = errors.Join(err, res.Err)
		return
	}
	if !valid {
		r.rollback(ctx, res, previous, logger)
		res.Outcome = OutcomeRolledBack
		return
	}

	r.reload(ctx, res)
}

func (r *Reconciler) reload(ctx context.Context, res *Result) {
	res.State = StateReloading
	if _, err := phase(r, ctx, "reload", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.proxy.Reload(ctx)
	}); err != nil {
		r.pendingReload = true
		res.Outcome = OutcomeFailed
		res.Err = err
		return
	}
	r.pendingReload = false
	res.Outcome = OutcomeApplied
}

// rollback restores the file as it was before the cycle, removing it if it
// did not exist. A failed restore is attached to res.Err.
func (r *Reconciler) rollback(ctx context.Context, res *Result, previous proxyctl.Snapshot, logger *slog.Logger) {
	res.State = StateRollingBack
	_, err := phase(r, ctx, "rollback", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.proxy.Restore(ctx, previous)
	})
	if err != nil {
		logger.Error("failed to restore previous proxy config", "error", err)
		res.Err = fmt.Errorf("rollback: %w", err)
	}
}

func (r *Reconciler) invalidateOnUnconfigured(err error) {
	var une *container.UnconfiguredNetworkError
	if errors.As(err, &une) {
		r.identity.Invalidate()
	}
}

// phase runs fn inside a child span named reconcile.<name>.
func phase[T any](r *Reconciler, ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile."+name)
	defer span.End()

	v, err := fn(ctx)
	if err != nil {
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
	}
	return v, err
}

func (r *Reconciler) finishSpan(span trace.Span, res *Result) {
	tracing.EndCycleSpan(span, tracing.CycleSummary{
		Outcome:   string(res.Outcome),
		State:     string(res.State),
		Network:   res.Network,
		SelfName:  res.SelfName,
		Peers:     len(res.Peers),
		Skipped:   len(res.Skipped),
		ErrorKind: string(res.Kind),
		Digest:    res.CandidateDigest,
	}, res.Err)
}

func (r *Reconciler) logResult(logger *slog.Logger, res *Result) {
	attrs := []any{
		"outcome", res.Outcome,
		"network", res.Network,
		"peers", len(res.Peers),
		"duration", res.Duration,
	}

	switch res.Outcome {
	case OutcomeNoOp:
		logger.Info("proxy config unchanged", attrs...)
	case OutcomeApplied:
		logger.Info("applied new proxy config", append(attrs,
			"digest", res.CandidateDigest,
			"previous_digest", res.PreviousDigest,
		)...)
	case OutcomeRolledBack:
		attrs = append(attrs, "digest", res.CandidateDigest)
		if res.Err != nil {
			attrs = append(attrs, "error", res.Err)
		}
		logger.Error("new proxy config failed validation, rolled back", attrs...)
	case OutcomeFailed:
		logger.Error("reconciliation cycle failed", append(attrs,
			"state", res.State,
			"error_kind", res.Kind,
			"error", res.Err,
		)...)
	}

	logger.Debug("reconciliation cycle finished", "duration", res.Duration)
}

func (r *Reconciler) notify(ctx context.Context, res *Result) {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()

	for _, o := range observers {
		r.safeObserve(ctx, o, res)
	}
}

func (r *Reconciler) safeObserve(ctx context.Context, o Observer, res *Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("cycle observer panicked", "panic", p)
		}
	}()
	o.ObserveCycle(ctx, res)
}
