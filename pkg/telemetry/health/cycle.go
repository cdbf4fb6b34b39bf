package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/peersync/pkg/reconciler"
)

// CycleTracker remembers the most recent reconciliation cycle and turns it
// into readiness checks. It implements reconciler.Observer.
type CycleTracker struct {
	mu   sync.RWMutex
	last *reconciler.Result
	at   time.Time

	staleAfter time.Duration
	now        func() time.Time
}

// NewCycleTracker creates a tracker. A positive staleAfter makes the
// freshness check fail when no cycle finished within that window.
func NewCycleTracker(staleAfter time.Duration) *CycleTracker {
	return &CycleTracker{
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// ObserveCycle records res as the latest cycle.
func (t *CycleTracker) ObserveCycle(_ context.Context, res *reconciler.Result) {
	if res == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = res
	t.at = t.now()
}

// SetStaleAfter changes the freshness window, for example after the
// reconcile interval was reloaded.
func (t *CycleTracker) SetStaleAfter(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.staleAfter = d
}

// Last returns the latest cycle and when it finished, or nil.
func (t *CycleTracker) Last() (*reconciler.Result, time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, t.at
}

// OutcomeCheck fails before the first cycle, and while the latest cycle
// failed or rolled back. An unconfigured network is reported as persistent:
// it repeats every cycle until the sidecar is attached to another network.
func (t *CycleTracker) OutcomeCheck(ctx context.Context) error {
	last, _ := t.Last()
	if last == nil {
		return fmt.Errorf("no reconciliation cycle has completed yet")
	}

	switch last.Outcome {
	case reconciler.OutcomeFailed, reconciler.OutcomeRolledBack:
		if last.Kind == reconciler.KindUnconfiguredNetwork {
			return &CheckError{
				Kind:       string(last.Kind),
				Persistent: true,
				Err:        fmt.Errorf("network unconfigured: %v", last.Err),
			}
		}
		return &CheckError{
			Kind: string(last.Kind),
			Err:  fmt.Errorf("last cycle %s (%s): %v", last.Outcome, last.Kind, last.Err),
		}
	}
	return nil
}

// FreshnessCheck fails when the loop has not completed a cycle within the
// stale window.
func (t *CycleTracker) FreshnessCheck(ctx context.Context) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.staleAfter <= 0 || t.last == nil {
		return nil
	}
	if age := t.now().Sub(t.at); age > t.staleAfter {
		return fmt.Errorf("last cycle finished %s ago (limit %s)", age.Round(time.Second), t.staleAfter)
	}
	return nil
}

// Register adds the outcome and freshness checks to checker.
func (t *CycleTracker) Register(checker *Checker) {
	checker.RegisterCheck("reconcile", t.OutcomeCheck)
	checker.RegisterCheck("freshness", t.FreshnessCheck)
}
