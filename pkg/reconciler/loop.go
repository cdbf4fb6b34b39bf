package reconciler

import (
	"context"
	"math"
	"time"
)

// Backoff stretches the sleep between cycles while the network stays
// unconfigured. Other outcomes always sleep the plain interval.
type Backoff struct {
	Enabled     bool
	MaxInterval time.Duration
	Multiplier  float64
}

// Delay returns the sleep after the n-th consecutive unconfigured-network
// failure: interval * multiplier^(n-1), capped at MaxInterval.
func (b Backoff) Delay(interval time.Duration, n int) time.Duration {
	if !b.Enabled || n <= 1 || b.Multiplier <= 1 {
		return interval
	}

	d := float64(interval) * math.Pow(b.Multiplier, float64(n-1))
	if b.MaxInterval > 0 && d > float64(b.MaxInterval) {
		return max(b.MaxInterval, interval)
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// SetInterval changes the sleep between cycles, effective after the current
// sleep.
func (r *Reconciler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interval = d
}

// SetBackoff replaces the backoff settings.
func (r *Reconciler) SetBackoff(b Backoff) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backoff = b
}

// Interval returns the configured sleep between cycles.
func (r *Reconciler) Interval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.interval
}

func (r *Reconciler) nextDelay(unconfigured int) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backoff.Delay(r.interval, unconfigured)
}

// Run runs cycles until ctx is cancelled, sleeping between them. The sleep
// starts when a cycle finishes, so the period is the cycle duration plus
// the interval. Run returns nil when ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("starting reconciliation loop", "interval", r.Interval())

	unconfigured := 0
	for {
		res := r.Cycle(ctx)

		if res.Kind == KindUnconfiguredNetwork {
			unconfigured++
		} else {
			unconfigured = 0
		}

		delay := r.nextDelay(unconfigured)
		if ctx.Err() != nil {
			r.logger.Info("reconciliation loop stopped")
			return nil
		}

		attrs := []any{"delay", delay}
		if unconfigured > 1 {
			attrs = append(attrs, "consecutive_unconfigured", unconfigured)
		}
		r.logger.Info("sleeping until next cycle", attrs...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("reconciliation loop stopped")
			return nil
		case <-timer.C:
		}
	}
}
