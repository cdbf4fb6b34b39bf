package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Status values reported by the checker.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	// StatusMisconfigured marks a failure that retrying will not clear, such
	// as a sidecar attached only to the default network.
	StatusMisconfigured = "misconfigured"
)

// DefaultCheckTimeout bounds a single check when New is given zero.
const DefaultCheckTimeout = 5 * time.Second

// CheckFunc reports a component's state: nil when healthy. Returning a
// *CheckError adds a failure kind and can mark the failure persistent.
type CheckFunc func(ctx context.Context) error

// CheckError is a classified check failure.
type CheckError struct {
	// Kind names the failure class, e.g. a reconciler error kind.
	Kind string

	// Persistent means the failure needs operator action.
	Persistent bool

	Err error
}

func (e *CheckError) Error() string {
	return e.Err.Error()
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	// Status is "ok", "unhealthy" or "misconfigured"
	Status string `json:"status"`

	// Kind classifies a failure when the check reported one
	Kind string `json:"kind,omitempty"`

	Message string `json:"message,omitempty"`

	// DurationMS is how long the check took in milliseconds
	DurationMS float64 `json:"duration_ms"`
}

// HealthStatus is the aggregated answer of a liveness or readiness check.
type HealthStatus struct {
	// Status is "ok" for liveness; "ready", "degraded" or "misconfigured"
	// for readiness
	Status string `json:"status"`

	Checks map[string]CheckResult `json:"checks,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Checker runs named readiness checks, each bounded by a timeout.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	checkTimeout time.Duration
}

// ErrCheckTimeout is reported when a health check does not finish in time.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a checker. A zero timeout means DefaultCheckTimeout.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = DefaultCheckTimeout
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck adds or replaces the check called name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes the check called name.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// ListChecks returns the registered check names, sorted.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports that the process is running.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	return HealthStatus{Status: StatusOK, Timestamp: time.Now()}
}

// CheckReadiness runs every check concurrently. A persistent failure makes
// the process misconfigured; any other failure makes it degraded.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	names := c.ListChecks()

	c.mu.RLock()
	checks := make([]CheckFunc, len(names))
	for i, name := range names {
		checks[i] = c.checks[name]
	}
	c.mu.RUnlock()

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, check := range checks {
		i, check := i, check
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.runCheck(ctx, check)
		}()
	}
	wg.Wait()

	status := HealthStatus{
		Status:    StatusReady,
		Checks:    make(map[string]CheckResult, len(names)),
		Timestamp: time.Now(),
	}
	for i, name := range names {
		res := results[i]
		status.Checks[name] = res

		switch {
		case res.Status == StatusMisconfigured:
			status.Status = StatusMisconfigured
		case res.Status == StatusUnhealthy && status.Status == StatusReady:
			status.Status = StatusDegraded
		}
	}
	return status
}

func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	res := CheckResult{
		Status:     StatusOK,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err == nil {
		return res
	}

	res.Status = StatusUnhealthy
	res.Message = err.Error()

	var ce *CheckError
	if errors.As(err, &ce) {
		res.Kind = ce.Kind
		if ce.Persistent {
			res.Status = StatusMisconfigured
		}
	}
	return res
}
