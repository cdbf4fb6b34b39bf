package reconciler

import (
	"context"
	"errors"
	"time"

	"mercator-hq/peersync/pkg/command"
	"mercator-hq/peersync/pkg/container"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/proxyctl"
)

// Outcome is the result of one reconciliation cycle.
type Outcome string

const (
	// OutcomeNoOp means the generated document matched the live one.
	OutcomeNoOp Outcome = "noop"

	// OutcomeApplied means a changed document was validated and reloaded.
	OutcomeApplied Outcome = "applied"

	// OutcomeRolledBack means a changed document failed validation and the
	// previous one was written back.
	OutcomeRolledBack Outcome = "rolled_back"

	// OutcomeFailed means an error aborted the cycle.
	OutcomeFailed Outcome = "failed"
)

// Outcomes lists every outcome, in a stable order.
var Outcomes = []Outcome{OutcomeNoOp, OutcomeApplied, OutcomeRolledBack, OutcomeFailed}

// ParseOutcome returns the Outcome named s.
func ParseOutcome(s string) (Outcome, bool) {
	for _, o := range Outcomes {
		if string(o) == s {
			return o, true
		}
	}
	return "", false
}

// State is a step of the reconciliation state machine.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateGenerating  State = "generating"
	StateComparing   State = "comparing"
	StateNoOp        State = "noop"
	StateApplying    State = "applying"
	StateValidating  State = "validating"
	StateReloading   State = "reloading"
	StateRollingBack State = "rolling_back"
)

// ErrorKind classifies cycle errors for logs, metrics and the journal.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindRuntimeQuery        ErrorKind = "runtime_query"
	KindMalformedResponse   ErrorKind = "malformed_response"
	KindUnconfiguredNetwork ErrorKind = "unconfigured_network"
	KindInvalidPeerName     ErrorKind = "invalid_peer_name"
	KindIO                  ErrorKind = "io"
	KindCommand             ErrorKind = "command"
	KindUnknown             ErrorKind = "unknown"
)

// Classify maps err to its ErrorKind. A nil error is KindNone.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		unconfigured *container.UnconfiguredNetworkError
		malformed    *container.MalformedResponseError
		query        *container.RuntimeQueryError
		invalidPeer  *generator.InvalidPeerNameError
		ioErr        *proxyctl.IOError
		cmdErr       *proxyctl.CommandError
		exitErr      *command.ExitError
	)

	switch {
	case errors.As(err, &unconfigured):
		return KindUnconfiguredNetwork
	case errors.As(err, &malformed):
		return KindMalformedResponse
	case errors.As(err, &query):
		return KindRuntimeQuery
	case errors.As(err, &invalidPeer):
		return KindInvalidPeerName
	case errors.As(err, &ioErr):
		return KindIO
	case errors.As(err, &cmdErr), errors.As(err, &exitErr):
		return KindCommand
	default:
		return KindUnknown
	}
}

// Result describes one finished cycle.
type Result struct {
	ID      string
	Outcome Outcome

	// State is the last state the cycle reached.
	State State

	Network  string
	SelfName string
	Peers    []string
	Skipped  []string

	// Document is the candidate document, empty if generation did not run.
	Document        string
	CandidateDigest string
	PreviousDigest  string

	// Err is the error that failed the cycle, or the error hit while rolling
	// back.
	Err  error
	Kind ErrorKind

	StartedAt time.Time
	Duration  time.Duration
}

// Changed reports whether the cycle wrote to the proxy config file.
func (r *Result) Changed() bool {
	return r.Outcome == OutcomeApplied || r.Outcome == OutcomeRolledBack
}

// Observer is notified after every cycle.
type Observer interface {
	ObserveCycle(ctx context.Context, res *Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, res *Result)

// ObserveCycle implements Observer.
func (f ObserverFunc) ObserveCycle(ctx context.Context, res *Result) {
	f(ctx, res)
}

// IdentitySource resolves the sidecar's own network identity.
// *container.IdentityResolver satisfies it.
type IdentitySource interface {
	Resolve(ctx context.Context) (container.NetworkIdentity, error)
	Invalidate()
}

// Planner generates the candidate document. *generator.Generator satisfies
// it.
type Planner interface {
	Plan(ctx context.Context, network, selfName string) (*generator.Plan, error)
}

// ProxyController reads, writes, validates and reloads the proxy config.
// *proxyctl.Controller satisfies it.
type ProxyController interface {
	Snapshot(ctx context.Context) (proxyctl.Snapshot, error)
	WriteConfig(ctx context.Context, doc string) error
	Restore(ctx context.Context, snap proxyctl.Snapshot) error
	Validate(ctx context.Context) (bool, error)
	Reload(ctx context.Context) error
}
