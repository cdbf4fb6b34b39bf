package reconciler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/peersync/pkg/container"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/proxyctl"
)

type fakeIdentity struct {
	id          container.NetworkIdentity
	err         error
	resolves    int
	invalidated int
}

func (f *fakeIdentity) Resolve(ctx context.Context) (container.NetworkIdentity, error) {
	f.resolves++
	return f.id, f.err
}

func (f *fakeIdentity) Invalidate() { f.invalidated++ }

type fakeLister struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (f *fakeLister) ListPeerNames(ctx context.Context, network string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names, f.err
}

func (f *fakeLister) set(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = names
}

// fakeProxy is an in-memory ProxyController.
type fakeProxy struct {
	mu   sync.Mutex
	file string

	// missing reports that no config file exists.
	missing bool

	readErr     error
	writeErr    error
	rollbackErr error
	validateErr error
	reloadErr   error

	// valid decides whether a document passes validation.
	valid func(doc string) bool

	writes    []string
	restores  int
	validates int
	reloads   int
}

func newFakeProxy() *fakeProxy {
	return &fakeProxy{missing: true, valid: func(string) bool { return true }}
}

// setFile replaces the fake's config file with doc.
func (p *fakeProxy) setFile(doc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.file, p.missing = doc, false
}

func (p *fakeProxy) Snapshot(ctx context.Context) (proxyctl.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return proxyctl.Snapshot{}, &proxyctl.IOError{Operation: "read", Path: "default.conf", Cause: p.readErr}
	}
	return proxyctl.Snapshot{Document: p.file, Exists: !p.missing}, nil
}

func (p *fakeProxy) Restore(ctx context.Context, snap proxyctl.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restores++
	if p.rollbackErr != nil {
		return &proxyctl.IOError{Operation: "write", Path: "default.conf", Cause: p.rollbackErr}
	}
	p.file, p.missing = snap.Document, !snap.Exists
	return nil
}

func (p *fakeProxy) WriteConfig(ctx context.Context, doc string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return &proxyctl.IOError{Operation: "write", Path: "default.conf", Cause: p.writeErr}
	}
	p.writes = append(p.writes, doc)
	p.file, p.missing = doc, false
	return nil
}

func (p *fakeProxy) Validate(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.validates++
	if p.validateErr != nil {
		return false, &proxyctl.CommandError{Command: "validate", Cause: p.validateErr}
	}
	return p.valid(p.file), nil
}

func (p *fakeProxy) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads++
	if p.reloadErr != nil {
		return &proxyctl.CommandError{Command: "reload", Cause: p.reloadErr}
	}
	return nil
}

type harness struct {
	identity *fakeIdentity
	lister   *fakeLister
	gen      *generator.Generator
	proxy    *fakeProxy
	rec      *Reconciler
	results  []*Result
}

func newHarness(t *testing.T, mode generator.ValidationMode, peers ...string) *harness {
	t.Helper()
	h := &harness{
		identity: &fakeIdentity{id: container.NetworkIdentity{Network: "svc-net", SelfName: "proxy-sidecar"}},
		lister:   &fakeLister{names: peers},
		proxy:    newFakeProxy(),
	}
	h.gen = generator.New(h.lister, generator.Options{Validation: mode}, nil)
	h.rec = New(h.identity, h.gen, h.proxy, Options{
		Interval: 10 * time.Millisecond,
		Observers: []Observer{ObserverFunc(func(ctx context.Context, res *Result) {
			h.results = append(h.results, res)
		})},
	})
	return h
}

func TestCycle_AppliedThenNoOp(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "worker", "api", "proxy-sidecar")
	ctx := context.Background()

	first := h.rec.Cycle(ctx)
	if first.Outcome != OutcomeApplied {
		t.Fatalf("first Outcome = %q, want applied (err=%v)", first.Outcome, first.Err)
	}

	want := generator.RenderBlock("api", 80, 80) + "\n\n" + generator.RenderBlock("worker", 80, 80)
	if h.proxy.file != want {
		t.Errorf("file content mismatch\ngot:\n%s\nwant:\n%s", h.proxy.file, want)
	}
	if h.proxy.reloads != 1 {
		t.Errorf("reloads = %d, want 1", h.proxy.reloads)
	}
	if first.CandidateDigest == first.PreviousDigest {
		t.Error("digests should differ when the config changed")
	}

	second := h.rec.Cycle(ctx)
	if second.Outcome != OutcomeNoOp {
		t.Fatalf("second Outcome = %q, want noop", second.Outcome)
	}
	if len(h.proxy.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(h.proxy.writes))
	}
	if h.proxy.reloads != 1 {
		t.Errorf("reloads after no-op = %d, want 1", h.proxy.reloads)
	}
	if second.State != StateNoOp {
		t.Errorf("State = %q, want %q", second.State, StateNoOp)
	}

	if len(h.results) != 2 {
		t.Errorf("observer saw %d results, want 2", len(h.results))
	}
}

func TestCycle_RollbackRestoresPreviousContent(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	ctx := context.Background()

	if res := h.rec.Cycle(ctx); res.Outcome != OutcomeApplied {
		t.Fatalf("setup cycle Outcome = %q (err=%v)", res.Outcome, res.Err)
	}
	before := h.proxy.file
	reloadsBefore := h.proxy.reloads

	h.lister.set("api", "worker")
	h.proxy.valid = func(doc string) bool { return !strings.Contains(doc, "worker") }

	res := h.rec.Cycle(ctx)
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("Outcome = %q, want rolled_back", res.Outcome)
	}
	if h.proxy.file != before {
		t.Errorf("file after rollback differs from pre-cycle content\ngot:\n%s\nwant:\n%s", h.proxy.file, before)
	}
	if h.proxy.reloads != reloadsBefore {
		t.Error("reload must not be invoked on rollback")
	}
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	if res.State != StateRollingBack {
		t.Errorf("State = %q, want %q", res.State, StateRollingBack)
	}
}

func TestCycle_RollbackFromEmpty(t *testing.T) {
	tests := []struct {
		name        string
		existed     bool
		wantMissing bool
	}{
		{name: "no file before the cycle", wantMissing: true},
		{name: "empty file before the cycle", existed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, generator.ValidationSkip, "api")
			if tt.existed {
				h.proxy.setFile("")
			}
			h.proxy.valid = func(string) bool { return false }

			res := h.rec.Cycle(context.Background())
			if res.Outcome != OutcomeRolledBack {
				t.Fatalf("Outcome = %q, want rolled_back", res.Outcome)
			}
			if h.proxy.file != "" {
				t.Errorf("file = %q, want empty", h.proxy.file)
			}
			if h.proxy.missing != tt.wantMissing {
				t.Errorf("missing = %v, want %v", h.proxy.missing, tt.wantMissing)
			}
			if h.proxy.restores != 1 {
				t.Errorf("restores = %d, want 1", h.proxy.restores)
			}
		})
	}
}

func TestCycle_RollbackWriteFails(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.proxy.valid = func(string) bool { return false }
	h.proxy.rollbackErr = errors.New("disk full")

	res := h.rec.Cycle(context.Background())
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("Outcome = %q, want rolled_back", res.Outcome)
	}
	if res.Err == nil {
		t.Fatal("expected rollback error to be attached")
	}
	if res.Kind != KindIO {
		t.Errorf("Kind = %q, want %q", res.Kind, KindIO)
	}
}

func TestCycle_InvalidPeerRejectedBeforeWrite(t *testing.T) {
	h := newHarness(t, generator.ValidationReject, "bad host")

	res := h.rec.Cycle(context.Background())
	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", res.Outcome)
	}
	if res.Kind != KindInvalidPeerName {
		t.Errorf("Kind = %q, want %q", res.Kind, KindInvalidPeerName)
	}
	if len(h.proxy.writes) != 0 {
		t.Errorf("writes = %d, want 0", len(h.proxy.writes))
	}
}

func TestCycle_DefaultNetwork(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.identity.id.Network = container.DefaultNetwork

	res := h.rec.Cycle(context.Background())
	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", res.Outcome)
	}
	if res.Kind != KindUnconfiguredNetwork {
		t.Errorf("Kind = %q, want %q", res.Kind, KindUnconfiguredNetwork)
	}
	if res.Document != "" {
		t.Errorf("Document = %q, want empty", res.Document)
	}
	if h.identity.invalidated != 1 {
		t.Errorf("identity invalidated %d times, want 1", h.identity.invalidated)
	}
	if len(h.proxy.writes) != 0 {
		t.Error("nothing should be written on an unconfigured network")
	}
}

func TestCycle_Failures(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *harness)
		wantKind   ErrorKind
		wantState  State
		wantWrites int
	}{
		{
			name: "identity query fails",
			setup: func(h *harness) {
				h.identity.err = &container.RuntimeQueryError{Operation: "inspect", Target: "x", Cause: errors.New("exit 1")}
			},
			wantKind:  KindRuntimeQuery,
			wantState: StateDiscovering,
		},
		{
			name: "malformed inspect",
			setup: func(h *harness) {
				h.identity.err = &container.MalformedResponseError{Operation: "inspect", Target: "x", Message: "2 records"}
			},
			wantKind:  KindMalformedResponse,
			wantState: StateDiscovering,
		},
		{
			name: "list fails",
			setup: func(h *harness) {
				h.lister.err = &container.RuntimeQueryError{Operation: "list", Target: "svc-net", Cause: errors.New("exit 1")}
			},
			wantKind:  KindRuntimeQuery,
			wantState: StateGenerating,
		},
		{
			name:      "read fails",
			setup:     func(h *harness) { h.proxy.readErr = errors.New("permission denied") },
			wantKind:  KindIO,
			wantState: StateComparing,
		},
		{
			name:      "write fails",
			setup:     func(h *harness) { h.proxy.writeErr = errors.New("read-only file system") },
			wantKind:  KindIO,
			wantState: StateApplying,
		},
		{
			name:       "validator cannot run",
			setup:      func(h *harness) { h.proxy.validateErr = errors.New("nginx not found") },
			wantKind:   KindCommand,
			wantState:  StateRollingBack,
			wantWrites: 1,
		},
		{
			name:       "reload fails",
			setup:      func(h *harness) { h.proxy.reloadErr = errors.New("no master process") },
			wantKind:   KindCommand,
			wantState:  StateReloading,
			wantWrites: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, generator.ValidationSkip, "api")
			tt.setup(h)

			res := h.rec.Cycle(context.Background())
			if res.Outcome != OutcomeFailed {
				t.Fatalf("Outcome = %q, want failed", res.Outcome)
			}
			if res.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q (err=%v)", res.Kind, tt.wantKind, res.Err)
			}
			if res.State != tt.wantState {
				t.Errorf("State = %q, want %q", res.State, tt.wantState)
			}
			if len(h.proxy.writes) != tt.wantWrites {
				t.Errorf("writes = %d, want %d", len(h.proxy.writes), tt.wantWrites)
			}
		})
	}
}

func TestCycle_ValidatorUnavailableRestoresFile(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.proxy.setFile("previous")
	h.proxy.validateErr = errors.New("nginx not found")

	h.rec.Cycle(context.Background())
	if h.proxy.file != "previous" {
		t.Errorf("file = %q, want previous content restored", h.proxy.file)
	}
}

func TestCycle_ReloadRetriedAfterFailure(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.proxy.reloadErr = errors.New("no master process")
	ctx := context.Background()

	if res := h.rec.Cycle(ctx); res.Outcome != OutcomeFailed {
		t.Fatalf("first Outcome = %q, want failed", res.Outcome)
	}

	h.proxy.reloadErr = nil
	res := h.rec.Cycle(ctx)
	if res.Outcome != OutcomeApplied {
		t.Fatalf("second Outcome = %q, want applied", res.Outcome)
	}
	if h.proxy.reloads != 2 {
		t.Errorf("reloads = %d, want 2", h.proxy.reloads)
	}
	if len(h.proxy.writes) != 1 {
		t.Errorf("writes = %d, want 1", len(h.proxy.writes))
	}

	if res := h.rec.Cycle(ctx); res.Outcome != OutcomeNoOp {
		t.Errorf("third Outcome = %q, want noop", res.Outcome)
	}
}

func TestCycle_ReloadAfterRestart(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.proxy.reloadErr = errors.New("no master process")
	ctx := context.Background()

	if res := h.rec.Cycle(ctx); res.Outcome != OutcomeFailed {
		t.Fatalf("first process Outcome = %q, want failed", res.Outcome)
	}

	// A new process finds the written file but cannot know it was loaded.
	h.proxy.reloadErr = nil
	restarted := New(h.identity, h.gen, h.proxy, Options{Interval: 10 * time.Millisecond})

	res := restarted.Cycle(ctx)
	if res.Outcome != OutcomeApplied {
		t.Fatalf("restarted Outcome = %q, want applied (err=%v)", res.Outcome, res.Err)
	}
	if h.proxy.reloads != 2 {
		t.Errorf("reloads = %d, want 2", h.proxy.reloads)
	}
	if len(h.proxy.writes) != 1 {
		t.Errorf("writes = %d, want 1, the file was already current", len(h.proxy.writes))
	}

	if res := restarted.Cycle(ctx); res.Outcome != OutcomeNoOp {
		t.Errorf("next Outcome = %q, want noop", res.Outcome)
	}
	if h.proxy.reloads != 2 {
		t.Errorf("reloads after no-op = %d, want 2", h.proxy.reloads)
	}
}

func TestCycle_FirstCycleReloadsCurrentFile(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.proxy.setFile(generator.RenderBlock("api", 80, 80))
	ctx := context.Background()

	if res := h.rec.Cycle(ctx); res.Outcome != OutcomeApplied || res.State != StateReloading {
		t.Fatalf("first cycle = %q/%q, want applied/reloading", res.Outcome, res.State)
	}
	if len(h.proxy.writes) != 0 || h.proxy.validates != 0 {
		t.Errorf("writes = %d, validates = %d, want 0/0", len(h.proxy.writes), h.proxy.validates)
	}
	if res := h.rec.Cycle(ctx); res.Outcome != OutcomeNoOp {
		t.Errorf("second Outcome = %q, want noop", res.Outcome)
	}
	if h.proxy.reloads != 1 {
		t.Errorf("reloads = %d, want 1", h.proxy.reloads)
	}
}

type panickingPlanner struct{}

func (panickingPlanner) Plan(ctx context.Context, network, selfName string) (*generator.Plan, error) {
	panic("boom")
}

func TestCycle_PanicRecovered(t *testing.T) {
	identity := &fakeIdentity{id: container.NetworkIdentity{Network: "svc-net", SelfName: "self"}}
	rec := New(identity, panickingPlanner{}, newFakeProxy(), Options{})

	res := rec.Cycle(context.Background())
	if res.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %q, want failed", res.Outcome)
	}
	if res.Kind != KindUnknown {
		t.Errorf("Kind = %q, want %q", res.Kind, KindUnknown)
	}
	if !strings.Contains(res.Err.Error(), "boom") {
		t.Errorf("Err = %v, want panic value", res.Err)
	}
}

func TestCycle_ObserverPanicDoesNotEscape(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.rec.AddObserver(ObserverFunc(func(ctx context.Context, res *Result) { panic("observer") }))

	res := h.rec.Cycle(context.Background())
	if res.Outcome != OutcomeApplied {
		t.Errorf("Outcome = %q, want applied", res.Outcome)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{&container.RuntimeQueryError{Cause: errors.New("x")}, KindRuntimeQuery},
		{&container.MalformedResponseError{}, KindMalformedResponse},
		{container.NewDefaultNetworkError("bridge"), KindUnconfiguredNetwork},
		{&generator.InvalidPeerNameError{Names: []string{"a b"}}, KindInvalidPeerName},
		{&proxyctl.IOError{Cause: errors.New("x")}, KindIO},
		{&proxyctl.CommandError{Cause: errors.New("x")}, KindCommand},
		{errors.New("other"), KindUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
