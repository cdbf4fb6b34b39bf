package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	"mercator-hq/peersync/pkg/container"
	"mercator-hq/peersync/pkg/generator"
)

func TestBackoff_Delay(t *testing.T) {
	interval := 20 * time.Second
	b := Backoff{Enabled: true, MaxInterval: 5 * time.Minute, Multiplier: 2}

	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 20 * time.Second},
		{1, 20 * time.Second},
		{2, 40 * time.Second},
		{3, 80 * time.Second},
		{4, 160 * time.Second},
		{5, 5 * time.Minute},
		{50, 5 * time.Minute},
	}

	for _, tt := range tests {
		if got := b.Delay(interval, tt.n); got != tt.want {
			t.Errorf("Delay(n=%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	disabled := Backoff{Enabled: false, MaxInterval: time.Hour, Multiplier: 2}
	if got := disabled.Delay(interval, 10); got != interval {
		t.Errorf("disabled Delay = %v, want %v", got, interval)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	cycles := 0
	h.rec.AddObserver(ObserverFunc(func(ctx context.Context, res *Result) {
		mu.Lock()
		defer mu.Unlock()
		cycles++
		if cycles == 3 {
			cancel()
		}
	}))

	done := make(chan error, 1)
	go func() { done <- h.rec.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("Run() did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if cycles != 3 {
		t.Errorf("cycles = %d, want 3", cycles)
	}
	if h.proxy.reloads != 1 {
		t.Errorf("reloads = %d, want 1 (later cycles are no-ops)", h.proxy.reloads)
	}
}

func TestRun_SurvivesFailures(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip, "api")
	h.identity.id.Network = container.DefaultNetwork
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var kinds []ErrorKind
	h.rec.AddObserver(ObserverFunc(func(ctx context.Context, res *Result) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, res.Kind)
		if len(kinds) == 2 {
			cancel()
		}
	}))

	if err := h.rec.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, k := range kinds {
		if k != KindUnconfiguredNetwork {
			t.Errorf("cycle %d Kind = %q, want %q", i, k, KindUnconfiguredNetwork)
		}
	}
}

func TestReconciler_SetInterval(t *testing.T) {
	h := newHarness(t, generator.ValidationSkip)
	h.rec.SetInterval(time.Minute)
	if got := h.rec.Interval(); got != time.Minute {
		t.Errorf("Interval() = %v, want 1m", got)
	}

	h.rec.SetInterval(0)
	if got := h.rec.Interval(); got != time.Minute {
		t.Errorf("Interval() after SetInterval(0) = %v, want unchanged", got)
	}

	h.rec.SetBackoff(Backoff{Enabled: true, Multiplier: 3, MaxInterval: time.Hour})
	if got := h.rec.nextDelay(2); got != 3*time.Minute {
		t.Errorf("nextDelay(2) = %v, want 3m", got)
	}
}
