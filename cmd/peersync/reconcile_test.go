package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/command"
	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/journal"
	"mercator-hq/peersync/pkg/journal/storage"
	"mercator-hq/peersync/pkg/reconciler"
)

func TestCycleReport(t *testing.T) {
	res := &reconciler.Result{
		ID:       "cycle-1",
		Outcome:  reconciler.OutcomeRolledBack,
		State:    reconciler.StateRollingBack,
		Network:  "app_net",
		Peers:    []string{"api", "web"},
		Skipped:  []string{"bad.-name"},
		Err:      errors.New("nginx -t rejected the config"),
		Kind:     reconciler.KindCommand,
		Duration: 1234 * time.Microsecond,
	}

	var buf bytes.Buffer
	if err := cli.NewFormatter(cli.FormatCSV).FormatTo(&buf, newCycleReport(res)); err != nil {
		t.Fatalf("FormatTo() error: %v", err)
	}

	want := "CYCLE,OUTCOME,NETWORK,PEERS,SKIPPED,DURATION,ERROR\ncycle-1,rolled_back,app_net,2,bad.-name,1ms,nginx -t rejected the config\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}

	empty := newCycleReport(&reconciler.Result{ID: "cycle-2", Outcome: reconciler.OutcomeNoOp})
	if empty.Peers == nil {
		t.Error("Peers should be an empty list, not nil")
	}
	if empty.Error != "" || empty.ErrorKind != "" {
		t.Errorf("no-op report carries an error: %+v", empty)
	}
}

func TestBuildComponents_OneCycle(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.ConfigPath = t.TempDir() + "/default.conf"
	cfg.Runtime.SelfName = "proxy"

	docker := fakeDocker("proxy", "api")
	nginx := command.NewFakeRunner().
		On("nginx -t", command.Response{}).
		On("nginx -s reload", command.Response{})

	store := storage.NewMemoryStorage()
	comps, err := buildComponents(cfg, docker, nginx, nil, componentOptions{
		Observers: []reconciler.Observer{journalWriter(store, true, time.Second, slog.Default())},
	})
	if err != nil {
		t.Fatalf("buildComponents() error: %v", err)
	}

	res := comps.reconciler.Cycle(context.Background())
	if res.Outcome != reconciler.OutcomeApplied {
		t.Fatalf("outcome = %s (%v), want applied", res.Outcome, res.Err)
	}

	records, err := store.Query(context.Background(), &journal.Query{})
	if err != nil || len(records) != 1 {
		t.Fatalf("journal has %d records (%v), want 1", len(records), err)
	}
	doc, err := journal.DecompressDocument(records[0].Document)
	if err != nil {
		t.Fatalf("DecompressDocument() error: %v", err)
	}
	if !strings.Contains(doc, "server_name api;") {
		t.Errorf("stored document = %q", doc)
	}
	if nginx.CallCount("nginx -s reload") != 1 {
		t.Errorf("nginx calls = %v, want one reload", nginx.Calls())
	}
}

func TestBuildComponents_InvalidValidationMode(t *testing.T) {
	cfg := config.Default()
	cfg.Generator.HostnameValidation = "strict"

	_, err := buildComponents(cfg, command.NewFakeRunner(), command.NewFakeRunner(), nil, componentOptions{})
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("buildComponents() error = %v, want a config error", err)
	}
}
