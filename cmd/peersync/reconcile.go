package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/journal"
	"mercator-hq/peersync/pkg/reconciler"
	"mercator-hq/peersync/pkg/telemetry/tracing"
)

var reconcileFlags struct {
	output string
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a single reconciliation cycle",
	Long: `Run one reconciliation cycle and exit.

The exit code is 0 when the cycle ended noop or applied, 3 when it failed
or rolled back, and 2 when the configuration is invalid. When the journal
is enabled the cycle is recorded like any cycle of the run loop.

Examples:
  # Reconcile once, e.g. from a container start hook
  peersync reconcile

  # Machine-readable result
  peersync reconcile --output json`,
	RunE: reconcileOnce,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&reconcileFlags.output, "output", "o", "text", "output format: text, json, csv")
}

// cycleReport is the printable form of a cycle result.
type cycleReport struct {
	CycleID   string   `json:"cycle_id"`
	Outcome   string   `json:"outcome"`
	State     string   `json:"state"`
	Network   string   `json:"network,omitempty"`
	SelfName  string   `json:"self_name,omitempty"`
	Peers     []string `json:"peers"`
	Skipped   []string `json:"skipped,omitempty"`
	Digest    string   `json:"digest,omitempty"`
	Duration  string   `json:"duration"`
	ErrorKind string   `json:"error_kind,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func newCycleReport(res *reconciler.Result) cycleReport {
	r := cycleReport{
		CycleID:   res.ID,
		Outcome:   string(res.Outcome),
		State:     string(res.State),
		Network:   res.Network,
		SelfName:  res.SelfName,
		Peers:     res.Peers,
		Skipped:   res.Skipped,
		Digest:    res.CandidateDigest,
		Duration:  res.Duration.Round(time.Millisecond).String(),
		ErrorKind: string(res.Kind),
	}
	if r.Peers == nil {
		r.Peers = []string{}
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

func (r cycleReport) Headers() []string {
	return []string{"CYCLE", "OUTCOME", "NETWORK", "PEERS", "SKIPPED", "DURATION", "ERROR"}
}

func (r cycleReport) Rows() [][]string {
	return [][]string{{
		r.CycleID,
		r.Outcome,
		r.Network,
		strconv.Itoa(len(r.Peers)),
		strings.Join(r.Skipped, ","),
		r.Duration,
		r.Error,
	}}
}

func reconcileOnce(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(reconcileFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("reconcile", err)
	}
	defer tracer.Shutdown(context.Background())

	var observers []reconciler.Observer
	if cfg.Journal.Enabled {
		store, err := openJournal(cfg)
		if err != nil {
			return cli.NewCommandError("reconcile", err)
		}
		defer store.Close()
		observers = append(observers, journalWriter(store, cfg.Journal.StoreDocuments, cfg.Journal.WriteTimeout, logger.Slog()))
	}

	runtimeRunner, proxyRunner := newRunners(cfg, nil)
	comps, err := buildComponents(cfg, runtimeRunner, proxyRunner, logger.Slog(), componentOptions{
		Tracer:    tracer,
		Observers: observers,
	})
	if err != nil {
		return err
	}

	res := comps.reconciler.Cycle(ctx)

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), newCycleReport(res)); err != nil {
		return err
	}

	switch res.Outcome {
	case reconciler.OutcomeFailed, reconciler.OutcomeRolledBack:
		cycleErr := fmt.Errorf("cycle %s", res.Outcome)
		if res.Err != nil {
			cycleErr = fmt.Errorf("cycle %s: %w", res.Outcome, res.Err)
		}
		return &cli.CommandError{Command: "reconcile", Err: cycleErr, Code: cli.ExitCycle}
	}
	return nil
}

// journalWriter records a cycle synchronously. The one-shot command exits
// right after the cycle, so the asynchronous Recorder would buy nothing.
func journalWriter(store journal.Storage, withDocument bool, timeout time.Duration, logger *slog.Logger) reconciler.Observer {
	return reconciler.ObserverFunc(func(ctx context.Context, res *reconciler.Result) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()
		}
		if err := store.Store(ctx, journal.FromResult(res, withDocument)); err != nil {
			logger.WarnContext(ctx, "journal write failed", "error", err)
		}
	})
}
