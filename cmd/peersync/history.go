package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/journal"
	"mercator-hq/peersync/pkg/journal/storage"
	"mercator-hq/peersync/pkg/reconciler"
)

var historyFlags struct {
	limit     int
	outcome   string
	errorKind string
	since     time.Duration
	output    string
}

var historyShowFlags struct {
	document bool
	output   string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded reconciliation cycles",
	Long: `List the reconciliation cycles recorded in the journal, newest first.

The journal must be enabled (journal.enabled: true) with the sqlite
backend; the memory backend does not outlive the run command.

Examples:
  # Last 20 cycles
  peersync history --limit 20

  # Rollbacks in the last day
  peersync history --outcome rolled_back --since 24h

  # Export as CSV
  peersync history --output csv > cycles.csv`,
	RunE: listHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show one journal record",
	Long: `Show a single journal record. With --document the stored nginx config
snapshot is decompressed and printed instead.

Examples:
  peersync history show 6f1c0c1e-0c55-4a43-9b1e-5b0f0b8f2a77
  peersync history show 6f1c0c1e-0c55-4a43-9b1e-5b0f0b8f2a77 --document > previous.conf`,
	Args: cobra.ExactArgs(1),
	RunE: showHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", journal.DefaultQueryLimit, "maximum number of records")
	historyCmd.Flags().StringVar(&historyFlags.outcome, "outcome", "", "filter by outcome: noop, applied, rolled_back, failed")
	historyCmd.Flags().StringVar(&historyFlags.errorKind, "error-kind", "", "filter by error kind (e.g. unconfigured_network)")
	historyCmd.Flags().DurationVar(&historyFlags.since, "since", 0, "only cycles started within this duration")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "text", "output format: text, json, csv")

	historyShowCmd.Flags().BoolVar(&historyShowFlags.document, "document", false, "print the stored config snapshot")
	historyShowCmd.Flags().StringVarP(&historyShowFlags.output, "output", "o", "text", "output format: text, json")
}

// recordTable renders journal records as rows.
type recordTable []*journal.Record

func (t recordTable) Headers() []string {
	return []string{"ID", "STARTED", "OUTCOME", "PEERS", "DIGEST", "DURATION", "ERROR"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		errText := r.ErrorKind
		if r.Error != "" {
			errText = fmt.Sprintf("%s: %s", r.ErrorKind, r.Error)
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.Outcome,
			strconv.Itoa(len(r.Peers)),
			r.CandidateDigest,
			r.Duration().Round(time.Millisecond).String(),
			errText,
		})
	}
	return rows
}

// recordDetail renders one record as FIELD/VALUE rows.
type recordDetail struct {
	*journal.Record
}

func (d recordDetail) Headers() []string { return []string{"FIELD", "VALUE"} }

func (d recordDetail) Rows() [][]string {
	r := d.Record
	return [][]string{
		{"id", r.ID},
		{"cycle_id", r.CycleID},
		{"started_at", r.StartedAt.UTC().Format(time.RFC3339Nano)},
		{"duration", r.Duration().String()},
		{"outcome", r.Outcome},
		{"error_kind", r.ErrorKind},
		{"error", r.Error},
		{"network", r.Network},
		{"self_name", r.SelfName},
		{"peers", strings.Join(r.Peers, ",")},
		{"skipped", strings.Join(r.Skipped, ",")},
		{"candidate_digest", r.CandidateDigest},
		{"previous_digest", r.PreviousDigest},
		{"document", strconv.FormatBool(r.HasDocument())},
	}
}

// openHistory opens the journal for reading.
func openHistory() (journal.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, cli.NewConfigError("journal.enabled", "the journal is disabled")
	}
	if cfg.Journal.Backend == storage.BackendMemory {
		return nil, cli.NewConfigError("journal.backend", "the memory backend keeps no history between processes")
	}
	return openJournal(cfg)
}

func historyQuery(now time.Time) (*journal.Query, error) {
	q := &journal.Query{
		Limit:     historyFlags.limit,
		ErrorKind: historyFlags.errorKind,
	}
	if historyFlags.outcome != "" {
		outcome, ok := reconciler.ParseOutcome(historyFlags.outcome)
		if !ok {
			return nil, fmt.Errorf("unknown outcome %q", historyFlags.outcome)
		}
		q.Outcome = string(outcome)
	}
	if historyFlags.since > 0 {
		q.Since = now.Add(-historyFlags.since)
	}
	return q, nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(historyFlags.output)
	if err != nil {
		return err
	}
	q, err := historyQuery(time.Now())
	if err != nil {
		return err
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(context.Background(), q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), recordTable(records))
}

func showHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(historyShowFlags.output)
	if err != nil {
		return err
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(context.Background(), args[0])
	if errors.Is(err, journal.ErrNotFound) {
		return cli.NewCommandError("history show", fmt.Errorf("no journal record %q", args[0]))
	}
	if err != nil {
		return cli.NewCommandError("history show", err)
	}

	return writeRecord(cmd, record, format, historyShowFlags.document)
}

func writeRecord(cmd *cobra.Command, record *journal.Record, format cli.OutputFormat, document bool) error {
	out := cmd.OutOrStdout()

	if document {
		// An empty candidate compresses to nothing; only its digest tells it
		// apart from a record stored without snapshots.
		if !record.HasDocument() && record.CandidateDigest != generator.Digest("") {
			return cli.NewCommandError("history show", fmt.Errorf("record %s has no stored document", record.ID))
		}
		doc, err := journal.DecompressDocument(record.Document)
		if err != nil {
			return cli.NewCommandError("history show", err)
		}
		_, err = fmt.Fprint(out, doc)
		return err
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, record)
	}
	return cli.NewFormatter(format).FormatTo(out, recordDetail{record})
}
