package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/peersync/pkg/journal"
)

// Config configures journal retention.
type Config struct {
	// RetentionDays deletes records older than this many days. 0 disables
	// age-based pruning.
	RetentionDays int

	// MaxRecords keeps at most this many records. 0 disables count-based
	// pruning.
	MaxRecords int64

	// PruneSchedule is a standard 5-field cron expression. Empty disables
	// scheduled pruning.
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 30,
		MaxRecords:    10000,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner deletes journal records past their retention limits.
type Pruner struct {
	storage   journal.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a pruner for storage.
func NewPruner(storage journal.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "journal.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune applies the age limit, then the count limit, and returns the
// number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("journal pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no journal records pruned")
	}

	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	return p.storage.Delete(ctx, &journal.Query{Until: cutoff})
}

// pruneByCount finds the newest record beyond MaxRecords and deletes it
// together with everything older.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &journal.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	boundary, err := p.storage.Query(ctx, &journal.Query{
		Limit:  1,
		Offset: int(p.config.MaxRecords),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query records: %w", err)
	}
	if len(boundary) == 0 {
		return 0, nil
	}

	p.logger.Info("journal exceeds record limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
	)

	return p.storage.Delete(ctx, &journal.Query{Until: boundary[0].StartedAt})
}

// Start schedules pruning according to PruneSchedule.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
