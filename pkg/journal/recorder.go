package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/peersync/pkg/reconciler"
)

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the write channel.
	// Default: 100
	AsyncBuffer int

	// WriteTimeout bounds each storage write and how long ObserveCycle
	// waits for room in a full channel.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// StoreDocuments attaches a compressed copy of each candidate document.
	StoreDocuments bool
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		AsyncBuffer:    100,
		WriteTimeout:   5 * time.Second,
		StoreDocuments: true,
	}
}

// Recorder writes one journal record per reconciliation cycle. Writes are
// asynchronous so a slow database never delays the loop.
type Recorder struct {
	storage    Storage
	config     *RecorderConfig
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewRecorder starts a Recorder writing to storage.
func NewRecorder(storage Storage, config *RecorderConfig, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 100
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		recordChan: make(chan *Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "journal.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// ObserveCycle implements reconciler.Observer.
func (r *Recorder) ObserveCycle(ctx context.Context, res *reconciler.Result) {
	if err := r.Record(FromResult(res, r.config.StoreDocuments)); err != nil {
		r.logger.Warn("dropping journal record", "cycle_id", res.ID, "error", err)
	}
}

// Record enqueues rec for writing.
func (r *Recorder) Record(rec *Record) error {
	select {
	case <-r.done:
		return &RecorderError{RecordID: rec.ID, Cause: context.Canceled}
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- rec:
		return nil
	case <-timer.C:
		return &RecorderError{RecordID: rec.ID, Cause: context.DeadlineExceeded}
	case <-r.done:
		return &RecorderError{RecordID: rec.ID, Cause: context.Canceled}
	}
}

// Close stops accepting records and waits until the queued ones are
// written.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.write(rec)

		case <-r.done:
			for {
				select {
				case rec := <-r.recordChan:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Error("failed to store journal record",
			"record_id", rec.ID,
			"cycle_id", rec.CycleID,
			"error", err,
		)
		return
	}

	if d := time.Since(start); d > r.config.WriteTimeout/2 {
		r.logger.Warn("slow journal write",
			"record_id", rec.ID,
			"duration_ms", d.Milliseconds(),
		)
	}
}
