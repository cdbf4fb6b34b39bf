package main

import (
	"context"
	"fmt"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/generator"
	"mercator-hq/peersync/pkg/reconciler"
	"mercator-hq/peersync/pkg/telemetry/health"
	"mercator-hq/peersync/pkg/telemetry/logging"
	"mercator-hq/peersync/pkg/telemetry/metrics"
)

// reloader applies a changed config file to the running components.
type reloader struct {
	path       string
	logger     *logging.Logger
	reconciler *reconciler.Reconciler
	generator  *generator.Generator
	tracker    *health.CycleTracker
	collector  *metrics.Collector

	// overrides re-applies command-line flags to each reloaded config.
	overrides func(*config.Config)
}

// watch reloads on SIGHUP and, when cfg.Watch.Enabled, on file changes.
// It returns when ctx is cancelled.
func (r *reloader) watch(ctx context.Context, cfg *config.Config) {
	hup, stop := cli.NotifyReload()
	defer stop()

	if cfg.Watch.Enabled && r.path != "" {
		w, err := config.NewWatcher(r.path, cfg.Watch.Debounce, r.logger.Slog())
		if err != nil {
			r.logger.Warn("config file watching disabled", "error", err)
		} else {
			go func() {
				if err := w.Watch(ctx, r.reload); err != nil {
					r.logger.Warn("config file watcher stopped", "error", err)
				}
			}()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			r.logger.Info("SIGHUP received, reloading configuration")
			if err := r.reload(); err != nil {
				r.logger.Error("configuration reload failed", "error", err)
			}
		}
	}
}

// reload loads the config file again and applies what can change at
// runtime. An invalid file leaves the running configuration untouched.
func (r *reloader) reload() error {
	if r.path == "" {
		return fmt.Errorf("no config file to reload")
	}

	var overrides []func(*config.Config)
	if r.overrides != nil {
		overrides = append(overrides, r.overrides)
	}

	prev, next, err := config.ReloadConfig(r.path, overrides...)
	if err != nil {
		r.collector.RecordConfigReload(metrics.ReloadRejected)
		return err
	}

	plan := config.Diff(prev, next)
	if !plan.HasChanges() {
		r.collector.RecordConfigReload(metrics.ReloadNoChange)
		r.logger.Debug("configuration unchanged")
		return nil
	}

	r.apply(plan, next)
	r.collector.RecordConfigReload(metrics.ReloadApplied)
	return nil
}

func (r *reloader) apply(plan config.ReloadPlan, next *config.Config) {
	if plan.LogLevel {
		if err := r.logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
			r.logger.Warn("log level not changed", "error", err)
		} else {
			r.logger.Info("log level changed", "level", next.Telemetry.Logging.Level)
		}
	}

	if plan.Interval {
		r.reconciler.SetInterval(next.Reconcile.Interval)
		r.tracker.SetStaleAfter(staleWindow(next))
		r.logger.Info("reconcile interval changed", "interval", next.Reconcile.Interval)
	}

	if plan.Backoff {
		r.reconciler.SetBackoff(backoffFrom(&next.Reconcile))
		r.logger.Info("reconcile backoff changed",
			"enabled", next.Reconcile.Backoff.Enabled,
			"max_interval", next.Reconcile.Backoff.MaxInterval,
			"multiplier", next.Reconcile.Backoff.Multiplier,
		)
	}

	if plan.HostnameValidation {
		mode, err := generator.ParseValidationMode(next.Generator.HostnameValidation)
		if err != nil {
			r.logger.Warn("hostname validation not changed", "error", err)
		} else {
			r.generator.SetValidation(mode)
			r.logger.Info("hostname validation changed", "mode", mode)
		}
	}

	if len(plan.RestartRequired) > 0 {
		r.logger.Warn("configuration changes require a restart to take effect",
			"sections", plan.RestartRequired,
		)
	}
}
