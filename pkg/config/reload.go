package config

import "reflect"

// ReloadPlan describes how a reloaded configuration differs from the one
// the process is running with.
type ReloadPlan struct {
	// Interval is set when reconcile.interval changed.
	Interval bool

	// Backoff is set when reconcile.backoff changed.
	Backoff bool

	// LogLevel is set when telemetry.logging.level changed.
	LogLevel bool

	// HostnameValidation is set when generator.hostname_validation changed.
	HostnameValidation bool

	// RestartRequired lists the changed sections that only take effect
	// after a restart.
	RestartRequired []string
}

// HasChanges reports whether anything differs.
func (p ReloadPlan) HasChanges() bool {
	return p.Interval || p.Backoff || p.LogLevel || p.HostnameValidation || len(p.RestartRequired) > 0
}

// Diff compares two configurations. A nil prev is treated as the defaults.
func Diff(prev, next *Config) ReloadPlan {
	if prev == nil {
		prev = Default()
	}

	plan := ReloadPlan{
		Interval:           prev.Reconcile.Interval != next.Reconcile.Interval,
		Backoff:            prev.Reconcile.Backoff != next.Reconcile.Backoff,
		LogLevel:           prev.Telemetry.Logging.Level != next.Telemetry.Logging.Level,
		HostnameValidation: prev.Generator.HostnameValidation != next.Generator.HostnameValidation,
	}

	restart := []struct {
		section    string
		prev, next any
	}{
		{"runtime", prev.Runtime, next.Runtime},
		{"proxy", prev.Proxy, next.Proxy},
		{"generator.port", prev.Generator.Port, next.Generator.Port},
		{"generator.listen_port", prev.Generator.ListenPort, next.Generator.ListenPort},
		{"journal", prev.Journal, next.Journal},
		{"telemetry.logging.format", prev.Telemetry.Logging.Format, next.Telemetry.Logging.Format},
		{"telemetry.logging.add_source", prev.Telemetry.Logging.AddSource, next.Telemetry.Logging.AddSource},
		{"telemetry.metrics", prev.Telemetry.Metrics, next.Telemetry.Metrics},
		{"telemetry.tracing", prev.Telemetry.Tracing, next.Telemetry.Tracing},
		{"telemetry.server", prev.Telemetry.Server, next.Telemetry.Server},
		{"watch", prev.Watch, next.Watch},
	}
	for _, r := range restart {
		if !reflect.DeepEqual(r.prev, r.next) {
			plan.RestartRequired = append(plan.RestartRequired, r.section)
		}
	}

	return plan
}
