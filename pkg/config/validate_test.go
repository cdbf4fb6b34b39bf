package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(c *Config)
		wantFields []string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:       "explicit default network",
			mutate:     func(c *Config) { c.Runtime.Network = "bridge" },
			wantFields: []string{"runtime.network"},
		},
		{
			name: "runtime and proxy required fields",
			mutate: func(c *Config) {
				c.Runtime.Binary = ""
				c.Proxy.ConfigPath = ""
				c.Proxy.CommandTimeout = 0
			},
			wantFields: []string{"runtime.binary", "proxy.config_path", "proxy.command_timeout"},
		},
		{
			name:       "file mode with type bits",
			mutate:     func(c *Config) { c.Proxy.FileMode = 0o4755 },
			wantFields: []string{"proxy.file_mode"},
		},
		{
			name: "ports out of range",
			mutate: func(c *Config) {
				c.Generator.Port = 0
				c.Generator.ListenPort = 70000
			},
			wantFields: []string{"generator.port", "generator.listen_port"},
		},
		{
			name:       "interval too short",
			mutate:     func(c *Config) { c.Reconcile.Interval = 100 * time.Millisecond },
			wantFields: []string{"reconcile.interval"},
		},
		{
			name: "backoff bounds",
			mutate: func(c *Config) {
				c.Reconcile.Backoff.Multiplier = 0.5
				c.Reconcile.Backoff.MaxInterval = time.Second
			},
			wantFields: []string{"reconcile.backoff.multiplier", "reconcile.backoff.max_interval"},
		},
		{
			name: "backoff bounds ignored when disabled",
			mutate: func(c *Config) {
				c.Reconcile.Backoff.Enabled = false
				c.Reconcile.Backoff.Multiplier = 0.5
			},
		},
		{
			name: "journal disabled skips checks",
			mutate: func(c *Config) {
				c.Journal.Backend = "postgres"
			},
		},
		{
			name: "journal backend and schedule",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Backend = "postgres"
				c.Journal.Retention.PruneSchedule = "daily"
			},
			wantFields: []string{"journal.backend", "journal.retention.prune_schedule"},
		},
		{
			name: "journal sqlite driver",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.SQLite.Driver = "postgres"
			},
			wantFields: []string{"journal.sqlite.driver"},
		},
		{
			name: "telemetry",
			mutate: func(c *Config) {
				c.Telemetry.Logging.Level = "trace"
				c.Telemetry.Logging.Format = "xml"
				c.Telemetry.Metrics.Path = "metrics"
				c.Telemetry.Tracing.SampleRatio = 2
				c.Telemetry.Server.ListenAddress = "9100"
			},
			wantFields: []string{
				"telemetry.logging.level",
				"telemetry.logging.format",
				"telemetry.metrics.path",
				"telemetry.tracing.sample_ratio",
				"telemetry.server.listen_address",
			},
		},
		{
			name: "tracing exporter",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Exporter = "jaeger"
			},
			wantFields: []string{"telemetry.tracing.exporter"},
		},
		{
			name:       "unsorted buckets",
			mutate:     func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{1, 0.5} },
			wantFields: []string{"telemetry.metrics.duration_buckets"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if len(verr.Errors) != len(tt.wantFields) {
				t.Errorf("got %d errors, want %d: %v", len(verr.Errors), len(tt.wantFields), verr.Errors)
			}
			for _, field := range tt.wantFields {
				if !verr.HasField(field) {
					t.Errorf("missing error for %s in %v", field, verr.Errors)
				}
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("Error() = %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := multi.Error()
	if !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
