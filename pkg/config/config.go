package config

import (
	"os"
	"time"
)

// Config is the root configuration structure for the peersync sidecar.
type Config struct {
	// Runtime configures discovery through the container runtime CLI.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Proxy configures the managed nginx instance.
	Proxy ProxyConfig `yaml:"proxy"`

	// Generator configures how server blocks are rendered.
	Generator GeneratorConfig `yaml:"generator"`

	// Reconcile configures the reconciliation loop.
	Reconcile ReconcileConfig `yaml:"reconcile"`

	// Journal configures the reconciliation history.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing, and the optional telemetry HTTP server.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch configures hot reload of the configuration file.
	Watch WatchConfig `yaml:"watch"`
}

// RuntimeConfig contains container runtime settings.
type RuntimeConfig struct {
	// Binary is the runtime CLI executable.
	// Default: "docker"
	Binary string `yaml:"binary"`

	// CommandTimeout bounds each runtime invocation.
	// Default: 10s
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// DefaultNetwork is the runtime's default network. Discovery is refused
	// while the sidecar is attached to it.
	// Default: "bridge"
	DefaultNetwork string `yaml:"default_network"`

	// Network selects the shared network explicitly. Required to be one the
	// sidecar is attached to. Empty selects the only (or first) network.
	Network string `yaml:"network"`

	// SelfName overrides the hostname-based self lookup.
	SelfName string `yaml:"self_name"`
}

// ProxyConfig contains settings for the managed reverse proxy.
type ProxyConfig struct {
	// Binary is the nginx executable.
	// Default: "nginx"
	Binary string `yaml:"binary"`

	// ConfigPath is the single file the sidecar owns.
	// Default: "/etc/nginx/conf.d/default.conf"
	ConfigPath string `yaml:"config_path"`

	// CommandTimeout bounds each nginx invocation.
	// Default: 10s
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// AtomicWrite replaces the file through a temp file and rename.
	// Default: true
	AtomicWrite bool `yaml:"atomic_write"`

	// FileMode is the permission of the written file.
	// Default: 0644
	FileMode os.FileMode `yaml:"file_mode"`
}

// GeneratorConfig contains server block rendering settings.
type GeneratorConfig struct {
	// Port is the upstream port on every peer.
	// Default: 80
	Port int `yaml:"port"`

	// ListenPort is the port each server block listens on.
	// Default: 80
	ListenPort int `yaml:"listen_port"`

	// HostnameValidation controls non-conforming peer names.
	// Options: "off", "skip", "reject"
	// Default: "skip"
	HostnameValidation string `yaml:"hostname_validation"`
}

// ReconcileConfig contains reconciliation loop settings.
type ReconcileConfig struct {
	// Interval is the pause after each cycle.
	// Default: 20s
	Interval time.Duration `yaml:"interval"`

	// Backoff extends the pause while the network is unconfigured.
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig contains the unconfigured-network backoff settings.
type BackoffConfig struct {
	// Enabled turns backoff on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// MaxInterval caps the extended pause.
	// Default: 5m
	MaxInterval time.Duration `yaml:"max_interval"`

	// Multiplier grows the pause per consecutive failure.
	// Default: 2.0
	Multiplier float64 `yaml:"multiplier"`
}

// JournalConfig contains reconciliation history settings.
type JournalConfig struct {
	// Enabled turns the journal on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// StoreDocuments keeps a compressed snapshot of each candidate document.
	// Default: true
	StoreDocuments bool `yaml:"store_documents"`

	// AsyncBuffer is the recorder queue length.
	// Default: 100
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds each journal write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention contains pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite backend settings.
type SQLiteConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite3" (cgo), "sqlite" (pure Go)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// Path is the database file.
	// Default: "data/peersync.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a locked database is retried.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains journal pruning settings.
type RetentionConfig struct {
	// Days deletes records older than this. 0 keeps them forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords keeps at most this many records. 0 is unlimited.
	// Default: 10000
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a 5-field cron expression.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Server contains the telemetry HTTP server configuration.
	Server ServerConfig `yaml:"server"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "peersync"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are the histogram buckets for cycle and command
	// durations in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "peersync"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig contains the telemetry HTTP server configuration.
type ServerConfig struct {
	// ListenAddress enables the server when set (e.g., "0.0.0.0:9100").
	// Default: "" (disabled)
	ListenAddress string `yaml:"listen_address"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WatchConfig contains configuration file hot reload settings.
type WatchConfig struct {
	// Enabled turns hot reload on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Debounce is the quiet period before a change is reloaded.
	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`
}
