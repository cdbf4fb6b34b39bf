package config

import "time"

// Default values for configuration fields.
const (
	// Runtime defaults
	DefaultRuntimeBinary         = "docker"
	DefaultRuntimeCommandTimeout = 10 * time.Second
	DefaultRuntimeNetwork        = "bridge"

	// Proxy defaults
	DefaultProxyBinary         = "nginx"
	DefaultProxyConfigPath     = "/etc/nginx/conf.d/default.conf"
	DefaultProxyCommandTimeout = 10 * time.Second
	DefaultProxyAtomicWrite    = true
	DefaultProxyFileMode       = 0o644

	// Generator defaults
	DefaultGeneratorPort               = 80
	DefaultGeneratorListenPort         = 80
	DefaultGeneratorHostnameValidation = "skip"

	// Reconcile defaults
	DefaultReconcileInterval  = 20 * time.Second
	DefaultBackoffEnabled     = true
	DefaultBackoffMaxInterval = 5 * time.Minute
	DefaultBackoffMultiplier  = 2.0

	// Journal defaults
	DefaultJournalEnabled           = false
	DefaultJournalBackend           = "sqlite"
	DefaultJournalSQLiteDriver      = "sqlite3"
	DefaultJournalSQLitePath        = "data/peersync.db"
	DefaultJournalSQLiteBusyTimeout = 5 * time.Second
	DefaultJournalStoreDocuments    = true
	DefaultJournalAsyncBuffer       = 100
	DefaultJournalWriteTimeout      = 5 * time.Second
	DefaultRetentionDays            = 30
	DefaultRetentionMaxRecords      = int64(10000)
	DefaultRetentionPruneSchedule   = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "json"
	DefaultMetricsEnabled        = true
	DefaultMetricsPath           = "/metrics"
	DefaultMetricsNamespace      = "peersync"
	DefaultTracingEnabled        = false
	DefaultTracingSampler        = "always"
	DefaultTracingSampleRatio    = 1.0
	DefaultTracingExporter       = "otlp"
	DefaultTracingEndpoint       = "localhost:4317"
	DefaultTracingServiceName    = "peersync"
	DefaultOTLPInsecure          = true
	DefaultOTLPTimeout           = 10 * time.Second
	DefaultServerShutdownTimeout = 5 * time.Second

	// Watch defaults
	DefaultWatchEnabled  = true
	DefaultWatchDebounce = 250 * time.Millisecond
)

// DefaultDurationBuckets are the histogram buckets for cycle and command
// durations, from 5ms up to the default command timeout.
var DefaultDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Default returns a configuration with every field set to its default,
// including the boolean switches that ApplyDefaults cannot tell apart from
// an explicit false.
func Default() *Config {
	cfg := &Config{
		Proxy: ProxyConfig{
			AtomicWrite: DefaultProxyAtomicWrite,
		},
		Reconcile: ReconcileConfig{
			Backoff: BackoffConfig{Enabled: DefaultBackoffEnabled},
		},
		Journal: JournalConfig{
			Enabled:        DefaultJournalEnabled,
			StoreDocuments: DefaultJournalStoreDocuments,
			Retention: RetentionConfig{
				Days:          DefaultRetentionDays,
				MaxRecords:    DefaultRetentionMaxRecords,
				PruneSchedule: DefaultRetentionPruneSchedule,
			},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{
				Enabled: DefaultTracingEnabled,
				OTLP:    OTLPConfig{Insecure: DefaultOTLPInsecure},
			},
		},
		Watch: WatchConfig{Enabled: DefaultWatchEnabled},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued, non-boolean field with its default.
// Retention limits are left alone since zero disables them.
func ApplyDefaults(cfg *Config) {
	// Runtime defaults
	if cfg.Runtime.Binary == "" {
		cfg.Runtime.Binary = DefaultRuntimeBinary
	}
	if cfg.Runtime.CommandTimeout == 0 {
		cfg.Runtime.CommandTimeout = DefaultRuntimeCommandTimeout
	}
	if cfg.Runtime.DefaultNetwork == "" {
		cfg.Runtime.DefaultNetwork = DefaultRuntimeNetwork
	}

	// Proxy defaults
	if cfg.Proxy.Binary == "" {
		cfg.Proxy.Binary = DefaultProxyBinary
	}
	if cfg.Proxy.ConfigPath == "" {
		cfg.Proxy.ConfigPath = DefaultProxyConfigPath
	}
	if cfg.Proxy.CommandTimeout == 0 {
		cfg.Proxy.CommandTimeout = DefaultProxyCommandTimeout
	}
	if cfg.Proxy.FileMode == 0 {
		cfg.Proxy.FileMode = DefaultProxyFileMode
	}

	// Generator defaults
	if cfg.Generator.Port == 0 {
		cfg.Generator.Port = DefaultGeneratorPort
	}
	if cfg.Generator.ListenPort == 0 {
		cfg.Generator.ListenPort = DefaultGeneratorListenPort
	}
	if cfg.Generator.HostnameValidation == "" {
		cfg.Generator.HostnameValidation = DefaultGeneratorHostnameValidation
	}

	// Reconcile defaults
	if cfg.Reconcile.Interval == 0 {
		cfg.Reconcile.Interval = DefaultReconcileInterval
	}
	if cfg.Reconcile.Backoff.MaxInterval == 0 {
		cfg.Reconcile.Backoff.MaxInterval = DefaultBackoffMaxInterval
	}
	if cfg.Reconcile.Backoff.Multiplier == 0 {
		cfg.Reconcile.Backoff.Multiplier = DefaultBackoffMultiplier
	}

	// Journal defaults
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLite.Driver == "" {
		cfg.Journal.SQLite.Driver = DefaultJournalSQLiteDriver
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalSQLiteBusyTimeout
	}
	if cfg.Journal.AsyncBuffer == 0 {
		cfg.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Journal.WriteTimeout == 0 {
		cfg.Journal.WriteTimeout = DefaultJournalWriteTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Server.ShutdownTimeout == 0 {
		cfg.Telemetry.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}
