package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "runtime.network").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether field failed validation.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRuntime(&cfg.Runtime)...)
	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateGenerator(&cfg.Generator)...)
	errs = append(errs, validateReconcile(&cfg.Reconcile)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "debounce must be non-negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateRuntime(cfg *RuntimeConfig) []FieldError {
	var errs []FieldError

	if cfg.Binary == "" {
		errs = append(errs, FieldError{
			Field:   "runtime.binary",
			Message: "runtime binary is required",
		})
	}
	if cfg.CommandTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "runtime.command_timeout",
			Message: "command timeout must be positive",
		})
	}
	if cfg.Network != "" && cfg.Network == cfg.DefaultNetwork {
		errs = append(errs, FieldError{
			Field:   "runtime.network",
			Message: fmt.Sprintf("network %q is the runtime default network and cannot be used for discovery", cfg.Network),
		})
	}

	return errs
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.Binary == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.binary",
			Message: "proxy binary is required",
		})
	}
	if cfg.ConfigPath == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.config_path",
			Message: "config path is required",
		})
	}
	if cfg.CommandTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.command_timeout",
			Message: "command timeout must be positive",
		})
	}
	if cfg.FileMode&^0o777 != 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.file_mode",
			Message: fmt.Sprintf("file mode %o must only contain permission bits", uint32(cfg.FileMode)),
		})
	}

	return errs
}

func validateGenerator(cfg *GeneratorConfig) []FieldError {
	var errs []FieldError

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "generator.port",
			Message: "port must be between 1 and 65535",
		})
	}
	if cfg.ListenPort < 1 || cfg.ListenPort > 65535 {
		errs = append(errs, FieldError{
			Field:   "generator.listen_port",
			Message: "listen port must be between 1 and 65535",
		})
	}

	validModes := map[string]bool{"off": true, "skip": true, "reject": true}
	if !validModes[cfg.HostnameValidation] {
		errs = append(errs, FieldError{
			Field:   "generator.hostname_validation",
			Message: fmt.Sprintf("invalid hostname validation %q: must be 'off', 'skip', or 'reject'", cfg.HostnameValidation),
		})
	}

	return errs
}

func validateReconcile(cfg *ReconcileConfig) []FieldError {
	var errs []FieldError

	if cfg.Interval < time.Second {
		errs = append(errs, FieldError{
			Field:   "reconcile.interval",
			Message: "interval must be at least 1s",
		})
	}

	if cfg.Backoff.Enabled {
		if cfg.Backoff.Multiplier < 1 {
			errs = append(errs, FieldError{
				Field:   "reconcile.backoff.multiplier",
				Message: "multiplier must be at least 1.0",
			})
		}
		if cfg.Backoff.MaxInterval < cfg.Interval {
			errs = append(errs, FieldError{
				Field:   "reconcile.backoff.max_interval",
				Message: "max interval must not be shorter than reconcile.interval",
			})
		}
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	// If the journal is disabled, skip validation
	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		validDrivers := map[string]bool{"sqlite3": true, "sqlite": true}
		if !validDrivers[cfg.SQLite.Driver] {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "journal.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "journal.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "journal.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "journal.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "tracing endpoint is required when tracing is enabled",
			})
		}
		if cfg.Tracing.Exporter != "otlp" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.exporter",
				Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Tracing.Exporter),
			})
		}
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Server.ListenAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.server.listen_address",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}
