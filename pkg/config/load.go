package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "PEERSYNC_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields absent from the file keep their defaults. Unknown keys are
// rejected so a typo does not silently fall back to a default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path starts from the defaults.
// Environment variables follow the naming convention PEERSYNC_SECTION_FIELD
// (e.g., PEERSYNC_RUNTIME_NETWORK) and always take precedence over the file.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Load YAML from file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Unparsable values are reported as FieldErrors.
func applyEnvOverrides(cfg *Config) error {
	e := &envReader{}

	// Runtime overrides
	e.str("RUNTIME_BINARY", &cfg.Runtime.Binary)
	e.duration("RUNTIME_COMMAND_TIMEOUT", &cfg.Runtime.CommandTimeout)
	e.str("RUNTIME_DEFAULT_NETWORK", &cfg.Runtime.DefaultNetwork)
	e.str("RUNTIME_NETWORK", &cfg.Runtime.Network)
	e.str("RUNTIME_SELF_NAME", &cfg.Runtime.SelfName)

	// Proxy overrides
	e.str("PROXY_BINARY", &cfg.Proxy.Binary)
	e.str("PROXY_CONFIG_PATH", &cfg.Proxy.ConfigPath)
	e.duration("PROXY_COMMAND_TIMEOUT", &cfg.Proxy.CommandTimeout)
	e.boolean("PROXY_ATOMIC_WRITE", &cfg.Proxy.AtomicWrite)
	if val, ok := e.lookup("PROXY_FILE_MODE"); ok {
		if mode, err := strconv.ParseUint(val, 8, 32); err == nil {
			cfg.Proxy.FileMode = os.FileMode(mode)
		} else {
			e.fail("PROXY_FILE_MODE", val, "octal file mode")
		}
	}

	// Generator overrides
	e.integer("GENERATOR_PORT", &cfg.Generator.Port)
	e.integer("GENERATOR_LISTEN_PORT", &cfg.Generator.ListenPort)
	e.str("GENERATOR_HOSTNAME_VALIDATION", &cfg.Generator.HostnameValidation)

	// Reconcile overrides
	e.duration("RECONCILE_INTERVAL", &cfg.Reconcile.Interval)
	e.boolean("RECONCILE_BACKOFF_ENABLED", &cfg.Reconcile.Backoff.Enabled)
	e.duration("RECONCILE_BACKOFF_MAX_INTERVAL", &cfg.Reconcile.Backoff.MaxInterval)
	e.float("RECONCILE_BACKOFF_MULTIPLIER", &cfg.Reconcile.Backoff.Multiplier)

	// Journal overrides
	e.boolean("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	e.str("JOURNAL_BACKEND", &cfg.Journal.Backend)
	e.str("JOURNAL_SQLITE_DRIVER", &cfg.Journal.SQLite.Driver)
	e.str("JOURNAL_SQLITE_PATH", &cfg.Journal.SQLite.Path)
	e.boolean("JOURNAL_STORE_DOCUMENTS", &cfg.Journal.StoreDocuments)
	e.integer("JOURNAL_RETENTION_DAYS", &cfg.Journal.Retention.Days)
	if val, ok := e.lookup("JOURNAL_RETENTION_MAX_RECORDS"); ok {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Journal.Retention.MaxRecords = n
		} else {
			e.fail("JOURNAL_RETENTION_MAX_RECORDS", val, "integer")
		}
	}
	e.str("JOURNAL_RETENTION_PRUNE_SCHEDULE", &cfg.Journal.Retention.PruneSchedule)

	// Telemetry overrides
	e.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	e.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	e.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	e.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	e.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	e.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	e.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	e.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	e.str("TELEMETRY_SERVER_LISTEN_ADDRESS", &cfg.Telemetry.Server.ListenAddress)

	// Watch overrides
	e.boolean("WATCH_ENABLED", &cfg.Watch.Enabled)
	e.duration("WATCH_DEBOUNCE", &cfg.Watch.Debounce)

	if len(e.errs) > 0 {
		return ValidationError{Errors: e.errs}
	}
	return nil
}

// envReader reads PEERSYNC_ variables into config fields and collects
// parse failures.
type envReader struct {
	errs []FieldError
}

func (e *envReader) lookup(name string) (string, bool) {
	val, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (e *envReader) fail(name, val, want string) {
	e.errs = append(e.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: expected %s", val, want),
	})
}

func (e *envReader) str(name string, dst *string) {
	if val, ok := e.lookup(name); ok {
		*dst = val
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if val, ok := e.lookup(name); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			e.fail(name, val, "duration")
			return
		}
		*dst = d
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	if val, ok := e.lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			e.fail(name, val, "boolean")
			return
		}
		*dst = b
	}
}

func (e *envReader) integer(name string, dst *int) {
	if val, ok := e.lookup(name); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			e.fail(name, val, "integer")
			return
		}
		*dst = i
	}
}

func (e *envReader) float(name string, dst *float64) {
	if val, ok := e.lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			e.fail(name, val, "number")
			return
		}
		*dst = f
	}
}
