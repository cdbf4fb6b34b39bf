// Package config provides configuration management for peersync.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("peersync.yaml")
//
// An empty path skips the file and starts from the defaults, so the sidecar
// can run with no configuration file at all.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PEERSYNC_SECTION_FIELD:
//
//   - PEERSYNC_RUNTIME_NETWORK overrides runtime.network
//   - PEERSYNC_RECONCILE_INTERVAL overrides reconcile.interval
//   - PEERSYNC_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher follows the file with fsnotify. On change the caller reloads with
// ReloadConfig and uses Diff to decide what can be applied in place: the
// reconcile interval, backoff, log level and hostname validation mode.
// Everything else is reported as requiring a restart.
package config
