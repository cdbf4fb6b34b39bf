package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the process configuration.
	globalConfig *Config

	// configMutex protects access to globalConfig.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration from path with environment overrides and
// stores it as the process configuration. An empty path uses the defaults.
// Only the first call has any effect.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		SetConfig(cfg)
	})

	return initErr
}

// GetConfig returns the process configuration, or nil before Initialize.
// Callers must treat the returned value as read-only; a reload swaps the
// pointer instead of mutating it.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the process configuration.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig loads path again and swaps it in only if loading and
// validation succeed. Each override is applied to the loaded configuration
// before it is validated, so command-line flags survive a reload. It returns
// the configuration it replaced together with the new one so callers can
// apply the difference.
func ReloadConfig(path string, overrides ...func(*Config)) (prev, next *Config, err error) {
	next, err = LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	if len(overrides) > 0 {
		for _, override := range overrides {
			override(next)
		}
		if err := Validate(next); err != nil {
			return nil, nil, fmt.Errorf("failed to reload configuration: %w", err)
		}
	}

	configMutex.Lock()
	prev = globalConfig
	globalConfig = next
	configMutex.Unlock()

	return prev, next, nil
}

// MustGetConfig returns the process configuration and panics if Initialize
// has not succeeded.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
