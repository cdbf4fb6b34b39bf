package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "peersync",
	Short: "peersync - nginx config reconciler for Docker network peers",
	Long: `peersync discovers the containers that share its Docker network and
keeps an nginx reverse-proxy configuration in step with them.

Each cycle:
  - resolves the sidecar's own container and network
  - lists the other containers on that network
  - renders one server block per peer
  - writes, validates (nginx -t) and reloads nginx when the config changed
  - restores the previous config when validation or reload fails`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "peersync.yaml", "config file path (empty for built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads cfgFile with environment overrides and applies the
// global flag overrides. The result becomes the process configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, cli.NewConfigError("--log-level", err.Error())
		}
	}

	config.SetConfig(cfg)
	return cfg, nil
}

// newLogger builds the process logger from cfg and installs it as the
// slog default.
func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	logger, err := logging.NewFromConfig(&cfg.Telemetry.Logging, w)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())
	return logger, nil
}
