package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/generator"
)

var validateFlags struct {
	print bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file with PEERSYNC_* environment overrides and
check every field. All problems are reported at once.

Examples:
  # Check the default config file
  peersync validate

  # Check a file and print the effective configuration
  peersync validate --config /etc/peersync/peersync.yaml --print`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.print, "print", false, "print the effective configuration as YAML")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := generator.ParseValidationMode(cfg.Generator.HostnameValidation); err != nil {
		return cli.NewConfigError("generator.hostname_validation", err.Error())
	}

	out := cmd.OutOrStdout()
	if validateFlags.print {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		_, err = out.Write(data)
		return err
	}

	source := cfgFile
	if source == "" {
		source = "built-in defaults"
	}
	_, err = fmt.Fprintf(out, "✓ Configuration valid (%s)\n", source)
	return err
}
