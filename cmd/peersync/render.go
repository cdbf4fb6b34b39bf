package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/peersync/pkg/cli"
	"mercator-hq/peersync/pkg/generator"
)

var renderFlags struct {
	output string
	check  bool
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the nginx config for the current peers",
	Long: `Discover the peers of the sidecar's network and print the document
a reconciliation cycle would write. nginx and its config file are not
touched.

Examples:
  # Print the candidate config
  peersync render

  # Show the discovered and skipped peers as JSON
  peersync render --output json

  # Exit 1 when the live config differs from the candidate
  peersync render --check`,
	RunE: renderDocument,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderFlags.output, "output", "o", "text", "output format: text (the document), json")
	renderCmd.Flags().BoolVar(&renderFlags.check, "check", false, "compare with the live config file and fail on a difference")
}

// renderReport is the JSON form of a plan.
type renderReport struct {
	Network  string   `json:"network"`
	SelfName string   `json:"self_name"`
	Peers    []string `json:"peers"`
	Skipped  []string `json:"skipped,omitempty"`
	Digest   string   `json:"digest"`
	Document string   `json:"document"`
}

func renderDocument(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(renderFlags.output)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return fmt.Errorf("render does not support csv output")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	runtimeRunner, proxyRunner := newRunners(cfg, nil)
	comps, err := buildComponents(cfg, runtimeRunner, proxyRunner, logger.Slog(), componentOptions{})
	if err != nil {
		return err
	}

	return renderPlan(ctx, cmd.OutOrStdout(), comps, format, renderFlags.check)
}

// renderPlan prints the candidate document for the sidecar's network. With
// check set it fails when the live config file holds anything else.
func renderPlan(ctx context.Context, out io.Writer, comps *components, format cli.OutputFormat, check bool) error {
	identity, err := comps.identity.Resolve(ctx)
	if err != nil {
		return cli.NewCommandError("render", err)
	}
	plan, err := comps.generator.Plan(ctx, identity.Network, identity.SelfName)
	if err != nil {
		return cli.NewCommandError("render", err)
	}

	if format == cli.FormatJSON {
		err = cli.NewFormatter(format).FormatTo(out, renderReport{
			Network:  plan.Network,
			SelfName: plan.SelfName,
			Peers:    nonNilPeers(plan.Peers),
			Skipped:  plan.Skipped,
			Digest:   generator.Digest(plan.Document),
			Document: plan.Document,
		})
	} else {
		_, err = fmt.Fprint(out, plan.Document)
	}
	if err != nil {
		return err
	}

	if check {
		live, err := comps.proxy.ReadConfig(ctx)
		if err != nil {
			return cli.NewCommandError("render", err)
		}
		if live != plan.Document {
			return cli.NewCommandError("render", fmt.Errorf("live config %s differs from candidate %s",
				generator.Digest(live), generator.Digest(plan.Document)))
		}
	}
	return nil
}

func nonNilPeers(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
