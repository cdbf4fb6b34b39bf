/*
Package cli provides helpers shared by the peersync commands.

Output Formatting:

Command results render as text tables, JSON or CSV. Results that implement
Tabular get aligned columns in text mode:

	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), records)

Errors and Exit Codes:

ConfigError and CommandError carry enough context for ExitCode to pick the
process exit status: 2 for configuration problems, 3 for a one-shot cycle
that failed or rolled back, 1 otherwise.

Signal Handling:

SIGINT and SIGTERM cancel the run context; SIGHUP requests a config reload:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	reload, stopReload := cli.NotifyReload()
	defer stopReload()
*/
package cli
