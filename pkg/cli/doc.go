/*
Package cli provides command-line helpers used by the curator command.

Output Formatting:

Commands print results as text tables or JSON:

	formatter, err := cli.NewFormatter(cli.OutputFormat(output))
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), result)

Values implementing Table are rendered as aligned columns by the text
formatter and as rows by the CSV formatter.

Exit Codes:

Commands return an *ExitError to choose the process exit status:

	return cli.NewExitError(cli.ExitConfig, err)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
