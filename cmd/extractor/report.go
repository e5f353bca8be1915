package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// reportCmd creates the "report" subcommand.
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate the CSV tables and the dashboard from a snapshot",
		Long:  "Generate the analysis report from the configured snapshot, or from --data-file. No browser is started.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			return a.report(cmd)
		},
	}
}

func (a *app) report(cmd *cobra.Command) error {
	records, err := a.snapshot.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Cannot read product data: %v\n", err)
		fmt.Fprintln(cmd.ErrOrStderr(), "Run an extraction first or pass an existing file with --data-file.")
		return err
	}
	return a.generate(cmd, records)
}
