package main

import (
	"context"
	"fmt"

	"github.com/maltedev/laptop-listing-extractor/internal/analysis"
	"github.com/maltedev/laptop-listing-extractor/internal/models"
	"github.com/maltedev/laptop-listing-extractor/internal/pipeline"
	"github.com/spf13/cobra"
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&refresh, "refresh", false, "extract even when the snapshot is still fresh")
}

// extractCmd creates the "extract" subcommand.
func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [url]",
		Short: "Extract listings from a URL, falling back to category navigation",
		Long: `Extract laptop listings starting from the given URL, or from the configured
pre-filtered search URL when none is given. When the URL yields nothing the
run falls back to category navigation, the alternate URLs and the snapshot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			_, err = a.extract(cmd, explicitRequest(a, args))
			return err
		},
	}
	addRunFlags(cmd)
	return cmd
}

// categoryCmd creates the "category" subcommand.
func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Reach the listings through category navigation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			_, err = a.extract(cmd, pipeline.Request{Headless: a.cfg.Browser.Headless, Refresh: refresh})
			return err
		},
	}
	addRunFlags(cmd)
	return cmd
}

// bothCmd creates the "both" subcommand.
func bothCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "both [url]",
		Short: "Extract listings, then generate the analysis report",
		Long: `Run an extraction like "extract" and generate the report from its records.
With --data-file the extraction is skipped and the report is built from that file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			if dataFile != "" {
				a.logger.Info("using provided data file, skipping extraction", "path", dataFile)
				return a.report(cmd)
			}
			out, err := a.extract(cmd, explicitRequest(a, args))
			if err != nil {
				return err
			}
			return a.generate(cmd, out.Records)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func explicitRequest(a *app, args []string) pipeline.Request {
	target := a.cfg.Site.DefaultURL
	if len(args) == 1 {
		target = args[0]
	}
	return pipeline.Request{
		ExplicitURL: target,
		UseExplicit: true,
		Headless:    a.cfg.Browser.Headless,
		Refresh:     refresh,
	}
}

func (a *app) extract(cmd *cobra.Command, req pipeline.Request) (pipeline.Outcome, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := a.runExtraction(ctx, req)
	if err != nil {
		printFailureHint(cmd.ErrOrStderr(), err)
		return out, err
	}
	printOutcome(cmd.OutOrStdout(), out)
	return out, nil
}

func (a *app) generate(cmd *cobra.Command, records []models.ProductRecord) error {
	report, err := analysis.Generate(records, a.cfg.Output.ReportsDir, a.cfg.Output.DashboardFile, analysis.NewLexiconScorer(), a.logger)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Report for %d products (%d reviews)\n", report.Products, report.Reviews)
	for _, f := range report.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintf(w, "Dashboard: %s\n", report.Dashboard)
	return nil
}
