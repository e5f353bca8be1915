package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	visible  bool
	verbose  bool
	quiet    bool
	dataFile string
	refresh  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "extractor",
		Short: "Best Buy laptop listing extractor",
		Long: `Extracts laptop listings from Best Buy with a stealth browser session.

Runs fall back from an explicit URL to category navigation, then to a list of
alternate URLs, and finally to the last saved snapshot. The snapshot feeds the
analysis report and the read-only HTTP API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&visible, "visible", false, "run the browser with a visible window")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data-file", "", "snapshot file to read and write instead of the configured one")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(bothCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}
