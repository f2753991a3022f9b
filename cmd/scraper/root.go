package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openvc-scraper",
		Short: "Scrape the OpenVC investor directory",
		Long: `openvc-scraper walks the OpenVC investor search results page by page,
extracts one record per investor row and stores them in a local dataset.

The dataset can be exported to JSON for the dashboard, copied into the
dashboard's public directory, or served over HTTP together with run control.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file (default: ./openvc-scraper.yaml or $XDG_CONFIG_HOME/openvc-scraper/config.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewCopyDataCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
