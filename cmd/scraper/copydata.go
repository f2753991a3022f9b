package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/williampepple1/openvc-scraper/internal/io"
)

// NewCopyDataCmd creates the copy-data command
func NewCopyDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy-data",
		Short: "Copy the JSON export into the dashboard's public data directory",
		Args:  cobra.NoArgs,
		RunE:  runCopyDataCmd,
	}

	cmd.Flags().String("src", "", "Export file to copy (default data/investors.json)")
	cmd.Flags().String("dest", "", "Target directory (default frontend/public/data)")

	return cmd
}

func runCopyDataCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ioCfg := cfg.IO
	if src, _ := cmd.Flags().GetString("src"); src != "" {
		ioCfg.DataDir, ioCfg.ExportFile = filepath.Split(src)
	}
	if dest, _ := cmd.Flags().GetString("dest"); dest != "" {
		ioCfg.StaticDir = dest
	}

	dst, err := io.NewResultWriter(&ioCfg).CopyExport()
	if err != nil {
		return fmt.Errorf("copy data (run the crawl command first): %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to %s\n", ioCfg.ExportPath(), dst)
	return nil
}
