package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/williampepple1/openvc-scraper/internal/dataset"
	"github.com/williampepple1/openvc-scraper/internal/io"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a dataset to a JSON file",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}

	cmd.Flags().StringP("dataset", "d", "", "Dataset id or name (default from configuration)")
	cmd.Flags().StringP("output", "o", "", "Output file (default data/investors.json)")

	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("dataset")
	if name == "" {
		name = cfg.Dataset.Name
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.IO.ExportPath()
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, err := dataset.Open(cfg.Dataset, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	ds, err := store.Lookup(ctx, name)
	if err != nil {
		return fmt.Errorf("dataset %q: %w", name, err)
	}
	records, err := ds.GetAll(ctx)
	if err != nil {
		return err
	}
	if err := io.ExportJSON(records, output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d investors to %s\n", len(records), output)
	return nil
}
