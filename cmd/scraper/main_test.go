package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/dataset"
	"github.com/williampepple1/openvc-scraper/internal/io"
	"github.com/williampepple1/openvc-scraper/pkg/models"
)

// writeTestConfig writes a configuration keeping every path under dir
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	body := fmt.Sprintf(`
io:
  data_dir: %s
  static_dir: %s
dataset:
  dir: %s
log:
  level: error
`, filepath.Join(dir, "data"), filepath.Join(dir, "static"), filepath.Join(dir, "storage"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootHasSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"crawl", "export", "copy-data", "serve", "version"} {
		assert.True(t, names[want], want)
	}
	assert.NotEmpty(t, cmd.Version)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "openvc-scraper")
}

func TestCopyData(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	_, err := execute(t, "copy-data", "--config", cfgPath)
	assert.ErrorIs(t, err, io.ErrSourceMissing)

	require.NoError(t, io.ExportJSON([]models.InvestorRecord{models.NewInvestorRecord()}, filepath.Join(dir, "data", "investors.json")))
	out, err := execute(t, "copy-data", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Copied")

	copied, err := io.ReadFromFile(filepath.Join(dir, "static", "investors.json"))
	require.NoError(t, err)
	assert.Len(t, copied, 1)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	store, err := dataset.Open(config.DatasetConfig{Driver: "sqlite", Dir: filepath.Join(dir, "storage")}, nil)
	require.NoError(t, err)
	ds, err := store.Dataset(context.Background(), "default")
	require.NoError(t, err)
	rec := models.NewInvestorRecord()
	rec.VCName = "Acme Ventures"
	require.NoError(t, ds.Append(context.Background(), rec))
	require.NoError(t, store.Close())

	output := filepath.Join(dir, "out", "investors.json")
	out, err := execute(t, "export", "--config", cfgPath, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 investors")

	records, err := io.ReadFromFile(output)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme Ventures", records[0].VCName)

	_, err = execute(t, "export", "--config", cfgPath, "--dataset", "missing")
	assert.ErrorIs(t, err, dataset.ErrNotFound)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scraper:\n  workers: 0\n"), 0o644))

	_, err := execute(t, "copy-data", "--config", path)
	assert.ErrorIs(t, err, config.ErrInvalidWorkers)
}

func TestCrawlExportFlagDefersToStorage(t *testing.T) {
	flag := NewCrawlCmd().Flags().Lookup("export-json")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
	assert.Contains(t, flag.Usage, "on unless storage is managed")
}
