package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/pkg/models"
)

var (
	// ErrInvalidStartURL is returned for start URLs that are not absolute.
	ErrInvalidStartURL = errors.New("invalid start url")

	// ErrSourceMissing is returned by CopyToDir when there is nothing to copy.
	ErrSourceMissing = errors.New("source file does not exist")
)

// ResultWriter writes exported records to files
type ResultWriter struct {
	Config *config.IOConfig
}

// NewResultWriter creates a new result writer
func NewResultWriter(config *config.IOConfig) *ResultWriter {
	return &ResultWriter{
		Config: config,
	}
}

// SaveToFile saves the records to the configured export path
func (w *ResultWriter) SaveToFile(records []models.InvestorRecord) (string, error) {
	path := w.Config.ExportPath()
	return path, ExportJSON(records, path)
}

// CopyExport copies the export file into the configured static directory
func (w *ResultWriter) CopyExport() (string, error) {
	return CopyToDir(w.Config.ExportPath(), w.Config.StaticDir)
}

// ExportJSON writes records to path as an indented JSON array,
// creating parent directories as needed
func ExportJSON(records []models.InvestorRecord, path string) error {
	if records == nil {
		records = []models.InvestorRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFromFile reads records previously written by ExportJSON
func ReadFromFile(path string) ([]models.InvestorRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.InvestorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i := range records {
		records[i] = records[i].Normalize()
	}
	return records, nil
}

// CopyToDir copies src into dstDir under the same base name and returns
// the destination path. The directory is created if missing.
func CopyToDir(src, dstDir string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return "", err
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dstDir, err)
	}
	dst := filepath.Join(dstDir, filepath.Base(src))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
