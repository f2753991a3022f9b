package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// FileName is the configuration file looked up in the working directory
const FileName = "openvc-scraper.yaml"

// FindConfigFile returns the first existing configuration file among the
// working directory and the XDG config home, or "" when there is none.
func FindConfigFile() string {
	candidates := []string{
		FileName,
		filepath.Join(xdg.ConfigHome, "openvc-scraper", "config.yaml"),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Resolve builds the effective configuration: defaults, then the YAML file
// (explicit path or discovered), then .env and process environment.
// The result is normalized and validated.
func Resolve(path string) (*AppConfig, error) {
	if path == "" {
		path = FindConfigFile()
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
