package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized by ApplyEnv
const (
	EnvStorageDir    = "SCRAPER_STORAGE_DIR"
	EnvMaxPages      = "SCRAPER_MAX_PAGES"
	EnvStartURLs     = "SCRAPER_START_URLS"
	EnvExportJSON    = "SCRAPER_EXPORT_JSON"
	EnvChromeBin     = "CHROME_BIN"
	EnvDatasetDriver = "DATASET_DRIVER"
	EnvDatasetDSN    = "DATASET_DSN"
	EnvLogLevel      = "LOG_LEVEL"
	EnvProxyURLs     = "PROXY_URLS"
	EnvProxyUsername = "PROXY_USERNAME"
	EnvProxyPassword = "PROXY_PASSWORD"
	EnvServerAddr    = "SERVER_ADDR"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored, existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from the environment
func (c *AppConfig) ApplyEnv() {
	if dir := getEnv(EnvStorageDir, ""); dir != "" {
		c.Dataset.Dir = dir
		c.Dataset.Managed = true
	}
	c.Input.MaxPages = getEnvInt(EnvMaxPages, c.Input.MaxPages)
	if urls := splitList(getEnv(EnvStartURLs, "")); len(urls) > 0 {
		c.Input.StartURLs = urls
	}
	if v, ok := os.LookupEnv(EnvExportJSON); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Input.ExportToJSON = &b
		}
	}
	if bin := getEnv(EnvChromeBin, ""); bin != "" {
		c.Browser.ExecPath = bin
	}
	c.Dataset.Driver = getEnv(EnvDatasetDriver, c.Dataset.Driver)
	c.Dataset.DSN = getEnv(EnvDatasetDSN, c.Dataset.DSN)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	if proxies := splitList(getEnv(EnvProxyURLs, "")); len(proxies) > 0 {
		c.Proxies.Enabled = true
		c.Proxies.List = proxies
	}
	c.Proxies.Auth.Username = getEnv(EnvProxyUsername, c.Proxies.Auth.Username)
	c.Proxies.Auth.Password = getEnv(EnvProxyPassword, c.Proxies.Auth.Password)
	c.Server.Addr = getEnv(EnvServerAddr, c.Server.Addr)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
