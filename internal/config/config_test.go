package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultMaxPages, cfg.Input.MaxPages)
	assert.Equal(t, 60*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Pacing.SettleMin)
	assert.Equal(t, 13*time.Second, cfg.Pacing.NextPageMax)
	assert.Equal(t, filepath.Join("data", "investors.json"), cfg.IO.ExportPath())
	assert.True(t, cfg.Dataset.PurgeOnStart)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
input:
  start_urls:
    - https://openvc.app/search?page=3
  max_pages: 5
scraper:
  workers: 2
  navigation_timeout: 10s
pacing:
  settle_min: 0s
  settle_max: 0s
dataset:
  name: investors
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://openvc.app/search?page=3"}, cfg.Input.StartURLs)
	assert.Equal(t, 5, cfg.Input.MaxPages)
	assert.Equal(t, 2, cfg.Scraper.Workers)
	assert.Equal(t, 10*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, DefaultTableTimeout, cfg.Scraper.TableTimeout)
	assert.Equal(t, time.Duration(0), cfg.Pacing.SettleMax)
	assert.Equal(t, "investors", cfg.Dataset.Name)
	assert.Equal(t, "sqlite", cfg.Dataset.Driver)
	assert.NotEmpty(t, cfg.Scraper.UserAgents)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNormalizeMaxPages(t *testing.T) {
	for _, n := range []int{0, -4} {
		cfg := Default()
		cfg.Input.MaxPages = n
		cfg.Normalize()
		assert.Equal(t, DefaultMaxPages, cfg.Input.MaxPages)
	}
}

func TestShouldExportJSON(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.ShouldExportJSON())

	cfg.Dataset.Managed = true
	assert.False(t, cfg.ShouldExportJSON())

	yes := true
	cfg.Input.ExportToJSON = &yes
	assert.True(t, cfg.ShouldExportJSON())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvStorageDir, "/tmp/storage")
	t.Setenv(EnvMaxPages, "7")
	t.Setenv(EnvStartURLs, "https://a.example/search, https://b.example/search")
	t.Setenv(EnvExportJSON, "true")
	t.Setenv(EnvProxyURLs, "http://p1:8000")
	t.Setenv(EnvProxyUsername, "user")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	cfg.ApplyEnv()

	assert.True(t, cfg.Dataset.Managed)
	assert.Equal(t, "/tmp/storage", cfg.Dataset.Dir)
	assert.Equal(t, 7, cfg.Input.MaxPages)
	assert.Equal(t, []string{"https://a.example/search", "https://b.example/search"}, cfg.Input.StartURLs)
	require.NotNil(t, cfg.Input.ExportToJSON)
	assert.True(t, *cfg.Input.ExportToJSON)
	assert.True(t, cfg.ShouldExportJSON())
	assert.True(t, cfg.Proxies.Enabled)
	assert.Equal(t, "user", cfg.Proxies.Auth.Username)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnvIgnoresBadInt(t *testing.T) {
	t.Setenv(EnvMaxPages, "many")
	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, DefaultMaxPages, cfg.Input.MaxPages)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   error
	}{
		{"relative base url", func(c *AppConfig) { c.Site.BaseURL = "/search" }, ErrInvalidBaseURL},
		{"zero workers", func(c *AppConfig) { c.Scraper.Workers = 0 }, ErrInvalidWorkers},
		{"negative retries", func(c *AppConfig) { c.Scraper.MaxRetries = -1 }, ErrInvalidMaxRetries},
		{"zero navigation timeout", func(c *AppConfig) { c.Scraper.NavigationTimeout = 0 }, ErrInvalidTimeout},
		{"negative grace", func(c *AppConfig) { c.Scraper.BlockGrace = -time.Second }, ErrInvalidDelay},
		{"inverted pacing", func(c *AppConfig) { c.Pacing.SettleMin = 9 * time.Second }, ErrInvalidPacing},
		{"unknown driver", func(c *AppConfig) { c.Dataset.Driver = "mysql" }, ErrUnknownDatasetDriver},
		{"postgres without dsn", func(c *AppConfig) { c.Dataset.Driver = "postgres" }, ErrMissingDSN},
		{"empty dataset name", func(c *AppConfig) { c.Dataset.Name = "" }, ErrNoDatasetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestWithInput(t *testing.T) {
	base := Default()
	base.Input.StartURLs = []string{"https://openvc.app/search"}

	no := false
	run := base.WithInput(InputConfig{MaxPages: 3, ExportToJSON: &no})

	assert.Equal(t, 3, run.Input.MaxPages)
	assert.False(t, run.ShouldExportJSON())
	assert.Equal(t, base.Input.StartURLs, run.Input.StartURLs)
	assert.Nil(t, base.Input.ExportToJSON)
	assert.Equal(t, DefaultMaxPages, base.Input.MaxPages)
}

func TestEffectiveProxiesPrefersInput(t *testing.T) {
	cfg := Default()
	cfg.Proxies.Auth = ProxyAuth{Username: "u", Password: "p"}
	cfg.Input.Proxy = &ProxyConfig{Enabled: true, List: []string{"http://p:1"}}

	p := cfg.EffectiveProxies()
	assert.True(t, p.Enabled)
	assert.Equal(t, []string{"http://p:1"}, p.List)
	assert.Equal(t, "u", p.Auth.Username)
}

func TestResolveExplicitPath(t *testing.T) {
	path := writeConfig(t, "input:\n  max_pages: 0\n")
	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxPages, cfg.Input.MaxPages)
}
