package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the complete application configuration
type AppConfig struct {
	Input   InputConfig   `yaml:"input"`
	Site    SiteConfig    `yaml:"site"`
	Scraper ScraperConfig `yaml:"scraper"`
	Pacing  PacingConfig  `yaml:"pacing"`
	IO      IOConfig      `yaml:"io"`
	Dataset DatasetConfig `yaml:"dataset"`
	Proxies ProxyConfig   `yaml:"proxies"`
	Browser BrowserConfig `yaml:"browser"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// InputConfig is the per-run input. It is also accepted as JSON by the run API.
type InputConfig struct {
	StartURLs     []string `yaml:"start_urls" json:"startUrls,omitempty"`
	StartURLsFile string   `yaml:"start_urls_file" json:"-"`
	MaxPages      int      `yaml:"max_pages" json:"maxPages,omitempty"`
	// ExportToJSON is nil when the run did not say; see ShouldExportJSON.
	ExportToJSON *bool        `yaml:"export_to_json" json:"exportToJson,omitempty"`
	Proxy        *ProxyConfig `yaml:"proxy_configuration" json:"proxyConfiguration,omitempty"`
}

// SiteConfig describes the directory being scraped
type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ScraperConfig holds the crawl engine and page timing configuration
type ScraperConfig struct {
	Workers           int           `yaml:"workers"`
	RateLimit         time.Duration `yaml:"rate_limit"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	TableTimeout      time.Duration `yaml:"table_timeout"`
	RowsTimeout       time.Duration `yaml:"rows_timeout"`
	BlockGrace        time.Duration `yaml:"block_grace"`
	UserAgents        []string      `yaml:"user_agents,omitempty"`
}

// PacingConfig holds the randomized delays applied around each page.
// A zero range disables the delay.
type PacingConfig struct {
	SettleMin   time.Duration `yaml:"settle_min"`
	SettleMax   time.Duration `yaml:"settle_max"`
	NextPageMin time.Duration `yaml:"next_page_min"`
	NextPageMax time.Duration `yaml:"next_page_max"`
}

// IOConfig holds the file export configuration
type IOConfig struct {
	DataDir    string `yaml:"data_dir"`
	ExportFile string `yaml:"export_file"`
	StaticDir  string `yaml:"static_dir"`
}

// ExportPath returns the path of the JSON export file
func (c IOConfig) ExportPath() string {
	return filepath.Join(c.DataDir, c.ExportFile)
}

// DatasetConfig holds the dataset storage configuration
type DatasetConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	Dir          string `yaml:"dir"`
	Name         string `yaml:"name"`
	PurgeOnStart bool   `yaml:"purge_on_start"`
	// Managed is set when storage is provided by the hosting environment.
	Managed bool `yaml:"-"`
}

// ProxyAuth holds proxy credentials
type ProxyAuth struct {
	Username string `yaml:"username" json:"username,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
}

// ProxyConfig holds the proxy configuration
type ProxyConfig struct {
	Enabled bool      `yaml:"enabled" json:"useProxy"`
	Rotate  bool      `yaml:"rotate" json:"rotate,omitempty"`
	List    []string  `yaml:"list" json:"proxyUrls,omitempty"`
	Auth    ProxyAuth `yaml:"auth" json:"auth,omitempty"`
}

// BrowserConfig holds the headless browser configuration
type BrowserConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Headless      bool   `yaml:"headless"`
	UserAgent     string `yaml:"user_agent"`
	ExecPath      string `yaml:"exec_path"`
	WindowWidth   int    `yaml:"window_width"`
	WindowHeight  int    `yaml:"window_height"`
	Screenshot    bool   `yaml:"screenshot"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ServerConfig holds the HTTP API configuration
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load loads the configuration from a YAML file on top of the defaults
func Load(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", filename, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}

	// Set default user agents if none provided
	if len(config.Scraper.UserAgents) == 0 {
		config.Scraper.UserAgents = DefaultUserAgents
	}
	if config.Browser.UserAgent == "" {
		config.Browser.UserAgent = DefaultUserAgents[0]
	}

	return config, nil
}

// Default creates the default configuration
func Default() *AppConfig {
	return &AppConfig{
		Input: InputConfig{
			MaxPages: DefaultMaxPages,
		},
		Site: SiteConfig{
			BaseURL: DefaultBaseURL,
		},
		Scraper: ScraperConfig{
			Workers:           DefaultWorkers,
			MaxRetries:        DefaultMaxRetries,
			RetryDelay:        2 * time.Second,
			MaxRetryDelay:     30 * time.Second,
			NavigationTimeout: DefaultNavigationTimeout,
			TableTimeout:      DefaultTableTimeout,
			RowsTimeout:       DefaultRowsTimeout,
			BlockGrace:        DefaultBlockGrace,
			UserAgents:        DefaultUserAgents,
		},
		Pacing: PacingConfig{
			SettleMin:   5 * time.Second,
			SettleMax:   8 * time.Second,
			NextPageMin: 8 * time.Second,
			NextPageMax: 13 * time.Second,
		},
		IO: IOConfig{
			DataDir:    "data",
			ExportFile: "investors.json",
			StaticDir:  filepath.Join("frontend", "public", "data"),
		},
		Dataset: DatasetConfig{
			Driver:       "sqlite",
			Dir:          "storage",
			Name:         "default",
			PurgeOnStart: true,
		},
		Proxies: ProxyConfig{
			Rotate: true,
			List:   []string{},
		},
		Browser: BrowserConfig{
			Enabled:       true,
			Headless:      true,
			UserAgent:     DefaultUserAgents[0],
			WindowWidth:   1920,
			WindowHeight:  1080,
			Screenshot:    true,
			ScreenshotDir: "screenshots",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Normalize applies the fallbacks for unset input values
func (c *AppConfig) Normalize() {
	if c.Input.MaxPages <= 0 {
		c.Input.MaxPages = DefaultMaxPages
	}
	if len(c.Scraper.UserAgents) == 0 {
		c.Scraper.UserAgents = DefaultUserAgents
	}
}

// ShouldExportJSON reports whether the run should write the JSON export.
// Without an explicit choice, export happens unless storage is managed.
func (c *AppConfig) ShouldExportJSON() bool {
	if c.Input.ExportToJSON != nil {
		return *c.Input.ExportToJSON
	}
	return !c.Dataset.Managed
}

// EffectiveProxies returns the run's proxy configuration, preferring the input's
func (c *AppConfig) EffectiveProxies() ProxyConfig {
	if c.Input.Proxy != nil {
		p := *c.Input.Proxy
		if p.Auth == (ProxyAuth{}) {
			p.Auth = c.Proxies.Auth
		}
		return p
	}
	return c.Proxies
}

// WithInput returns a copy of the configuration with the run input replaced.
// Unset fields of in keep the configured values.
func (c *AppConfig) WithInput(in InputConfig) *AppConfig {
	cp := *c
	if len(in.StartURLs) > 0 {
		cp.Input.StartURLs = append([]string(nil), in.StartURLs...)
		cp.Input.StartURLsFile = ""
	}
	if in.MaxPages > 0 {
		cp.Input.MaxPages = in.MaxPages
	}
	if in.ExportToJSON != nil {
		v := *in.ExportToJSON
		cp.Input.ExportToJSON = &v
	}
	if in.Proxy != nil {
		p := *in.Proxy
		cp.Input.Proxy = &p
	}
	cp.Normalize()
	return &cp
}

// Validate checks the configuration for values the crawler cannot run with
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.Scraper.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Scraper.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.Scraper.NavigationTimeout <= 0 || c.Scraper.TableTimeout <= 0 || c.Scraper.RowsTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Scraper.RateLimit < 0 || c.Scraper.BlockGrace < 0 {
		return ErrInvalidDelay
	}
	if c.Pacing.SettleMin < 0 || c.Pacing.SettleMax < c.Pacing.SettleMin ||
		c.Pacing.NextPageMin < 0 || c.Pacing.NextPageMax < c.Pacing.NextPageMin {
		return ErrInvalidPacing
	}
	switch c.Dataset.Driver {
	case "sqlite":
	case "postgres":
		if c.Dataset.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDatasetDriver, c.Dataset.Driver)
	}
	if c.Dataset.Name == "" {
		return ErrNoDatasetName
	}
	return nil
}
