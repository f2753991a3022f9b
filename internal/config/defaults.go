package config

import "time"

// DefaultBaseURL is the site the extractor resolves relative links against
const DefaultBaseURL = "https://openvc.app/"

// Crawl defaults
const (
	DefaultMaxPages          = 1000
	DefaultWorkers           = 1
	DefaultMaxRetries        = 3
	DefaultNavigationTimeout = 60 * time.Second
	DefaultTableTimeout      = 30 * time.Second
	DefaultRowsTimeout       = 20 * time.Second
	DefaultBlockGrace        = 5 * time.Second
)

// DefaultUserAgents provides a list of common desktop Chrome user agents
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// DefaultStartURLs is used when no start URLs are configured
var DefaultStartURLs = []string{
	"https://openvc.app/search",
}
