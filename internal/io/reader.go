package io

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/williampepple1/openvc-scraper/internal/config"
)

// URLReader reads start URLs from various sources
type URLReader struct {
	Config *config.InputConfig
}

// NewURLReader creates a new URL reader
func NewURLReader(config *config.InputConfig) *URLReader {
	return &URLReader{
		Config: config,
	}
}

// ReadFromFile reads URLs from a file, one URL per line
func (r *URLReader) ReadFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url != "" && !strings.HasPrefix(url, "#") {
			urls = append(urls, url)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return urls, nil
}

// GetURLs returns the configured start URLs, the URLs listed in the start
// file, or the default search page, in that order of preference.
func (r *URLReader) GetURLs() ([]string, error) {
	var urls []string
	switch {
	case len(r.Config.StartURLs) > 0:
		urls = r.Config.StartURLs
	case r.Config.StartURLsFile != "":
		var err error
		urls, err = r.ReadFromFile(r.Config.StartURLsFile)
		if err != nil {
			return nil, fmt.Errorf("read start urls: %w", err)
		}
	}

	if len(urls) == 0 {
		return append([]string(nil), config.DefaultStartURLs...), nil
	}

	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStartURL, raw)
		}
	}
	return urls, nil
}
