// Package scraper provides the page automation used by the crawler: a
// headless Chrome driver for the live site and a plain HTTP driver for
// pages that render without JavaScript.
package scraper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/proxy"
)

var (
	// ErrSelectorTimeout is returned when a selector did not appear in time.
	ErrSelectorTimeout = errors.New("timed out waiting for selector")

	// ErrScreenshotUnsupported is returned by drivers that cannot render pages.
	ErrScreenshotUnsupported = errors.New("screenshots not supported by driver")

	// ErrUnexpectedStatus is returned when a page responds with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrNotLoaded is returned when a page is queried before navigation.
	ErrNotLoaded = errors.New("page not loaded")
)

// Page is one browser tab
type Page interface {
	// Navigate loads url, failing after timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitForSelector blocks until selector matches an element.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	// BodyText returns the text content of the document body.
	BodyText(ctx context.Context) (string, error)
	// Content returns the serialized document HTML.
	Content(ctx context.Context) (string, error)
	// Screenshot writes a PNG capture of the page to path.
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Driver creates pages
type Driver interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// New creates a driver based on the configuration
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	proxies := proxy.NewManager(cfg.EffectiveProxies())
	if !proxies.Enabled() {
		logger.Warn("no proxy configured, requests may be blocked")
	}

	if cfg.Browser.Enabled {
		return NewChromeDriver(ctx, cfg.Browser, proxies, logger)
	}
	return NewHTTPDriver(cfg.Scraper, proxies, logger), nil
}
