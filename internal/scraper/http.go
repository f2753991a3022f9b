package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/proxy"
)

// maxBodySize caps how much of a response is read
const maxBodySize = 10 << 20

// HTTPDriver fetches pages with plain GET requests. Pages are not rendered,
// so selectors either match the served HTML or never will.
type HTTPDriver struct {
	Config config.ScraperConfig
	Proxy  *proxy.Manager
	logger *zap.Logger
}

// NewHTTPDriver creates a new HTTP driver
func NewHTTPDriver(cfg config.ScraperConfig, proxies *proxy.Manager, logger *zap.Logger) *HTTPDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDriver{
		Config: cfg,
		Proxy:  proxies,
		logger: logger,
	}
}

// NewPage creates a page with its own transport, so proxy rotation applies per page
func (d *HTTPDriver) NewPage(_ context.Context) (Page, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	proxyUsed, err := d.Proxy.ApplyToTransport(transport)
	if err != nil {
		return nil, fmt.Errorf("error applying proxy: %w", err)
	}
	if proxyUsed != "" {
		d.logger.Debug("page uses proxy", zap.String("proxy", proxyUsed))
	}

	userAgent := ""
	if len(d.Config.UserAgents) > 0 {
		userAgent = d.Config.UserAgents[rand.Intn(len(d.Config.UserAgents))]
	}

	return &httpPage{
		client:    &http.Client{Transport: transport},
		userAgent: userAgent,
	}, nil
}

// Close is a no-op; pages release their own connections
func (d *HTTPDriver) Close() error {
	return nil
}

type httpPage struct {
	client    *http.Client
	userAgent string
	doc       *goquery.Document
	html      string
}

func (p *httpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	p.doc = doc
	p.html = string(body)
	return nil
}

func (p *httpPage) WaitForSelector(_ context.Context, selector string, _ time.Duration) error {
	if p.doc == nil {
		return ErrNotLoaded
	}
	if p.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrSelectorTimeout, selector)
	}
	return nil
}

func (p *httpPage) BodyText(_ context.Context) (string, error) {
	if p.doc == nil {
		return "", ErrNotLoaded
	}
	return p.doc.Find("body").Text(), nil
}

func (p *httpPage) Content(_ context.Context) (string, error) {
	if p.doc == nil {
		return "", ErrNotLoaded
	}
	return p.html, nil
}

func (p *httpPage) Screenshot(_ context.Context, _ string) error {
	return ErrScreenshotUnsupported
}

func (p *httpPage) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
