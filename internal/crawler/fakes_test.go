package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/williampepple1/openvc-scraper/internal/scraper"
	"github.com/williampepple1/openvc-scraper/pkg/models"
)

type fakeSite struct {
	body       string
	html       string
	missing    bool
	contentErr error
}

type fakeDriver struct {
	mu          sync.Mutex
	site        map[string]fakeSite
	navErr      error
	screenshots []string
	closed      bool
}

func (d *fakeDriver) NewPage(context.Context) (scraper.Page, error) {
	return &fakePage{driver: d}, nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

type fakePage struct {
	driver  *fakeDriver
	current *fakeSite
}

func (p *fakePage) Navigate(_ context.Context, url string, _ time.Duration) error {
	if p.driver.navErr != nil {
		return p.driver.navErr
	}
	s, ok := p.driver.site[url]
	if !ok {
		return fmt.Errorf("no page at %s", url)
	}
	p.current = &s
	return nil
}

func (p *fakePage) WaitForSelector(_ context.Context, selector string, _ time.Duration) error {
	if p.current.missing {
		return fmt.Errorf("%w: %s", scraper.ErrSelectorTimeout, selector)
	}
	return nil
}

func (p *fakePage) BodyText(context.Context) (string, error) { return p.current.body, nil }

func (p *fakePage) Content(context.Context) (string, error) {
	if p.current.contentErr != nil {
		return "", p.current.contentErr
	}
	return p.current.html, nil
}

func (p *fakePage) Screenshot(_ context.Context, path string) error {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()
	p.driver.screenshots = append(p.driver.screenshots, path)
	return nil
}

func (p *fakePage) Close() error { return nil }

type memSink struct {
	records []models.InvestorRecord
	err     error
}

func (s *memSink) Append(_ context.Context, rec models.InvestorRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

var errDisk = errors.New("disk full")

// resultsPage renders a results table with one row per name
func resultsPage(names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="results_tb"><tbody>`)
	b.WriteString(`<tr class="sponsorRow"><td class="nameCell"><div id="invOverflow">Sponsor</div></td></tr>`)
	for _, n := range names {
		fmt.Fprintf(&b, `<tr><td class="nameCell"><a class="VClink" href="/fund/%s"><div id="invOverflow">%s</div></a><div>VC firm</div></td>`+
			`<td data-label="Check size">$1M</td><td data-label="Funding requirement">Revenue</td></tr>`,
			strings.ToLower(strings.ReplaceAll(n, " ", "-")), n)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}
