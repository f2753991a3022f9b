package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/proxy"
)

const tablePage = `<html><body><h1>Investors</h1>
<table id="results_tb"><tbody><tr><td class="nameCell"><div id="invOverflow">Acme</div></td></tr></tbody></table>
</body></html>`

func newTestDriver() *HTTPDriver {
	cfg := config.Default().Scraper
	cfg.UserAgents = []string{"test-agent/1.0"}
	return NewHTTPDriver(cfg, proxy.NewManager(config.ProxyConfig{}), nil)
}

func TestHTTPPageLoadsDocument(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(tablePage))
	}))
	defer srv.Close()

	ctx := context.Background()
	page, err := newTestDriver().NewPage(ctx)
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, srv.URL+"/search", time.Second))
	assert.Equal(t, "test-agent/1.0", gotUA)

	assert.NoError(t, page.WaitForSelector(ctx, "table#results_tb tbody tr", time.Second))
	assert.ErrorIs(t, page.WaitForSelector(ctx, "div.missing", time.Second), ErrSelectorTimeout)

	text, err := page.BodyText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "Investors")

	html, err := page.Content(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `id="results_tb"`)

	assert.ErrorIs(t, page.Screenshot(ctx, "x.png"), ErrScreenshotUnsupported)
}

func TestHTTPPageRejectsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	page, err := newTestDriver().NewPage(ctx)
	require.NoError(t, err)

	err = page.Navigate(ctx, srv.URL, time.Second)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestHTTPPageNavigateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx := context.Background()
	page, err := newTestDriver().NewPage(ctx)
	require.NoError(t, err)

	err = page.Navigate(ctx, srv.URL, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPPageBeforeNavigate(t *testing.T) {
	ctx := context.Background()
	page, err := newTestDriver().NewPage(ctx)
	require.NoError(t, err)

	_, err = page.Content(ctx)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestNewPicksHTTPDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Enabled = false

	d, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer d.Close()
	assert.IsType(t, &HTTPDriver{}, d)
}
