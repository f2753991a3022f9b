package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/proxy"
)

// extraHeaders are sent with every request so the tab looks like a regular browser
var extraHeaders = network.Headers{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Sec-Ch-Ua-Mobile":          "?0",
	"Sec-Ch-Ua-Platform":        `"Windows"`,
}

// stealthScript runs before any page script and hides the usual automation markers
const stealthScript = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	window.chrome = { runtime: {} };
	Object.defineProperty(navigator, 'permissions', {
		get: () => ({ query: async () => ({ state: 'granted' }) }),
	});
})();`

// ChromeDriver drives a headless Chrome instance; each page is a new tab
type ChromeDriver struct {
	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	proxyUser     *url.Userinfo
	logger        *zap.Logger
}

// NewChromeDriver launches the browser
func NewChromeDriver(ctx context.Context, cfg config.BrowserConfig, proxies *proxy.Manager, logger *zap.Logger) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	server, user, err := proxies.BrowserProxy()
	if err != nil {
		return nil, err
	}
	if server != "" {
		opts = append(opts, chromedp.ProxyServer(server))
		logger.Info("using proxy", zap.String("proxy", server))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Errorf),
	)

	// Start the browser now so launch failures surface before crawling
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &ChromeDriver{
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		proxyUser:     user,
		logger:        logger,
	}, nil
}

// NewPage opens a new tab
func (d *ChromeDriver) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(d.browserCtx)
	p := &chromePage{ctx: tabCtx, cancel: cancel}

	actions := tabSetup()
	if d.proxyUser != nil {
		d.listenForAuth(tabCtx)
		actions = append(actions, fetch.Enable().WithHandleAuthRequests(true))
	}

	if err := p.run(ctx, 0, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return p, nil
}

// tabSetup returns the actions run on every new tab before navigation
func tabSetup() []chromedp.Action {
	return []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(extraHeaders),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
}

// listenForAuth answers proxy credential challenges on the tab. With the
// fetch domain enabled every request is paused and must be continued.
func (d *ChromeDriver) listenForAuth(tabCtx context.Context) {
	password, _ := d.proxyUser.Password()
	username := d.proxyUser.Username()

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				_ = chromedp.Run(tabCtx, fetch.ContinueRequest(ev.RequestID))
			}()
		case *fetch.EventAuthRequired:
			go func() {
				_ = chromedp.Run(tabCtx, fetch.ContinueWithAuth(ev.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}))
			}()
		}
	})
}

// Close shuts the browser down
func (d *ChromeDriver) Close() error {
	d.cancelBrowser()
	d.cancelAlloc()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by timeout when positive and
// aborted when ctx is cancelled
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.Navigate(url))
}

func (p *chromePage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s", ErrSelectorTimeout, selector)
	}
	return err
}

func (p *chromePage) BodyText(ctx context.Context) (string, error) {
	var text string
	err := p.run(ctx, 0, chromedp.Evaluate(`document.body ? document.body.textContent : ""`, &text))
	return text, err
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromePage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, 0, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
