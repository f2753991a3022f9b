// Package crawler runs the investor directory crawl: it opens each results
// page, checks for blocking, harvests the table, stores the records and
// schedules the next page.
package crawler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/dataset"
	"github.com/williampepple1/openvc-scraper/internal/extraction"
	"github.com/williampepple1/openvc-scraper/internal/pagination"
	"github.com/williampepple1/openvc-scraper/internal/scraper"
	"github.com/williampepple1/openvc-scraper/internal/worker"
	"github.com/williampepple1/openvc-scraper/pkg/models"
)

// Request labels
const (
	LabelStart    = "START"
	LabelNextPage = "NEXT_PAGE"
)

// Options configures a Controller. It is fixed for the lifetime of a run.
type Options struct {
	MaxPages          int
	NavigationTimeout time.Duration
	TableTimeout      time.Duration
	RowsTimeout       time.Duration
	BlockGrace        time.Duration
	Settle            Pacer
	NextPage          Pacer
	// ScreenshotDir receives error screenshots; empty disables them.
	ScreenshotDir string
}

// OptionsFromConfig derives controller options from the application configuration
func OptionsFromConfig(cfg *config.AppConfig) Options {
	opts := Options{
		MaxPages:          cfg.Input.MaxPages,
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		TableTimeout:      cfg.Scraper.TableTimeout,
		RowsTimeout:       cfg.Scraper.RowsTimeout,
		BlockGrace:        cfg.Scraper.BlockGrace,
		Settle:            Pacer{Min: cfg.Pacing.SettleMin, Max: cfg.Pacing.SettleMax},
		NextPage:          Pacer{Min: cfg.Pacing.NextPageMin, Max: cfg.Pacing.NextPageMax},
	}
	if cfg.Browser.Screenshot {
		opts.ScreenshotDir = cfg.Browser.ScreenshotDir
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = config.DefaultMaxPages
	}
	return opts
}

// Controller handles one results page per request
type Controller struct {
	opts      Options
	driver    scraper.Driver
	extractor *extraction.Extractor
	sink      dataset.Sink
	state     *State
	logger    *zap.Logger
	now       func() time.Time
}

// NewController creates a controller writing records to sink
func NewController(opts Options, driver scraper.Driver, extractor *extraction.Extractor, sink dataset.Sink, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		opts:      opts,
		driver:    driver,
		extractor: extractor,
		sink:      sink,
		state:     NewState(opts.MaxPages),
		logger:    logger,
		now:       time.Now,
	}
}

// State returns the run state
func (c *Controller) State() *State {
	return c.state
}

// Handle processes one page and returns the next page request, if any.
// Errors are returned to the engine, which decides whether to retry.
func (c *Controller) Handle(ctx context.Context, req worker.Request) ([]worker.Request, error) {
	log := c.logger.With(zap.String("url", req.URL), zap.String("label", req.Label))
	log.Info("Scraping page", zap.Int("retry", req.RetryCount))

	page, err := c.driver.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %w", ErrNavigation, err)
	}
	defer page.Close()

	count, err := c.process(ctx, page, req.URL, log)
	if err != nil {
		log.Error("Error processing page", zap.Error(err))
		c.captureError(ctx, page, log)
		return nil, err
	}

	c.state.PageSucceeded(pagination.CurrentPage(req.URL))
	log.Info("Extracted investors", zap.Int("count", count), zap.Int64("total", c.state.Records()))

	return c.decide(ctx, req.URL, log)
}

// process loads the page and stores its records, returning how many were stored
func (c *Controller) process(ctx context.Context, page scraper.Page, url string, log *zap.Logger) (int, error) {
	if err := page.Navigate(ctx, url, c.opts.NavigationTimeout); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	if err := c.opts.Settle.Wait(ctx); err != nil {
		return 0, err
	}

	body, err := page.BodyText(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: read body: %w", ErrNavigation, err)
	}
	if indicator, blocked := detectBlock(body); blocked {
		return 0, fmt.Errorf("%w: page contains %q", ErrBlocked, indicator)
	}

	records, err := c.harvest(ctx, page, log)
	if err != nil {
		return 0, err
	}
	return c.persist(ctx, records)
}

// harvest waits for the results table and extracts its rows. A table that
// never appears is not fatal unless the page turns out to be a block page.
func (c *Controller) harvest(ctx context.Context, page scraper.Page, log *zap.Logger) ([]models.InvestorRecord, error) {
	if err := c.waitForTable(ctx, page); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("Timeout waiting for table", zap.Error(err))

		if err := sleep(ctx, c.opts.BlockGrace); err != nil {
			return nil, err
		}
		if html, err := page.Content(ctx); err == nil {
			if indicator, blocked := detectBlockedContent(html); blocked {
				return nil, fmt.Errorf("%w: page contains %q", ErrBlocked, indicator)
			}
		}
	}

	html, err := page.Content(ctx)
	if err != nil {
		log.Error("Failed to read page content", zap.Error(err))
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Error("Failed to parse page content", zap.Error(err))
		return nil, nil
	}
	return c.extractor.Harvest(doc), nil
}

func (c *Controller) waitForTable(ctx context.Context, page scraper.Page) error {
	if err := page.WaitForSelector(ctx, extraction.TableBodySelector, c.opts.TableTimeout); err != nil {
		return err
	}
	return page.WaitForSelector(ctx, extraction.RowSelector, c.opts.RowsTimeout)
}

// persist appends records in order; records without any name are skipped
func (c *Controller) persist(ctx context.Context, records []models.InvestorRecord) (int, error) {
	stored := 0
	for _, rec := range records {
		if !rec.Persistable() {
			continue
		}
		if err := c.sink.Append(ctx, rec); err != nil {
			return stored, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		stored++
		c.state.AddRecords(1)
	}
	return stored, nil
}

// decide returns the request for the following page, after the next-page delay
func (c *Controller) decide(ctx context.Context, url string, log *zap.Logger) ([]worker.Request, error) {
	next, ok := pagination.NextTarget(url, c.opts.MaxPages)
	if !ok {
		log.Info("Reached max pages limit", zap.Int("max_pages", c.opts.MaxPages))
		return nil, nil
	}

	if err := c.opts.NextPage.Wait(ctx); err != nil {
		return nil, err
	}
	log.Info("Enqueued next page", zap.String("next", next))
	return []worker.Request{{URL: next, Label: LabelNextPage}}, nil
}

// captureError saves a screenshot of a failed page. Failures are only logged.
func (c *Controller) captureError(ctx context.Context, page scraper.Page, log *zap.Logger) {
	if c.opts.ScreenshotDir == "" || ctx.Err() != nil {
		return
	}
	path := filepath.Join(c.opts.ScreenshotDir, fmt.Sprintf("error-%d.png", c.now().UnixMilli()))
	if err := page.Screenshot(ctx, path); err != nil {
		log.Debug("Could not take error screenshot", zap.Error(err))
		return
	}
	log.Info("Saved error screenshot", zap.String("path", path))
}
