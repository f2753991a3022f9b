package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/dataset"
	"github.com/williampepple1/openvc-scraper/internal/extraction"
	"github.com/williampepple1/openvc-scraper/internal/io"
	"github.com/williampepple1/openvc-scraper/internal/scraper"
	"github.com/williampepple1/openvc-scraper/internal/worker"
)

// DriverFactory creates the page driver for a run
type DriverFactory func(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (scraper.Driver, error)

// Summary reports the outcome of a run
type Summary struct {
	RunID          string    `json:"id"`
	DatasetID      string    `json:"datasetId"`
	Records        int64     `json:"itemCount"`
	PagesSucceeded int64     `json:"pagesSucceeded"`
	PagesFailed    int64     `json:"pagesFailed"`
	Retries        int64     `json:"retries"`
	LastPage       int       `json:"lastPage"`
	ExportPath     string    `json:"exportPath,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Runner wires the driver, controller, engine and dataset for whole runs
type Runner struct {
	Store     *dataset.Store
	NewDriver DriverFactory
	Logger    *zap.Logger
}

// NewRunner creates a runner using the configured scraper driver
func NewRunner(store *dataset.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Store:     store,
		NewDriver: scraper.New,
		Logger:    logger,
	}
}

// Run crawls from the configured start URLs until pagination stops or ctx
// is cancelled. A summary is returned even when the run fails.
func (r *Runner) Run(ctx context.Context, runID string, cfg *config.AppConfig) (*Summary, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	summary := &Summary{RunID: runID, StartedAt: time.Now()}
	log := r.Logger.With(zap.String("run", runID))

	urls, err := io.NewURLReader(&cfg.Input).GetURLs()
	if err != nil {
		return summary, err
	}
	baseURL, err := url.Parse(cfg.Site.BaseURL)
	if err != nil {
		return summary, fmt.Errorf("parse base url: %w", err)
	}

	ds, err := r.Store.Dataset(ctx, cfg.Dataset.Name)
	if err != nil {
		return summary, err
	}
	summary.DatasetID = ds.ID()
	if cfg.Dataset.PurgeOnStart {
		if err := ds.Purge(ctx); err != nil {
			return summary, err
		}
	}

	driver, err := r.NewDriver(ctx, cfg, log)
	if err != nil {
		return summary, fmt.Errorf("create driver: %w", err)
	}
	defer driver.Close()

	ctrl := NewController(OptionsFromConfig(cfg), driver, extraction.NewExtractor(baseURL, log), ds, log)
	pool := worker.NewPool(worker.Options{
		Workers:       cfg.Scraper.Workers,
		MaxRetries:    cfg.Scraper.MaxRetries,
		RateLimit:     cfg.Scraper.RateLimit,
		RetryDelay:    cfg.Scraper.RetryDelay,
		MaxRetryDelay: cfg.Scraper.MaxRetryDelay,
	}, ctrl.Handle, log)
	pool.OnFailed(func(_ context.Context, req worker.Request, err error) {
		ctrl.State().PageFailed()
		log.Error("Request failed after retries", zap.String("url", req.URL), zap.Error(err))
	})

	seeds := make([]worker.Request, 0, len(urls))
	for _, u := range urls {
		seeds = append(seeds, worker.Request{URL: u, Label: LabelStart})
	}

	log.Info("Starting crawl",
		zap.Strings("start_urls", urls),
		zap.Int("max_pages", cfg.Input.MaxPages),
		zap.String("dataset", ds.Name()))

	stats, runErr := pool.Run(ctx, seeds)

	state := ctrl.State()
	summary.Records = state.Records()
	summary.PagesSucceeded = state.PagesSucceeded()
	summary.PagesFailed = state.PagesFailed()
	summary.Retries = stats.Retried
	summary.LastPage = state.LastPage()

	if cfg.ShouldExportJSON() {
		path, err := r.export(context.WithoutCancel(ctx), ds, cfg.IO)
		if err != nil {
			log.Warn("JSON export failed", zap.Error(err))
		} else {
			summary.ExportPath = path
			log.Info("Exported dataset", zap.String("path", path))
		}
	}
	summary.FinishedAt = time.Now()

	log.Info("Scraping completed",
		zap.Int64("records", summary.Records),
		zap.Int64("pages_ok", summary.PagesSucceeded),
		zap.Int64("pages_failed", summary.PagesFailed),
		zap.Int64("retries", summary.Retries),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))

	if runErr != nil {
		return summary, runErr
	}
	if summary.PagesSucceeded == 0 && summary.PagesFailed > 0 {
		return summary, ErrNoPagesSucceeded
	}
	return summary, nil
}

func (r *Runner) export(ctx context.Context, ds *dataset.Dataset, cfg config.IOConfig) (string, error) {
	records, err := ds.GetAll(ctx)
	if err != nil {
		return "", err
	}
	return io.NewResultWriter(&cfg).SaveToFile(records)
}

// IsAbort reports whether err means the run was stopped rather than failed
func IsAbort(err error) bool {
	return errors.Is(err, context.Canceled)
}
