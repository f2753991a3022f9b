package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/crawler"
	"github.com/williampepple1/openvc-scraper/internal/dataset"
)

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Scrape investor result pages into the dataset",
		Long: `Crawl opens each start URL, harvests the investor table and follows the
page query parameter until --max-pages is reached.

Examples:
  # Scrape the first five pages
  openvc-scraper crawl --max-pages 5

  # Resume from page 40 without a browser
  openvc-scraper crawl --start-url "https://openvc.app/search?page=40" --http`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringSliceP("start-url", "u", nil, "Start URL (repeatable, default https://openvc.app/search)")
	cmd.Flags().StringP("start-urls-file", "f", "", "File with one start URL per line")
	cmd.Flags().IntP("max-pages", "p", 0, "Highest page number to visit (default 1000)")
	cmd.Flags().Bool("export-json", false, "Write data/investors.json when the run ends (default: on unless storage is managed)")
	cmd.Flags().IntP("workers", "w", 0, "Pages processed concurrently")
	cmd.Flags().Bool("http", false, "Fetch pages over plain HTTP instead of headless Chrome")
	cmd.Flags().StringSlice("proxy", nil, "Proxy URL (repeatable)")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if urls, _ := flags.GetStringSlice("start-url"); len(urls) > 0 {
		cfg.Input.StartURLs = urls
	}
	if file, _ := flags.GetString("start-urls-file"); file != "" {
		cfg.Input.StartURLs = nil
		cfg.Input.StartURLsFile = file
	}
	if n, _ := flags.GetInt("max-pages"); n > 0 {
		cfg.Input.MaxPages = n
	}
	if flags.Changed("export-json") {
		export, _ := flags.GetBool("export-json")
		cfg.Input.ExportToJSON = &export
	}
	if n, _ := flags.GetInt("workers"); n > 0 {
		cfg.Scraper.Workers = n
	}
	if useHTTP, _ := flags.GetBool("http"); useHTTP {
		cfg.Browser.Enabled = false
	}
	if proxies, _ := flags.GetStringSlice("proxy"); len(proxies) > 0 {
		cfg.Proxies.Enabled = true
		cfg.Proxies.List = proxies
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := dataset.Open(cfg.Dataset, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := crawler.NewRunner(store, logger).Run(ctx, "", cfg)
	if summary != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Scraped %d investors from %d pages (%d failed)\n",
			summary.Records, summary.PagesSucceeded, summary.PagesFailed)
		if summary.ExportPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", summary.ExportPath)
		}
	}
	if err != nil && crawler.IsAbort(err) {
		logger.Warn("crawl aborted", zap.Error(err))
		return nil
	}
	return err
}
