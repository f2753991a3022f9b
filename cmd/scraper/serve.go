package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/api"
	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/crawler"
	"github.com/williampepple1/openvc-scraper/internal/dataset"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve datasets, the JSON export and run control over HTTP",
		Long: `Serve exposes the dashboard endpoints:

  GET  /v2/acts/:actorId               scraper details and last run
  POST /v2/acts/:actorId/runs          start a run with a JSON input body
  GET  /v2/actor-runs/:runId           run status
  POST /v2/actor-runs/:runId/abort     abort a run
  GET  /v2/datasets                    list datasets
  GET  /v2/datasets/:datasetId/items   dataset records (offset, limit)
  GET  /data/investors.json            last JSON export`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", "", "Listen address (default :8080)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
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

	runner := crawler.NewRunner(store, logger)
	start := func(ctx context.Context, runID string, in config.InputConfig) (*crawler.Summary, error) {
		return runner.Run(ctx, runID, cfg.WithInput(in))
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(ctx, store, start, cfg.IO.DataDir, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.SetupRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	srv.Wait()
	return nil
}
