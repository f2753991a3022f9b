// Package api serves datasets and run control over HTTP for the dashboard.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter registers the API routes
func SetupRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	v2 := r.Group("/v2")
	v2.GET("/acts/:actorId", s.GetActor)
	v2.POST("/acts/:actorId/runs", s.StartRun)
	v2.GET("/actor-runs/:runId", s.GetRun)
	v2.POST("/actor-runs/:runId/abort", s.AbortRun)
	v2.GET("/datasets", s.ListDatasets)
	v2.GET("/datasets/:datasetId/items", s.GetDatasetItems)

	if s.staticDir != "" {
		r.Static("/data", s.staticDir)
	}
	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
