package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/williampepple1/openvc-scraper/internal/config"
	"github.com/williampepple1/openvc-scraper/internal/crawler"
	"github.com/williampepple1/openvc-scraper/internal/dataset"
)

// ActorName identifies the scraper in actor responses
const ActorName = "openvc-scraper"

// Run statuses
const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
)

// RunFunc executes one crawl run with the given input
type RunFunc func(ctx context.Context, runID string, in config.InputConfig) (*crawler.Summary, error)

// Run is the public view of a crawl run
type Run struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	DefaultDatasetID string     `json:"defaultDatasetId,omitempty"`
	ItemCount        int64      `json:"itemCount"`
	Error            string     `json:"error,omitempty"`
}

// Server holds the API state. Only one run executes at a time.
type Server struct {
	store     *dataset.Store
	start     RunFunc
	staticDir string
	logger    *zap.Logger

	baseCtx context.Context
	wg      sync.WaitGroup

	mu      sync.Mutex
	runs    map[string]*Run
	cancels map[string]context.CancelFunc
	active  string
	lastRun string
}

// NewServer creates an API server. Runs are cancelled when ctx is done.
func NewServer(ctx context.Context, store *dataset.Store, start RunFunc, staticDir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     store,
		start:     start,
		staticDir: staticDir,
		logger:    logger,
		baseCtx:   ctx,
		runs:      make(map[string]*Run),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Wait blocks until background runs have finished
func (s *Server) Wait() {
	s.wg.Wait()
}

func respondError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": gin.H{"type": kind, "message": message}})
}

// GetActor returns the scraper description with run statistics
func (s *Server) GetActor(c *gin.Context) {
	s.mu.Lock()
	data := gin.H{
		"id":          c.Param("actorId"),
		"name":        ActorName,
		"description": "OpenVC investor directory scraper",
		"stats":       gin.H{"totalRuns": len(s.runs)},
	}
	if last, ok := s.runs[s.lastRun]; ok {
		data["lastRun"] = *last
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// StartRun starts a crawl in the background with the posted input
func (s *Server) StartRun(c *gin.Context) {
	var in config.InputConfig
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			respondError(c, http.StatusBadRequest, "invalid-input", err.Error())
			return
		}
	}

	s.mu.Lock()
	if s.active != "" {
		s.mu.Unlock()
		respondError(c, http.StatusConflict, "run-in-progress", "a run is already in progress")
		return
	}
	run := &Run{ID: uuid.NewString(), Status: StatusRunning, StartedAt: time.Now().UTC()}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.runs[run.ID] = run
	s.cancels[run.ID] = cancel
	s.active = run.ID
	s.lastRun = run.ID
	snapshot := *run
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(ctx, run.ID, in)

	c.JSON(http.StatusCreated, gin.H{"data": snapshot})
}

func (s *Server) execute(ctx context.Context, id string, in config.InputConfig) {
	defer s.wg.Done()

	summary, err := s.start(ctx, id, in)

	s.mu.Lock()
	defer s.mu.Unlock()

	run := s.runs[id]
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if summary != nil {
		run.DefaultDatasetID = summary.DatasetID
		run.ItemCount = summary.Records
	}
	switch {
	case err == nil:
		run.Status = StatusSucceeded
	case crawler.IsAbort(err):
		run.Status = StatusAborted
	default:
		run.Status = StatusFailed
		run.Error = err.Error()
		s.logger.Error("run failed", zap.String("run", id), zap.Error(err))
	}

	s.cancels[id]()
	delete(s.cancels, id)
	if s.active == id {
		s.active = ""
	}
}

// GetRun returns the state of a run
func (s *Server) GetRun(c *gin.Context) {
	s.mu.Lock()
	run, ok := s.runs[c.Param("runId")]
	var snapshot Run
	if ok {
		snapshot = *run
	}
	s.mu.Unlock()

	if !ok {
		respondError(c, http.StatusNotFound, "record-not-found", "run not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// AbortRun cancels a running crawl
func (s *Server) AbortRun(c *gin.Context) {
	id := c.Param("runId")

	s.mu.Lock()
	run, ok := s.runs[id]
	cancel, running := s.cancels[id]
	var snapshot Run
	if ok {
		snapshot = *run
	}
	s.mu.Unlock()

	if !ok {
		respondError(c, http.StatusNotFound, "record-not-found", "run not found")
		return
	}
	if running {
		cancel()
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// ListDatasets returns all datasets
func (s *Server) ListDatasets(c *gin.Context) {
	infos, err := s.store.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal-error", err.Error())
		return
	}
	if infos == nil {
		infos = []dataset.Info{}
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"items": infos, "total": len(infos)}})
}

// GetDatasetItems returns dataset records as a JSON array
func (s *Server) GetDatasetItems(c *gin.Context) {
	offset, err := queryInt(c, "offset")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid-parameter", "offset must be a non-negative integer")
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid-parameter", "limit must be a non-negative integer")
		return
	}

	ctx := c.Request.Context()
	ds, err := s.store.Lookup(ctx, c.Param("datasetId"))
	if errors.Is(err, dataset.ErrNotFound) {
		respondError(c, http.StatusNotFound, "record-not-found", "dataset not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal-error", err.Error())
		return
	}

	items, err := ds.Items(ctx, offset, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal-error", err.Error())
		return
	}
	c.JSON(http.StatusOK, items)
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}
