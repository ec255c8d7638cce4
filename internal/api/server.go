// Package api is the HTTP trigger surface for batch operations. Each
// endpoint inserts a job ledger row, launches the batch in the background
// and returns the job id immediately; callers poll GET /jobs/:id for
// progress.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/lukemunn/edgebot/internal/config"
	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/edge"
	"github.com/lukemunn/edgebot/internal/execution"
	"github.com/lukemunn/edgebot/internal/ingest"
	"github.com/lukemunn/edgebot/internal/jobs"
	"github.com/lukemunn/edgebot/internal/stats"
)

type Server struct {
	db       *database.Database
	ledger   *jobs.Ledger
	ingestor *ingest.Ingestor
	engine   *stats.Engine
	assessor *edge.Assessor
	trader   *execution.Trader
	cfg      *config.Config
}

func NewServer(db *database.Database, ledger *jobs.Ledger, ingestor *ingest.Ingestor,
	engine *stats.Engine, assessor *edge.Assessor, trader *execution.Trader, cfg *config.Config) *Server {
	return &Server{
		db:       db,
		ledger:   ledger,
		ingestor: ingestor,
		engine:   engine,
		assessor: assessor,
		trader:   trader,
		cfg:      cfg,
	}
}

// Router builds the gin engine with all trigger routes.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/jobs/ingest", s.triggerIngest)
	r.POST("/jobs/rebuild", s.triggerRebuild)
	r.POST("/jobs/trade", s.triggerTrade)
	r.GET("/jobs/:id", s.getJob)
	r.GET("/jobs", s.listJobs)
	r.GET("/assessments/:date", s.listAssessments)

	return r
}

type ingestRequest struct {
	Sport     string `json:"sport" binding:"required"`
	From      string `json:"from" binding:"required"` // YYYY-MM-DD
	To        string `json:"to" binding:"required"`
	Recompute bool   `json:"recompute"` // rebuild stats after ingesting
}

func (s *Server) triggerIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad from date"})
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil || to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad to date"})
		return
	}

	jobID, err := s.ledger.Start("ingest", fmt.Sprintf("%s %s..%s", req.Sport, req.From, req.To))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Detach from the request: the batch outlives this connection and is
	// observed through the ledger only.
	go func() {
		ctx := context.Background()
		counters := s.ingestor.IngestRange(ctx, req.Sport, from, to)

		if req.Recompute {
			if _, err := s.engine.RebuildAll(ctx, req.Sport); err != nil {
				log.Error().Err(err).Str("job", jobID).Msg("Post-ingest rebuild failed")
			}
		}

		status := jobs.Outcome(counters.Errors, counters.Inserted+counters.Skipped)
		s.ledger.Finish(jobID, status, counters.Fetched, counters.Inserted, counters.Skipped, counters.Errors, "")
	}()

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "accepted": true})
}

type rebuildRequest struct {
	Sport string `json:"sport" binding:"required"`
}

func (s *Server) triggerRebuild(c *gin.Context) {
	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := s.ledger.Start("rebuild", req.Sport)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	go func() {
		counters, err := s.engine.RebuildAll(context.Background(), req.Sport)
		if err != nil {
			s.ledger.Finish(jobID, jobs.StatusFail, 0, 0, 0, 1, err.Error())
			return
		}
		status := jobs.Outcome(counters.Errors, counters.Pairs)
		s.ledger.Finish(jobID, status, counters.Pairs, counters.Upserted, 0, counters.Errors, "")
	}()

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "accepted": true})
}

type tradeRequest struct {
	Sport  string `json:"sport" binding:"required"`
	Date   string `json:"date"` // defaults to today (UTC)
	DryRun *bool  `json:"dry_run"`
}

func (s *Server) triggerTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	day := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad date"})
			return
		}
		day = parsed
	}

	// A request can force dry-run but never force live trading past config.
	dryRun := s.cfg.DryRun
	if req.DryRun != nil && *req.DryRun {
		dryRun = true
	}

	jobID, err := s.ledger.Start("trade", fmt.Sprintf("%s %s dry_run=%t", req.Sport, day.Format("2006-01-02"), dryRun))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	go func() {
		ctx := context.Background()

		assessed, err := s.assessor.AssessDate(ctx, req.Sport, day)
		if err != nil {
			s.ledger.Finish(jobID, jobs.StatusFail, assessed, 0, 0, 1, err.Error())
			return
		}

		counters, err := s.trader.Run(ctx, req.Sport, day, dryRun)
		if err != nil {
			s.ledger.Finish(jobID, jobs.StatusFail, assessed, 0, 0, 1, err.Error())
			return
		}
		status := jobs.Outcome(counters.Errors, counters.Submitted+counters.Skipped)
		s.ledger.Finish(jobID, status, counters.Scanned, counters.Submitted, counters.Skipped, counters.Errors, "")
	}()

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "accepted": true})
}

func (s *Server) getJob(c *gin.Context) {
	run, err := s.db.GetJobRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// listAssessments returns the day's edge snapshots, strongest first.
func (s *Server) listAssessments(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad date"})
		return
	}

	list, err := s.db.AssessmentsForDate(date, c.Query("sport"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": list})
}

func (s *Server) listJobs(c *gin.Context) {
	runs, err := s.db.RecentJobRuns(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": runs})
}
