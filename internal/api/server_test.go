package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukemunn/edgebot/internal/config"
	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/edge"
	"github.com/lukemunn/edgebot/internal/execution"
	"github.com/lukemunn/edgebot/internal/ingest"
	"github.com/lukemunn/edgebot/internal/jobs"
	"github.com/lukemunn/edgebot/internal/scores"
	"github.com/lukemunn/edgebot/internal/stats"
	"github.com/lukemunn/edgebot/internal/venue"
)

type stubProvider struct{ games []scores.ProviderGame }

func (s *stubProvider) FetchFinalGames(context.Context, string, time.Time) ([]scores.ProviderGame, error) {
	return s.games, nil
}

type stubLines struct{}

func (stubLines) TotalLine(string, string) (decimal.Decimal, bool) { return decimal.Zero, false }

type stubVenue struct{}

func (stubVenue) PlaceOrder(context.Context, venue.OrderRequest) (*venue.OrderResult, error) {
	return &venue.OrderResult{OrderID: "x"}, nil
}
func (stubVenue) Balance(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(1000), nil
}
func (stubVenue) Positions(context.Context) ([]venue.Position, error) { return nil, nil }

func newTestServer(t *testing.T) (*Server, *database.Database) {
	t.Helper()
	db, err := database.NewInMemory()
	require.NoError(t, err)

	cfg := &config.Config{
		DryRun:           true,
		TradeLeadWindow:  12 * time.Hour,
		MinSampleCount:   5,
		MaxPositionUSD:   decimal.NewFromInt(100),
		MaxOpenPositions: 5,
		DailyLossCapUSD:  decimal.NewFromInt(500),
		MinPrice:         decimal.NewFromFloat(0.40),
		MaxPrice:         decimal.NewFromFloat(0.75),
	}

	provider := &stubProvider{games: []scores.ProviderGame{{
		ProviderID: "g1",
		HomeAbbrev: "BOS",
		AwayAbbrev: "LAL",
		HomeScore:  110,
		AwayScore:  104,
		StartTime:  time.Date(2025, 1, 15, 19, 30, 0, 0, time.UTC),
		SeasonYear: 2024,
		Status:     database.GameFinal,
	}}}

	ledger := jobs.NewLedger(db)
	ingestor := ingest.New(db, provider, 2, 0)
	engine := stats.NewEngine(db, 5)
	tiers := edge.Tiers{
		Strong:   decimal.NewFromInt(8),
		Moderate: decimal.NewFromInt(4),
		Weak:     decimal.NewFromInt(1),
	}
	assessor := edge.NewAssessor(db, stubLines{}, tiers)
	trader := execution.NewTrader(db, stubVenue{}, nil, cfg)

	return NewServer(db, ledger, ingestor, engine, assessor, trader, cfg), db
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// waitForJob polls the ledger until the run leaves the running state.
func waitForJob(t *testing.T, db *database.Database, id string) *database.JobRun {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		run, err := db.GetJobRun(id)
		require.NoError(t, err)
		if run != nil && run.Status != jobs.StatusRunning {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never finished")
	return nil
}

func TestIngestTriggerRunsToSuccess(t *testing.T) {
	s, db := newTestServer(t)
	router := s.Router()

	w := postJSON(t, router, "/jobs/ingest",
		`{"sport":"nba","from":"2025-01-15","to":"2025-01-15"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID    string `json:"job_id"`
		Accepted bool   `json:"accepted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
	require.NotEmpty(t, resp.JobID)

	run := waitForJob(t, db, resp.JobID)
	assert.Equal(t, jobs.StatusSuccess, run.Status)
	assert.Equal(t, 1, run.Fetched)
	assert.Equal(t, 1, run.Inserted)

	game, err := db.GetGameByProviderKey("nba", "g1")
	require.NoError(t, err)
	assert.NotNil(t, game)
}

func TestIngestTriggerValidation(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	assert.Equal(t, http.StatusBadRequest,
		postJSON(t, router, "/jobs/ingest", `{"from":"2025-01-15","to":"2025-01-15"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		postJSON(t, router, "/jobs/ingest", `{"sport":"nba","from":"nope","to":"2025-01-15"}`).Code)
	// to before from
	assert.Equal(t, http.StatusBadRequest,
		postJSON(t, router, "/jobs/ingest", `{"sport":"nba","from":"2025-01-15","to":"2025-01-10"}`).Code)
}

func TestRebuildTrigger(t *testing.T) {
	s, db := newTestServer(t)
	router := s.Router()

	w := postJSON(t, router, "/jobs/rebuild", `{"sport":"nba"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	run := waitForJob(t, db, resp.JobID)
	assert.Equal(t, jobs.StatusSuccess, run.Status, "empty rebuild is a clean no-op")
}

func TestTradeTrigger(t *testing.T) {
	s, db := newTestServer(t)
	router := s.Router()

	w := postJSON(t, router, "/jobs/trade", `{"sport":"nba","date":"2025-01-15"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	run := waitForJob(t, db, resp.JobID)
	assert.Equal(t, jobs.StatusSuccess, run.Status)
	assert.Contains(t, run.Details, "dry_run=true")
}

func TestGetJob(t *testing.T) {
	s, db := newTestServer(t)
	router := s.Router()

	ledger := jobs.NewLedger(db)
	id, err := ledger.Start("ingest", "x")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/jobs/not-a-job", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAssessments(t *testing.T) {
	s, db := newTestServer(t)
	router := s.Router()

	require.NoError(t, db.UpsertEdgeAssessment(&database.EdgeAssessment{
		Date:   "2025-01-15",
		GameID: 1,
		Sport:  "nba",
		Line:   decimal.NewFromInt(220),
	}))

	req := httptest.NewRequest(http.MethodGet, "/assessments/2025-01-15?sport=nba", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Assessments []database.EdgeAssessment `json:"assessments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Assessments, 1)

	req = httptest.NewRequest(http.MethodGet, "/assessments/not-a-date", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobs(t *testing.T) {
	s, db := newTestServer(t)
	router := s.Router()

	ledger := jobs.NewLedger(db)
	_, err := ledger.Start("ingest", "a")
	require.NoError(t, err)
	_, err = ledger.Start("trade", "b")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs []database.JobRun `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Jobs, 2)
}
