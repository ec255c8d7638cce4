// Edgebot - Historical Totals Edge Bot
//
// Ingests finalized scores, maintains per-matchup percentile baselines and
// trades sportsbook total lines that sit beyond those baselines.
//
// Pipeline:
// 1. Ingest final scores per sport/date into canonical matchup samples
// 2. Recompute nearest-rank percentile caches per pair and recency segment
// 3. Compare the live total line against cached p05/p95 per game-day
// 4. Size, price and submit signed orders for qualifying edges
//
// Batches are triggered over HTTP and observed through the job ledger;
// scheduled catch-up and trading loops run in-process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lukemunn/edgebot/internal/api"
	"github.com/lukemunn/edgebot/internal/config"
	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/edge"
	"github.com/lukemunn/edgebot/internal/execution"
	"github.com/lukemunn/edgebot/internal/ingest"
	"github.com/lukemunn/edgebot/internal/jobs"
	"github.com/lukemunn/edgebot/internal/lines"
	"github.com/lukemunn/edgebot/internal/notify"
	"github.com/lukemunn/edgebot/internal/scores"
	"github.com/lukemunn/edgebot/internal/stats"
	"github.com/lukemunn/edgebot/internal/venue"
)

const version = "1.2.0"

func main() {
	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("version", version).
		Strs("sports", cfg.Sports).
		Bool("dry_run", cfg.DryRun).
		Msg("⚡ Edgebot starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// ====== CORE COMPONENTS ======

	// 1. Scores provider client + ingestor
	scoresClient := scores.NewClient(cfg.ScoresAPIURL, cfg.ScoresAPIKey,
		cfg.ScoresTimeout, cfg.ScoresMaxRetries, cfg.ScoresRateLimit)
	ingestor := ingest.New(db, scoresClient, cfg.IngestFanout, cfg.IngestBatchDelay)

	// 2. Percentile engine
	engine := stats.NewEngine(db, cfg.MinSampleCount)

	// 3. Live line feed
	lineFeed := lines.NewFeed(cfg.LinesWSURL, cfg.LinesAPIURL, cfg.LinesTimeout)
	lineFeed.Start()

	// 4. Edge assessor
	tiers := edge.Tiers{
		Strong:   cfg.StrongEdgePts,
		Moderate: cfg.ModerateEdgePts,
		Weak:     cfg.WeakEdgePts,
	}
	assessor := edge.NewAssessor(db, lineFeed, tiers)

	// 5. Venue client + notifier + trader
	venueClient := venue.NewClient(cfg.VenueAPIURL, cfg.VenueAPIKey, cfg.VenuePrivateKey, cfg.VenueTimeout)
	notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
	}
	trader := execution.NewTrader(db, venueClient, notifier, cfg)

	// 6. Job ledger + trigger API
	ledger := jobs.NewLedger(db)
	server := api.NewServer(db, ledger, ingestor, engine, assessor, trader, cfg)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.APIPort),
		Handler: server.Router(),
	}
	go func() {
		log.Info().Int("port", cfg.APIPort).Msg("🌐 Trigger API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server failed")
		}
	}()

	// ====== SCHEDULED LOOPS ======

	// Catch-up ingest + rebuild + assess, per sport
	go func() {
		ticker := time.NewTicker(cfg.IngestInterval)
		defer ticker.Stop()
		for {
			runCatchUp(ctx, cfg, ledger, ingestor, engine, assessor)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Trading cycles
	go func() {
		ticker := time.NewTicker(cfg.TradeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, sport := range cfg.Sports {
					runTradeCycle(ctx, sport, cfg, ledger, assessor, trader)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Msg("✅ All systems online")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("🛑 Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API shutdown failed")
	}
	lineFeed.Stop()

	log.Info().Msg("👋 Goodbye!")
}

// runCatchUp ingests the trailing two days for every sport, then refreshes
// stats and today's assessments. Ledgered like any triggered batch.
func runCatchUp(ctx context.Context, cfg *config.Config, ledger *jobs.Ledger,
	ingestor *ingest.Ingestor, engine *stats.Engine, assessor *edge.Assessor) {
	now := time.Now().UTC()
	for _, sport := range cfg.Sports {
		jobID, err := ledger.Start("catchup", sport)
		if err != nil {
			log.Error().Err(err).Str("sport", sport).Msg("Catch-up ledger insert failed")
			continue
		}

		counters := ingestor.IngestRange(ctx, sport, now.AddDate(0, 0, -2), now)
		if _, err := engine.RebuildAll(ctx, sport); err != nil {
			log.Error().Err(err).Str("sport", sport).Msg("Catch-up rebuild failed")
		}
		if _, err := assessor.AssessDate(ctx, sport, now); err != nil {
			log.Error().Err(err).Str("sport", sport).Msg("Catch-up assessment failed")
		}

		status := jobs.Outcome(counters.Errors, counters.Inserted+counters.Skipped)
		ledger.Finish(jobID, status, counters.Fetched, counters.Inserted, counters.Skipped, counters.Errors, "")
	}
}

// runTradeCycle assesses today's games and runs one trading cycle.
func runTradeCycle(ctx context.Context, sport string, cfg *config.Config, ledger *jobs.Ledger,
	assessor *edge.Assessor, trader *execution.Trader) {
	jobID, err := ledger.Start("trade", sport)
	if err != nil {
		log.Error().Err(err).Str("sport", sport).Msg("Trade ledger insert failed")
		return
	}

	day := time.Now().UTC()
	assessed, err := assessor.AssessDate(ctx, sport, day)
	if err != nil {
		ledger.Finish(jobID, jobs.StatusFail, assessed, 0, 0, 1, err.Error())
		return
	}

	counters, err := trader.Run(ctx, sport, day, cfg.DryRun)
	if err != nil {
		ledger.Finish(jobID, jobs.StatusFail, assessed, 0, 0, 1, err.Error())
		return
	}
	status := jobs.Outcome(counters.Errors, counters.Submitted+counters.Skipped)
	ledger.Finish(jobID, status, counters.Scanned, counters.Submitted, counters.Skipped, counters.Errors, "")
}
