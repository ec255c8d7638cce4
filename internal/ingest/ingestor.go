package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/identity"
	"github.com/lukemunn/edgebot/internal/scores"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SAMPLE INGESTOR
// ═══════════════════════════════════════════════════════════════════════════════
//
// Pulls finalized scores for a date range, resolves team identity and stores
// games + canonical matchup samples.
//
// Failure policy:
//   - per-record errors (unknown abbrev, bad score) → counted, batch continues
//   - per-date errors (provider down after retries) → counted, other dates run
//   - store/setup errors → fatal, surfaced to the ledger as fail
//
// ═══════════════════════════════════════════════════════════════════════════════

// Provider is the slice of the scores client the ingestor needs.
type Provider interface {
	FetchFinalGames(ctx context.Context, sport string, date time.Time) ([]scores.ProviderGame, error)
}

// Counters are the batch outcome, persisted on the job ledger.
type Counters struct {
	mu       sync.Mutex
	Fetched  int
	Inserted int
	Skipped  int
	Errors   int
}

func (c *Counters) add(fetched, inserted, skipped, errs int) {
	c.mu.Lock()
	c.Fetched += fetched
	c.Inserted += inserted
	c.Skipped += skipped
	c.Errors += errs
	c.mu.Unlock()
}

// Ingestor runs score ingestion batches.
type Ingestor struct {
	db         *database.Database
	provider   Provider
	fanout     int           // concurrent date fetches
	batchDelay time.Duration // pause between fan-out waves
}

func New(db *database.Database, provider Provider, fanout int, batchDelay time.Duration) *Ingestor {
	if fanout < 1 {
		fanout = 1
	}
	return &Ingestor{db: db, provider: provider, fanout: fanout, batchDelay: batchDelay}
}

// IngestRange ingests every date in [from, to] for a sport. Dates run in
// waves of at most `fanout` with a delay between waves to respect provider
// rate limits. A fresh identity resolver scopes lookup caches to this run.
func (ing *Ingestor) IngestRange(ctx context.Context, sport string, from, to time.Time) *Counters {
	counters := &Counters{}
	resolver := identity.NewResolver(ing.db)

	dates := datesBetween(from, to)
	log.Info().Str("sport", sport).Int("dates", len(dates)).Msg("📥 Ingestion run starting")

	for start := 0; start < len(dates); start += ing.fanout {
		end := start + ing.fanout
		if end > len(dates) {
			end = len(dates)
		}

		var wg sync.WaitGroup
		for _, date := range dates[start:end] {
			wg.Add(1)
			go func(d time.Time) {
				defer wg.Done()
				ing.ingestDate(ctx, sport, d, resolver, counters)
			}(date)
		}
		wg.Wait()

		if end < len(dates) && ing.batchDelay > 0 {
			select {
			case <-time.After(ing.batchDelay):
			case <-ctx.Done():
				return counters
			}
		}
	}

	log.Info().
		Str("sport", sport).
		Int("fetched", counters.Fetched).
		Int("inserted", counters.Inserted).
		Int("skipped", counters.Skipped).
		Int("errors", counters.Errors).
		Msg("📥 Ingestion run finished")
	return counters
}

// ingestDate handles one date unit. Provider failure here counts as one
// error and does not touch neighboring dates.
func (ing *Ingestor) ingestDate(ctx context.Context, sport string, date time.Time, resolver *identity.Resolver, counters *Counters) {
	games, err := ing.provider.FetchFinalGames(ctx, sport, date)
	if err != nil {
		log.Error().Err(err).Str("sport", sport).Str("date", date.Format("2006-01-02")).Msg("Date fetch failed")
		counters.add(0, 0, 0, 1)
		return
	}

	for _, pg := range games {
		inserted, err := ing.ingestGame(sport, pg, resolver)
		switch {
		case errors.Is(err, identity.ErrUnknownAbbrev):
			log.Warn().Str("sport", sport).Str("game", pg.ProviderID).Err(err).Msg("Skipping unmappable record")
			counters.add(1, 0, 1, 0)
		case err != nil:
			log.Error().Err(err).Str("sport", sport).Str("game", pg.ProviderID).Msg("Record failed")
			counters.add(1, 0, 0, 1)
		case inserted:
			counters.add(1, 1, 0, 0)
		default:
			counters.add(1, 0, 0, 0)
		}
	}
}

// ingestGame upserts one game and, when final, its matchup sample. Returns
// true when a new sample row was written.
func (ing *Ingestor) ingestGame(sport string, pg scores.ProviderGame, resolver *identity.Resolver) (bool, error) {
	homeFranchise, err := resolver.ResolveFranchise(sport, pg.HomeAbbrev)
	if err != nil {
		return false, err
	}
	awayFranchise, err := resolver.ResolveFranchise(sport, pg.AwayAbbrev)
	if err != nil {
		return false, err
	}

	homeTeam, err := resolver.ResolveOrCreateTeam(sport, pg.HomeAbbrev, pg.HomeAbbrev, identity.CanonicalName(sport, pg.HomeAbbrev), homeFranchise)
	if err != nil {
		return false, err
	}
	awayTeam, err := resolver.ResolveOrCreateTeam(sport, pg.AwayAbbrev, pg.AwayAbbrev, identity.CanonicalName(sport, pg.AwayAbbrev), awayFranchise)
	if err != nil {
		return false, err
	}

	game := &database.Game{
		Sport:           sport,
		ProviderKey:     pg.ProviderID,
		HomeTeamID:      homeTeam,
		AwayTeamID:      awayTeam,
		HomeFranchiseID: homeFranchise,
		AwayFranchiseID: awayFranchise,
		HomeScore:       pg.HomeScore,
		AwayScore:       pg.AwayScore,
		Total:           pg.HomeScore + pg.AwayScore,
		StartTime:       pg.StartTime,
		Status:          pg.Status,
		SeasonYear:      pg.SeasonYear,
		Decade:          (pg.SeasonYear / 10) * 10,
		Playoff:         pg.Playoff,
	}
	if err := ing.db.UpsertGame(game); err != nil {
		return false, err
	}

	if pg.Status != database.GameFinal {
		return false, nil
	}

	// Pair key is tie-broken by team id order, never home/away, so lookups
	// are direction-independent.
	sample := &database.MatchupSample{
		Sport:            sport,
		PairKey:          identity.PairKey(homeTeam, awayTeam),
		FranchisePairKey: identity.PairKey(homeFranchise, awayFranchise),
		GameID:           game.ID,
		Total:            game.Total,
		PlayedAt:         pg.StartTime,
		SeasonYear:       pg.SeasonYear,
		Decade:           game.Decade,
		Playoff:          pg.Playoff,
	}
	return ing.db.UpsertSample(sample)
}

// datesBetween expands an inclusive date range into day steps.
func datesBetween(from, to time.Time) []time.Time {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
