package edge

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/identity"
)

// LineSource supplies the most recent total line for a game, keyed by the
// provider's game key. ok is false when no line is known.
type LineSource interface {
	TotalLine(sport, providerKey string) (decimal.Decimal, bool)
}

// Assessor joins live lines with cached matchup stats and snapshots the
// result per (date, game).
type Assessor struct {
	db    *database.Database
	lines LineSource
	tiers Tiers
}

func NewAssessor(db *database.Database, lines LineSource, tiers Tiers) *Assessor {
	return &Assessor{db: db, lines: lines, tiers: tiers}
}

// segmentPreference orders segments for assessment: the most recent visible
// segment wins, all-time is the fallback even when thin.
var segmentPreference = []string{"h2h_1y", "h2h_3y", "h2h_10y", "all_time"}

// AssessDate computes/refreshes edge assessments for every game on a day.
// Returns the number of games assessed. Games without any cached stats are
// skipped (nothing to compare against).
func (a *Assessor) AssessDate(ctx context.Context, sport string, day time.Time) (int, error) {
	games, err := a.db.GamesOnDate(sport, day)
	if err != nil {
		return 0, err
	}
	date := day.Format("2006-01-02")

	assessed := 0
	for _, game := range games {
		select {
		case <-ctx.Done():
			return assessed, ctx.Err()
		default:
		}

		pairKey := identity.PairKey(game.HomeTeamID, game.AwayTeamID)
		stats, err := a.pickStats(sport, pairKey)
		if err != nil {
			log.Error().Err(err).Str("pair", pairKey).Msg("Stats lookup failed")
			continue
		}
		if stats == nil {
			continue
		}

		line, ok := a.lines.TotalLine(sport, game.ProviderKey)
		if !ok {
			line = decimal.Zero // classifier treats unset as NO_EDGE
		}

		res := Classify(line, stats.P05Total, stats.P95Total, a.tiers)
		strength := CapForVisibility(res.Strength, stats.Visible)

		assessment := &database.EdgeAssessment{
			Date:           date,
			GameID:         game.ID,
			Sport:          sport,
			Line:           line,
			SampleCount:    stats.SampleCount,
			P05:            stats.P05Total,
			P95:            stats.P95Total,
			LinePercentile: res.Position,
			Visible:        stats.Visible,
			EdgeSide:       string(res.Side),
			EdgeMagnitude:  res.Magnitude,
			HitProb:        res.HitProb,
			Strength:       string(strength),
		}
		if err := a.db.UpsertEdgeAssessment(assessment); err != nil {
			log.Error().Err(err).Uint("game", game.ID).Msg("Assessment upsert failed")
			continue
		}
		assessed++
	}

	log.Info().Str("sport", sport).Str("date", date).Int("assessed", assessed).Msg("🎯 Edge assessment cycle done")
	return assessed, nil
}

// pickStats selects the stats row backing an assessment: most recent visible
// segment first, all-time as last resort.
func (a *Assessor) pickStats(sport, pairKey string) (*database.MatchupStats, error) {
	var fallback *database.MatchupStats
	for _, segment := range segmentPreference {
		stats, err := a.db.GetMatchupStats(sport, pairKey, segment)
		if err != nil {
			return nil, err
		}
		if stats == nil {
			continue
		}
		if stats.Visible {
			return stats, nil
		}
		fallback = stats
	}
	return fallback, nil
}
