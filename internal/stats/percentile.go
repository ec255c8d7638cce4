// Package stats is the segmented percentile engine. For every matchup pair
// it derives cached count/min/max/median/p05/p95 rows per recency segment
// using nearest-rank quantiles. The cache is pure: recomputing over an
// unchanged sample set writes identical values, and the whole table can be
// dropped and rebuilt at any time.
package stats

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lukemunn/edgebot/internal/database"
)

// Segment is a named recency window. Years == 0 means all-time.
type Segment struct {
	Name  string
	Years int
}

// Segments is the fixed vocabulary. Each segment is an independent cache
// row; a pair recompute refreshes all of them from one sample load so they
// are consistent as of the same instant.
var Segments = []Segment{
	{Name: "all_time", Years: 0},
	{Name: "h2h_10y", Years: 10},
	{Name: "h2h_3y", Years: 3},
	{Name: "h2h_1y", Years: 1},
}

// VisibilityMin is the minimum sample count for a segment to be trusted
// downstream. Rows below it are still stored, just flagged not visible.
const VisibilityMin = 5

// Engine recomputes cached matchup statistics.
type Engine struct {
	db         *database.Database
	minSamples int
	now        func() time.Time
}

func NewEngine(db *database.Database, minSamples int) *Engine {
	if minSamples <= 0 {
		minSamples = VisibilityMin
	}
	return &Engine{db: db, minSamples: minSamples, now: time.Now}
}

// RecomputePair rebuilds every segment row for one pair. Segments with zero
// samples in window are left alone (stats are undefined, not zero).
func (e *Engine) RecomputePair(sport, pairKey string) ([]database.MatchupStats, error) {
	samples, err := e.db.SamplesForPair(sport, pairKey)
	if err != nil {
		return nil, err
	}

	currentYear := e.now().Year()
	var out []database.MatchupStats

	for _, seg := range Segments {
		totals := totalsInWindow(samples, seg, currentYear)
		if len(totals) == 0 {
			continue
		}

		row := computeStats(totals)
		row.Sport = sport
		row.PairKey = pairKey
		row.Segment = seg.Name
		row.Visible = row.SampleCount >= e.minSamples

		if err := e.db.UpsertMatchupStats(&row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// RebuildCounters summarizes a full rebuild for the job ledger.
type RebuildCounters struct {
	Pairs    int
	Upserted int
	Errors   int
}

// RebuildAll recomputes every segment for every pair with samples. Pair
// failures are counted and the walk continues; only the initial pair listing
// is fatal.
func (e *Engine) RebuildAll(ctx context.Context, sport string) (*RebuildCounters, error) {
	pairs, err := e.db.DistinctPairs(sport)
	if err != nil {
		return nil, err
	}

	counters := &RebuildCounters{}
	for _, pair := range pairs {
		select {
		case <-ctx.Done():
			return counters, ctx.Err()
		default:
		}

		rows, err := e.RecomputePair(sport, pair)
		if err != nil {
			log.Error().Err(err).Str("sport", sport).Str("pair", pair).Msg("Pair recompute failed")
			counters.Errors++
			continue
		}
		counters.Pairs++
		counters.Upserted += len(rows)
	}

	log.Info().
		Str("sport", sport).
		Int("pairs", counters.Pairs).
		Int("rows", counters.Upserted).
		Int("errors", counters.Errors).
		Msg("📊 Stats rebuild finished")
	return counters, nil
}

// totalsInWindow filters samples to a segment's recency window and projects
// the totals.
func totalsInWindow(samples []database.MatchupSample, seg Segment, currentYear int) []int {
	totals := make([]int, 0, len(samples))
	for _, s := range samples {
		if seg.Years > 0 && s.SeasonYear < currentYear-seg.Years {
			continue
		}
		totals = append(totals, s.Total)
	}
	return totals
}

// computeStats derives the cached aggregate from a non-empty total set using
// the nearest-rank method (indices select actual samples, no interpolation).
func computeStats(totals []int) database.MatchupStats {
	sorted := make([]int, len(totals))
	copy(sorted, totals)
	sort.Ints(sorted)

	n := len(sorted)
	p05Index := int(math.Ceil(0.05*float64(n))) - 1
	if p05Index < 0 {
		p05Index = 0
	}
	p95Index := int(math.Ceil(0.95*float64(n))) - 1
	if p95Index > n-1 {
		p95Index = n - 1
	}

	var median decimal.Decimal
	if n%2 == 1 {
		median = decimal.NewFromInt(int64(sorted[n/2]))
	} else {
		median = decimal.NewFromInt(int64(sorted[n/2-1] + sorted[n/2])).Div(decimal.NewFromInt(2))
	}

	return database.MatchupStats{
		SampleCount: n,
		MinTotal:    sorted[0],
		MaxTotal:    sorted[n-1],
		MedianTotal: median,
		P05Total:    decimal.NewFromInt(int64(sorted[p05Index])),
		P95Total:    decimal.NewFromInt(int64(sorted[p95Index])),
	}
}
