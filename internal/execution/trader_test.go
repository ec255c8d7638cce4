package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukemunn/edgebot/internal/config"
	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/edge"
	"github.com/lukemunn/edgebot/internal/venue"
)

type fakeVenue struct {
	placed   []venue.OrderRequest
	placeErr error
	balance  decimal.Decimal
	open     []venue.Position
}

func (f *fakeVenue) PlaceOrder(_ context.Context, req venue.OrderRequest) (*venue.OrderResult, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	f.placed = append(f.placed, req)
	return &venue.OrderResult{OrderID: "venue-" + req.ClientOrderID, Status: "resting"}, nil
}

func (f *fakeVenue) Balance(_ context.Context) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakeVenue) Positions(_ context.Context) ([]venue.Position, error) {
	return f.open, nil
}

type fakeNotifier struct{ messages []string }

func (f *fakeNotifier) Notify(text string) { f.messages = append(f.messages, text) }

func testConfig() *config.Config {
	return &config.Config{
		TradeLeadWindow:  12 * time.Hour,
		MinSampleCount:   5,
		MaxPositionUSD:   decimal.NewFromInt(100),
		MaxOpenPositions: 5,
		DailyLossCapUSD:  decimal.NewFromInt(500),
		MinPrice:         decimal.NewFromFloat(0.40),
		MaxPrice:         decimal.NewFromFloat(0.75),
	}
}

// seedGame inserts a scheduled game starting inside the trade lead window
// plus its edge assessment, and returns the game.
func seedGame(t *testing.T, db *database.Database, providerKey string, a database.EdgeAssessment) database.Game {
	t.Helper()
	game := database.Game{
		Sport:       "nba",
		ProviderKey: providerKey,
		StartTime:   time.Now().UTC().Add(time.Hour),
		Status:      database.GameScheduled,
		SeasonYear:  2025,
	}
	require.NoError(t, db.UpsertGame(&game))

	a.Date = game.StartTime.UTC().Format("2006-01-02")
	a.GameID = game.ID
	a.Sport = "nba"
	require.NoError(t, db.UpsertEdgeAssessment(&a))
	return game
}

func strongUnder() database.EdgeAssessment {
	return database.EdgeAssessment{
		Line:           decimal.NewFromInt(190),
		SampleCount:    12,
		P05:            decimal.NewFromInt(200),
		P95:            decimal.NewFromInt(240),
		LinePercentile: decimal.NewFromFloat(-0.25),
		Visible:        true,
		EdgeSide:       string(edge.SideUnder),
		EdgeMagnitude:  decimal.NewFromInt(10),
		HitProb:        decimal.NewFromInt(96),
		Strength:       string(edge.StrengthStrong),
	}
}

func newTestTrader(t *testing.T, fv *fakeVenue) (*Trader, *database.Database, *fakeNotifier) {
	t.Helper()
	db, err := database.NewInMemory()
	require.NoError(t, err)
	fn := &fakeNotifier{}
	return NewTrader(db, fv, fn, testConfig()), db, fn
}

func TestDryRunStopsShortOfVenue(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	game := seedGame(t, db, "g1", strongUnder())

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Scanned)
	assert.Equal(t, 1, counters.Submitted)
	assert.Empty(t, fv.placed, "dry run must never reach the venue")

	orders, err := db.OrdersForDate(game.StartTime.UTC().Format("2006-01-02"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, database.OrderDryRun, orders[0].Status)
	assert.Equal(t, string(edge.SideUnder), orders[0].Side)
	assert.Positive(t, orders[0].Size)
}

func TestLiveSubmitRecordsVenueOrder(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, fn := newTestTrader(t, fv)
	game := seedGame(t, db, "g1", strongUnder())

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, false)
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Submitted)
	require.Len(t, fv.placed, 1)
	assert.Equal(t, "NBA-g1-TOTAL", fv.placed[0].Market)
	assert.Equal(t, string(edge.SideUnder), fv.placed[0].Side)

	orders, err := db.OrdersForDate(game.StartTime.UTC().Format("2006-01-02"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, database.OrderSubmitted, orders[0].Status)
	assert.NotEmpty(t, orders[0].VenueOrderID)
	assert.NotEmpty(t, fn.messages)
}

func TestDedupeOnePerGame(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	game := seedGame(t, db, "g1", strongUnder())

	_, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)
	counters, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)

	assert.Equal(t, 0, counters.Submitted)
	assert.Equal(t, 1, counters.Skipped)

	orders, err := db.OrdersForDate(game.StartTime.UTC().Format("2006-01-02"))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	var skips int
	for _, o := range orders {
		if o.Status == database.OrderSkipped {
			skips++
			assert.Equal(t, "order already exists for game", o.Reason)
		}
	}
	assert.Equal(t, 1, skips)
}

func TestNoEdgeSkipped(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	a := strongUnder()
	a.EdgeSide = string(edge.SideNone)
	a.Strength = string(edge.StrengthNone)
	game := seedGame(t, db, "g1", a)

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Submitted)
	assert.Equal(t, 1, counters.Skipped)
}

func TestLowSampleCountSkipped(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	a := strongUnder()
	a.SampleCount = 3
	a.Visible = false
	game := seedGame(t, db, "g1", a)

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Submitted)
	assert.Equal(t, 1, counters.Skipped)
}

func TestVenueFailureRecordedAndCycleContinues(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000), placeErr: errors.New("insufficient funds")}
	trader, db, _ := newTestTrader(t, fv)
	game := seedGame(t, db, "g1", strongUnder())

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, false)
	require.NoError(t, err, "per-order venue failures must not abort the cycle")
	assert.Equal(t, 1, counters.Errors)

	orders, err := db.OrdersForDate(game.StartTime.UTC().Format("2006-01-02"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, database.OrderFailed, orders[0].Status)
	assert.Contains(t, orders[0].Reason, "insufficient funds")
}

func TestContractSizingTruncates(t *testing.T) {
	trader, _, _ := newTestTrader(t, &fakeVenue{})

	// STRONG: full $100 budget at 0.65 → 153 whole contracts
	assert.Equal(t, int64(153), trader.contracts(edge.StrengthStrong, decimal.NewFromFloat(0.65)))
	// MODERATE: half budget
	assert.Equal(t, int64(76), trader.contracts(edge.StrengthModerate, decimal.NewFromFloat(0.65)))
	// WEAK: quarter budget
	assert.Equal(t, int64(38), trader.contracts(edge.StrengthWeak, decimal.NewFromFloat(0.65)))
	// No tier, no trade
	assert.Equal(t, int64(0), trader.contracts(edge.StrengthNone, decimal.NewFromFloat(0.65)))
	assert.Equal(t, int64(0), trader.contracts(edge.StrengthStrong, decimal.Zero))
}

func TestSubOneContractSkips(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	trader.cfg.MaxPositionUSD = decimal.NewFromFloat(0.50)
	game := seedGame(t, db, "g1", strongUnder())

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Submitted)
	assert.Equal(t, 1, counters.Skipped)
}

func TestLimitPriceClampsToBand(t *testing.T) {
	trader, _, _ := newTestTrader(t, &fakeVenue{})

	// Neutral midpoint prices at the band floor
	assert.Equal(t, "0.4", trader.limitPrice(decimal.NewFromFloat(0.5)).String())
	// Boundary position prices at the cap
	assert.Equal(t, "0.75", trader.limitPrice(decimal.NewFromInt(1)).String())
	assert.Equal(t, "0.75", trader.limitPrice(decimal.Zero).String())
	// Positions beyond the range stay clamped
	assert.Equal(t, "0.75", trader.limitPrice(decimal.NewFromInt(3)).String())
	assert.Equal(t, "0.75", trader.limitPrice(decimal.NewFromFloat(-1.5)).String())
	// Quarter distance lands mid-band: 0.40 + 0.35*0.5 = 0.575
	assert.Equal(t, "0.575", trader.limitPrice(decimal.NewFromFloat(0.75)).String())
}

func TestMaxOpenPositionsGate(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	trader.cfg.MaxOpenPositions = 0
	game := seedGame(t, db, "g1", strongUnder())

	counters, err := trader.Run(context.Background(), "nba", game.StartTime, true)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Submitted)
	assert.Equal(t, 1, counters.Skipped)
}

func TestRunTradesOnlyRequestedDay(t *testing.T) {
	fv := &fakeVenue{balance: decimal.NewFromInt(1000)}
	trader, db, _ := newTestTrader(t, fv)
	game := seedGame(t, db, "g1", strongUnder())

	// A job for tomorrow must not pick up today's game even though it
	// starts inside the lead window.
	counters, err := trader.Run(context.Background(), "nba", game.StartTime.Add(24*time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.Scanned)
	assert.Empty(t, fv.placed)

	counters, err = trader.Run(context.Background(), "nba", game.StartTime, false)
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Scanned)
	assert.Equal(t, 1, counters.Submitted)
	require.Len(t, fv.placed, 1)
}
