package execution

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lukemunn/edgebot/internal/config"
	"github.com/lukemunn/edgebot/internal/database"
	"github.com/lukemunn/edgebot/internal/edge"
	"github.com/lukemunn/edgebot/internal/venue"
)

// ═══════════════════════════════════════════════════════════════════════════════
// EXECUTION LAYER
// ═══════════════════════════════════════════════════════════════════════════════
//
// Consumes edge assessments and turns them into sized, priced, de-duplicated
// orders against the venue.
//
// Cycle: SCAN → for each eligible game: CLASSIFY → SIZE → PRICE →
// DEDUPE-CHECK → SUBMIT | SKIP
//
// Every decision — submitted, skipped or errored — is persisted with its
// inputs. Dry-run walks the full pipeline and stops just short of the
// network call.
//
// ═══════════════════════════════════════════════════════════════════════════════

// VenueAPI is the slice of the venue client the trader needs.
type VenueAPI interface {
	PlaceOrder(ctx context.Context, req venue.OrderRequest) (*venue.OrderResult, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	Positions(ctx context.Context) ([]venue.Position, error)
}

// Notifier receives order/edge alerts. May be nil.
type Notifier interface {
	Notify(text string)
}

// Sizing proportion of the max-position budget per strength tier.
var tierBudgetPct = map[edge.Strength]decimal.Decimal{
	edge.StrengthStrong:   decimal.NewFromInt(1),
	edge.StrengthModerate: decimal.NewFromFloat(0.5),
	edge.StrengthWeak:     decimal.NewFromFloat(0.25),
}

// CycleCounters summarize one trading cycle for the ledger.
type CycleCounters struct {
	Scanned   int
	Submitted int
	Skipped   int
	Errors    int
}

// Trader runs trading cycles.
type Trader struct {
	db       *database.Database
	venue    VenueAPI
	notifier Notifier
	cfg      *config.Config

	mu              sync.Mutex
	dayStartBalance decimal.Decimal
	lastResetDay    int
}

func NewTrader(db *database.Database, venueClient VenueAPI, notifier Notifier, cfg *config.Config) *Trader {
	return &Trader{db: db, venue: venueClient, notifier: notifier, cfg: cfg}
}

// Run executes one trading cycle for a sport and day. Only the given day's
// games are eligible, and only when they start inside the lead window from
// now; a next-day game inside the window waits for that day's cycle, which
// keeps the scan aligned with the day the assessments were computed for.
// dryRun true walks the full pipeline but never calls the venue. Per-order
// failures are recorded and the queue continues; only store/setup failures
// return an error.
func (t *Trader) Run(ctx context.Context, sport string, day time.Time, dryRun bool) (*CycleCounters, error) {
	counters := &CycleCounters{}
	now := time.Now().UTC()
	date := day.UTC().Format("2006-01-02")

	upcoming, err := t.db.GamesStartingBetween(sport, now, now.Add(t.cfg.TradeLeadWindow))
	if err != nil {
		return nil, err
	}
	games := make([]database.Game, 0, len(upcoming))
	for _, game := range upcoming {
		if game.StartTime.UTC().Format("2006-01-02") == date {
			games = append(games, game)
		}
	}
	counters.Scanned = len(games)
	if len(games) == 0 {
		return counters, nil
	}

	lossBreached, err := t.dailyLossBreached(ctx, dryRun)
	if err != nil {
		log.Warn().Err(err).Msg("Balance check failed, trading cycle halted")
		return counters, err
	}

	for _, game := range games {
		select {
		case <-ctx.Done():
			return counters, ctx.Err()
		default:
		}

		rec := &database.OrderRecord{
			ID:     uuid.NewString(),
			GameID: game.ID,
			Date:   date,
			Sport:  sport,
		}

		if lossBreached {
			t.skip(rec, counters, "daily loss cap breached")
			continue
		}
		t.decideGame(ctx, game, date, dryRun, rec, counters)
	}

	log.Info().
		Str("sport", sport).
		Str("date", date).
		Int("scanned", counters.Scanned).
		Int("submitted", counters.Submitted).
		Int("skipped", counters.Skipped).
		Int("errors", counters.Errors).
		Bool("dry_run", dryRun).
		Msg("💼 Trading cycle done")
	return counters, nil
}

// decideGame walks one game through the decision pipeline.
func (t *Trader) decideGame(ctx context.Context, game database.Game, date string, dryRun bool, rec *database.OrderRecord, counters *CycleCounters) {
	// CLASSIFY: consume the stored assessment for this game-day
	assessment, err := t.db.GetAssessment(date, game.ID)
	if err != nil {
		t.fail(rec, counters, "assessment lookup: "+err.Error())
		return
	}
	if assessment == nil || assessment.EdgeSide == string(edge.SideNone) || assessment.Strength == string(edge.StrengthNone) {
		t.skip(rec, counters, "no edge")
		return
	}
	rec.Side = assessment.EdgeSide
	rec.Strength = assessment.Strength
	rec.HitProb = assessment.HitProb

	if assessment.SampleCount < t.cfg.MinSampleCount || !assessment.Visible {
		t.skip(rec, counters, "sample size below confidence minimum")
		return
	}

	open, err := t.openPositions(ctx, date, dryRun)
	if err != nil {
		t.fail(rec, counters, "position check: "+err.Error())
		return
	}
	if open >= int64(t.cfg.MaxOpenPositions) {
		t.skip(rec, counters, "max open positions reached")
		return
	}

	// PRICE before SIZE: unit count depends on the limit price
	price := t.limitPrice(assessment.LinePercentile)

	// SIZE: tier percentage of the max budget, whole contracts only
	size := t.contracts(edge.Strength(assessment.Strength), price)
	if size < 1 {
		t.skip(rec, counters, "computed size below one contract")
		return
	}
	rec.Size = size
	rec.Price = price

	// DEDUPE-CHECK: one live order per game
	exists, err := t.db.HasLiveOrderForGame(game.ID)
	if err != nil {
		t.fail(rec, counters, "dedupe check: "+err.Error())
		return
	}
	if exists {
		t.skip(rec, counters, "order already exists for game")
		return
	}

	// SUBMIT (or stop short in dry-run)
	if dryRun {
		rec.Status = database.OrderDryRun
		rec.Reason = "dry run"
		t.persist(rec)
		counters.Submitted++
		log.Info().Str("game", game.ProviderKey).Str("side", rec.Side).
			Int64("size", size).Str("price", price.StringFixed(2)).Msg("📝 DRY RUN order recorded")
		return
	}

	result, err := t.venue.PlaceOrder(ctx, venue.OrderRequest{
		ClientOrderID: rec.ID,
		Market:        marketTicker(game),
		Side:          rec.Side,
		Count:         size,
		LimitPrice:    price,
	})
	if err != nil {
		t.fail(rec, counters, "venue: "+err.Error())
		return
	}

	rec.Status = database.OrderSubmitted
	rec.VenueOrderID = result.OrderID
	t.persist(rec)
	counters.Submitted++
	log.Info().Str("game", game.ProviderKey).Str("side", rec.Side).
		Int64("size", size).Str("price", price.StringFixed(2)).
		Str("venue_order", result.OrderID).Msg("✅ Order submitted")

	if t.notifier != nil {
		t.notifier.Notify("Order submitted: " + rec.Side + " " + game.ProviderKey +
			" size=" + decimal.NewFromInt(size).String() + " @ " + price.StringFixed(2))
	}
}

// contracts converts a strength tier into a whole contract count, rounding
// down. Sub-one counts mean no trade, never a token position.
func (t *Trader) contracts(strength edge.Strength, price decimal.Decimal) int64 {
	pct, ok := tierBudgetPct[strength]
	if !ok || price.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	budget := t.cfg.MaxPositionUSD.Mul(pct)
	return budget.Div(price).IntPart()
}

// limitPrice scales linearly with the distance of the line's percentile
// position from the neutral midpoint, clamped to the configured band.
func (t *Trader) limitPrice(position decimal.Decimal) decimal.Decimal {
	half := decimal.NewFromFloat(0.5)
	distance := position.Sub(half).Abs()
	if distance.GreaterThan(half) {
		distance = half
	}

	band := t.cfg.MaxPrice.Sub(t.cfg.MinPrice)
	price := t.cfg.MinPrice.Add(band.Mul(distance.Div(half)))
	if price.LessThan(t.cfg.MinPrice) {
		price = t.cfg.MinPrice
	}
	if price.GreaterThan(t.cfg.MaxPrice) {
		price = t.cfg.MaxPrice
	}
	return price
}

// dailyLossBreached compares today's realized loss against the configured
// cap. Balance is sampled at first use each day.
func (t *Trader) dailyLossBreached(ctx context.Context, dryRun bool) (bool, error) {
	if dryRun {
		return false, nil
	}

	balance, err := t.venue.Balance(ctx)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	day := time.Now().UTC().YearDay()
	if day != t.lastResetDay {
		t.lastResetDay = day
		t.dayStartBalance = balance
	}
	loss := t.dayStartBalance.Sub(balance)
	return loss.GreaterThanOrEqual(t.cfg.DailyLossCapUSD), nil
}

// openPositions counts currently open positions: the venue's view when
// live, the day's live order records in dry-run.
func (t *Trader) openPositions(ctx context.Context, date string, dryRun bool) (int64, error) {
	if dryRun {
		return t.db.CountLiveOrdersForDate(date)
	}
	positions, err := t.venue.Positions(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(positions)), nil
}

func (t *Trader) skip(rec *database.OrderRecord, counters *CycleCounters, reason string) {
	rec.Status = database.OrderSkipped
	rec.Reason = reason
	t.persist(rec)
	counters.Skipped++
}

func (t *Trader) fail(rec *database.OrderRecord, counters *CycleCounters, reason string) {
	rec.Status = database.OrderFailed
	rec.Reason = reason
	t.persist(rec)
	counters.Errors++
	log.Error().Uint("game", rec.GameID).Str("reason", reason).Msg("Order decision failed")
}

func (t *Trader) persist(rec *database.OrderRecord) {
	if err := t.db.SaveOrderRecord(rec); err != nil {
		log.Error().Err(err).Str("order", rec.ID).Msg("Order record write failed")
	}
}

// marketTicker derives the venue market identifier for a game's totals
// market.
func marketTicker(game database.Game) string {
	return strings.ToUpper(game.Sport) + "-" + game.ProviderKey + "-TOTAL"
}
