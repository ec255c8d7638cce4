// Package edge turns cached matchup percentiles plus a live total line into
// a directional signal with a heuristic hit probability and a strength tier.
package edge

import "github.com/shopspring/decimal"

// Side is the favored direction of a detected edge.
type Side string

const (
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
	SideNone  Side = "NONE"
)

// Strength tiers, ordered. Boundaries come from configuration, not code.
type Strength string

const (
	StrengthNone     Strength = "NO_EDGE"
	StrengthWeak     Strength = "WEAK"
	StrengthModerate Strength = "MODERATE"
	StrengthStrong   Strength = "STRONG"
)

var (
	probFloor   = decimal.NewFromInt(5)
	probNeutral = decimal.NewFromInt(50)
	probAnchor  = decimal.NewFromInt(95) // at the percentile boundary
	probCap     = decimal.NewFromInt(99)
	probSpan    = decimal.NewFromInt(90) // 95 → 5 across the range
	rampSpan    = decimal.NewFromInt(4)  // 95 → 99 beyond the boundary
)

// Tiers holds the edge-magnitude thresholds (in points beyond the percentile
// boundary) for each strength level.
type Tiers struct {
	Strong   decimal.Decimal
	Moderate decimal.Decimal
	Weak     decimal.Decimal
}

// Strength maps an edge magnitude to its tier.
func (t Tiers) Strength(magnitude decimal.Decimal) Strength {
	switch {
	case magnitude.GreaterThanOrEqual(t.Strong):
		return StrengthStrong
	case magnitude.GreaterThanOrEqual(t.Moderate):
		return StrengthModerate
	case magnitude.GreaterThanOrEqual(t.Weak):
		return StrengthWeak
	default:
		return StrengthNone
	}
}

// Result is the classifier output.
type Result struct {
	Position  decimal.Decimal // (line - p05) / (p95 - p05); may sit outside [0,1]
	Side      Side
	Strength  Strength
	Magnitude decimal.Decimal // points beyond the breached boundary, 0 inside
	UnderProb decimal.Decimal
	OverProb  decimal.Decimal
	HitProb   decimal.Decimal // probability of the favored side
}

// Classify is a pure function of the live line, the cached percentile
// extremes and the tier configuration.
//
// Probability model: the under side is anchored at 95 when the line sits on
// p05, 50 at the midpoint and 5 at p95, linear in between. Beyond p05 it
// ramps from 95 toward a 99 cap proportional to the overshoot (one full
// range beyond caps it); beyond p95 it floors at 5. The over side is the
// mirrored construction.
//
// When both sides show a probability edge, the side with the higher hit
// probability wins; an exact tie favors OVER.
func Classify(line, p05, p95 decimal.Decimal, tiers Tiers) Result {
	rng := p95.Sub(p05)
	if line.IsZero() || rng.LessThanOrEqual(decimal.Zero) {
		return Result{
			Side:      SideNone,
			Strength:  StrengthNone,
			UnderProb: probNeutral,
			OverProb:  probNeutral,
			HitProb:   probNeutral,
		}
	}

	position := line.Sub(p05).Div(rng)

	var underProb, overProb decimal.Decimal
	switch {
	case line.LessThan(p05):
		overshoot := p05.Sub(line).Div(rng).Mul(rampSpan)
		if overshoot.GreaterThan(rampSpan) {
			overshoot = rampSpan
		}
		underProb = probAnchor.Add(overshoot) // capped at 99
		overProb = probFloor
	case line.GreaterThan(p95):
		overshoot := line.Sub(p95).Div(rng).Mul(rampSpan)
		if overshoot.GreaterThan(rampSpan) {
			overshoot = rampSpan
		}
		overProb = probAnchor.Add(overshoot)
		underProb = probFloor
	default:
		underProb = probAnchor.Sub(position.Mul(probSpan))
		overProb = decimal.NewFromInt(100).Sub(underProb)
	}
	if underProb.GreaterThan(probCap) {
		underProb = probCap
	}
	if overProb.GreaterThan(probCap) {
		overProb = probCap
	}

	// Tie-break: higher hit probability wins, exact tie favors OVER.
	side := SideOver
	hitProb := overProb
	magnitude := line.Sub(p95)
	if underProb.GreaterThan(overProb) {
		side = SideUnder
		hitProb = underProb
		magnitude = p05.Sub(line)
	}
	if magnitude.LessThan(decimal.Zero) {
		magnitude = decimal.Zero
	}

	strength := tiers.Strength(magnitude)
	if strength == StrengthNone {
		side = SideNone
	}

	return Result{
		Position:  position,
		Side:      side,
		Strength:  strength,
		Magnitude: magnitude,
		UnderProb: underProb,
		OverProb:  overProb,
		HitProb:   hitProb,
	}
}

// CapForVisibility downgrades a strength when the backing sample size is
// below the confidence threshold. Low-confidence stats never emit above
// WEAK.
func CapForVisibility(s Strength, visible bool) Strength {
	if visible {
		return s
	}
	if s == StrengthModerate || s == StrengthStrong {
		return StrengthWeak
	}
	return s
}
