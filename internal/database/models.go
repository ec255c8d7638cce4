package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game statuses
const (
	GameScheduled = "scheduled"
	GameLive      = "live"
	GameFinal     = "final"
)

// Franchise is the canonical identity of a team lineage. A franchise survives
// relocations and rebrands: every historical provider abbreviation maps back
// to the same row. Franchises are created lazily and never deleted.
type Franchise struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Sport     string `gorm:"uniqueIndex:idx_franchise_sport_name"`
	Name      string `gorm:"uniqueIndex:idx_franchise_sport_name"`
	CreatedAt time.Time
}

// Team is a queryable team record keyed by the provider's team code.
type Team struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Sport       string `gorm:"uniqueIndex:idx_team_sport_key"`
	ProviderKey string `gorm:"uniqueIndex:idx_team_sport_key"`
	Abbrev      string
	Name        string
	FranchiseID uint `gorm:"index"`
	CreatedAt   time.Time
}

// Game is one sporting event. Mutable until final; score-correction passes
// may still touch it afterwards.
type Game struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Sport           string `gorm:"uniqueIndex:idx_game_sport_provider"`
	ProviderKey     string `gorm:"uniqueIndex:idx_game_sport_provider"`
	HomeTeamID      uint
	AwayTeamID      uint
	HomeFranchiseID uint
	AwayFranchiseID uint
	HomeScore       int
	AwayScore       int
	Total           int
	StartTime       time.Time
	Status          string `gorm:"index"` // scheduled, live, final
	SeasonYear      int
	Decade          int
	Playoff         bool
	LastSeenAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MatchupSample projects one final game onto its canonical unordered pair.
// Exactly one sample exists per final game; re-ingesting is a no-op.
type MatchupSample struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	Sport            string `gorm:"uniqueIndex:idx_sample_key,priority:1"`
	PairKey          string `gorm:"uniqueIndex:idx_sample_key,priority:2;index"`
	GameID           uint   `gorm:"uniqueIndex:idx_sample_key,priority:3"`
	FranchisePairKey string `gorm:"index"` // survives team relocations
	Total            int
	PlayedAt         time.Time
	SeasonYear       int
	Decade           int
	Playoff          bool
	CreatedAt        time.Time
}

// MatchupStats is the cached percentile row for a (pair, segment). Pure
// cache: safe to delete and rebuild from samples at any time.
type MatchupStats struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Sport       string `gorm:"uniqueIndex:idx_stats_key,priority:1"`
	PairKey     string `gorm:"uniqueIndex:idx_stats_key,priority:2"`
	Segment     string `gorm:"uniqueIndex:idx_stats_key,priority:3"`
	SampleCount int
	MinTotal    int
	MaxTotal    int
	MedianTotal decimal.Decimal `gorm:"type:decimal(10,2)"`
	P05Total    decimal.Decimal `gorm:"type:decimal(10,2)"`
	P95Total    decimal.Decimal `gorm:"type:decimal(10,2)"`
	Visible     bool
	UpdatedAt   time.Time
}

// EdgeAssessment snapshots the live line against cached stats for one
// game-day. Superseded by the next compute cycle's upsert.
type EdgeAssessment struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	Date           string `gorm:"uniqueIndex:idx_edge_date_game,priority:1"` // YYYY-MM-DD
	GameID         uint   `gorm:"uniqueIndex:idx_edge_date_game,priority:2"`
	Sport          string `gorm:"index"`
	Line           decimal.Decimal `gorm:"type:decimal(10,2)"`
	SampleCount    int
	P05            decimal.Decimal `gorm:"type:decimal(10,2)"`
	P95            decimal.Decimal `gorm:"type:decimal(10,2)"`
	LinePercentile decimal.Decimal `gorm:"type:decimal(10,4)"`
	Visible        bool
	EdgeSide       string // OVER, UNDER, NONE
	EdgeMagnitude  decimal.Decimal `gorm:"type:decimal(10,2)"`
	HitProb        decimal.Decimal `gorm:"type:decimal(10,2)"`
	Strength       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderRecord is the audit trail of every execution decision, including
// skips and dry runs.
type OrderRecord struct {
	ID           string `gorm:"primaryKey"` // uuid
	GameID       uint   `gorm:"index"`
	Date         string `gorm:"index"`
	Sport        string
	Side         string // OVER or UNDER
	Size         int64
	Price        decimal.Decimal `gorm:"type:decimal(10,4)"`
	Strength     string
	HitProb      decimal.Decimal `gorm:"type:decimal(10,2)"`
	Status       string          `gorm:"index"` // submitted, skipped, failed, dry_run
	Reason       string
	VenueOrderID string
	CreatedAt    time.Time
}

// JobRun is one row in the batch job ledger.
type JobRun struct {
	ID         string `gorm:"primaryKey"` // uuid
	Name       string `gorm:"index"`
	Status     string `gorm:"index"` // running, success, partial, fail
	Details    string
	Fetched    int
	Inserted   int
	Skipped    int
	Errors     int
	StartedAt  time.Time
	FinishedAt *time.Time
}
