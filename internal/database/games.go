package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ═══════════════════════════════════════════════════════════════════════════════
// IDENTITY + GAME OPERATIONS
// ═══════════════════════════════════════════════════════════════════════════════
//
// All writes are keyed upserts. Concurrent ingestion workers racing on the
// same natural key both succeed: the loser's insert is swallowed by the
// unique constraint and the winner's row is re-read.
//
// ═══════════════════════════════════════════════════════════════════════════════

// EnsureFranchise returns the franchise id for (sport, name), creating the
// row if it does not exist. Safe under concurrent callers.
func (d *Database) EnsureFranchise(sport, name string) (uint, error) {
	f := Franchise{Sport: sport, Name: name}
	if err := d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&f).Error; err != nil {
		return 0, err
	}
	if f.ID != 0 {
		return f.ID, nil
	}
	// Lost the insert race (or DoNothing hit an existing row): re-read the winner
	if err := d.db.Where("sport = ? AND name = ?", sport, name).First(&f).Error; err != nil {
		return 0, err
	}
	return f.ID, nil
}

// EnsureTeam returns the team id for (sport, providerKey), creating the row
// if needed. Same race handling as EnsureFranchise.
func (d *Database) EnsureTeam(team *Team) (uint, error) {
	if err := d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(team).Error; err != nil {
		return 0, err
	}
	if team.ID != 0 {
		return team.ID, nil
	}
	var existing Team
	if err := d.db.Where("sport = ? AND provider_key = ?", team.Sport, team.ProviderKey).First(&existing).Error; err != nil {
		return 0, err
	}
	*team = existing
	return existing.ID, nil
}

// GetGameByProviderKey looks a game up by its idempotency key.
func (d *Database) GetGameByProviderKey(sport, providerKey string) (*Game, error) {
	var game Game
	err := d.db.Where("sport = ? AND provider_key = ?", sport, providerKey).First(&game).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// UpsertGame inserts a game or, when (sport, provider_key) already exists,
// updates the mutable fields only. The returned struct always carries the
// database id.
func (d *Database) UpsertGame(game *Game) error {
	game.LastSeenAt = time.Now()
	err := d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sport"}, {Name: "provider_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"home_score", "away_score", "total", "status", "start_time", "last_seen_at", "updated_at",
		}),
	}).Create(game).Error
	if err != nil {
		return err
	}
	if game.ID == 0 {
		var existing Game
		if err := d.db.Where("sport = ? AND provider_key = ?", game.Sport, game.ProviderKey).First(&existing).Error; err != nil {
			return err
		}
		game.ID = existing.ID
	}
	return nil
}

// UpsertSample stores a matchup sample for a final game. Re-ingesting the
// same (sport, pair, game) is a no-op unless the game's score was corrected,
// in which case the sample's total follows it so later recomputes see the
// fixed value. Returns true only when a new row was written.
func (d *Database) UpsertSample(sample *MatchupSample) (bool, error) {
	var existing MatchupSample
	err := d.db.Where("sport = ? AND pair_key = ? AND game_id = ?",
		sample.Sport, sample.PairKey, sample.GameID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		// Concurrent inserters racing on the same key both land here; the
		// loser's create becomes the correction update.
		res := d.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sport"}, {Name: "pair_key"}, {Name: "game_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total", "played_at"}),
		}).Create(sample)
		return res.Error == nil, res.Error
	}
	if err != nil {
		return false, err
	}

	if existing.Total == sample.Total && existing.PlayedAt.Equal(sample.PlayedAt) {
		return false, nil
	}
	err = d.db.Model(&existing).Updates(map[string]interface{}{
		"total":     sample.Total,
		"played_at": sample.PlayedAt,
	}).Error
	return false, err
}

// SamplesForPair returns all samples for a pair, oldest first.
func (d *Database) SamplesForPair(sport, pairKey string) ([]MatchupSample, error) {
	var samples []MatchupSample
	err := d.db.Where("sport = ? AND pair_key = ?", sport, pairKey).
		Order("played_at ASC").Find(&samples).Error
	return samples, err
}

// DistinctPairs lists every pair key that has at least one sample.
func (d *Database) DistinctPairs(sport string) ([]string, error) {
	var pairs []string
	err := d.db.Model(&MatchupSample{}).Where("sport = ?", sport).
		Distinct("pair_key").Order("pair_key").Pluck("pair_key", &pairs).Error
	return pairs, err
}

// GamesStartingBetween returns not-yet-started games inside a time window,
// used by the trading cycle's eligibility scan.
func (d *Database) GamesStartingBetween(sport string, from, to time.Time) ([]Game, error) {
	var games []Game
	err := d.db.Where("sport = ? AND status = ? AND start_time > ? AND start_time <= ?",
		sport, GameScheduled, from, to).Order("start_time ASC").Find(&games).Error
	return games, err
}

// GamesOnDate returns all games for a calendar day (UTC), any status.
func (d *Database) GamesOnDate(sport string, day time.Time) ([]Game, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var games []Game
	err := d.db.Where("sport = ? AND start_time >= ? AND start_time < ?", sport, start, end).
		Order("start_time ASC").Find(&games).Error
	return games, err
}

// GetGame fetches a game by id.
func (d *Database) GetGame(id uint) (*Game, error) {
	var game Game
	if err := d.db.First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}
